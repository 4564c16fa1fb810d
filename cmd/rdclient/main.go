// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command rdclient spawns a server subprocess (by default this module's
// own rdserver; --cmd names another executable, which is started with no
// arguments) and runs a call against it, the client half of the example
// pair.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/rdiffbackup-go/transport/lifecycle"
	"github.com/rdiffbackup-go/transport/logging"
	"github.com/rdiffbackup-go/transport/peer"
	"github.com/rdiffbackup-go/transport/resolver"
	"github.com/rdiffbackup-go/transport/security"
	"github.com/rdiffbackup-go/transport/session"
)

func main() {
	var serverCmd string
	var funcName string

	cmd := &cobra.Command{
		Use:   "rdclient",
		Short: "Spawn a server subprocess and evaluate one call against it",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New()

			stdoutRead, stdoutWrite, err := os.Pipe() // child writes its stdout here, client reads
			if err != nil {
				return err
			}
			stdinRead, stdinWrite, err := os.Pipe() // client writes here, child reads its stdin
			if err != nil {
				return err
			}

			child := exec.Command(serverCmd)
			child.Stdin = stdinRead
			child.Stdout = stdoutWrite
			child.Stderr = os.Stderr
			if err := child.Start(); err != nil {
				return err
			}
			stdinRead.Close()
			stdoutWrite.Close()

			sess := session.New(resolver.Builtins())
			peer.RegisterEndpoints(sess, log)

			server := peer.NewPipePeer(1, stdoutRead, stdinWrite, sess, security.AllowAll{}, security.ClassBackup, child.Process, log)

			callArgs := make([]any, 0, len(args))
			for _, a := range args {
				callArgs = append(callArgs, a)
			}
			result, err := server.Reval(context.Background(), funcName, callArgs...)
			if err != nil {
				_ = server.Quit(context.Background(), lifecycle.DefaultReapOptions)
				return err
			}
			fmt.Println(result)

			return server.Quit(context.Background(), lifecycle.DefaultReapOptions)
		},
	}
	cmd.Flags().StringVar(&serverCmd, "cmd", "rdserver", "command to spawn as the server side")
	cmd.Flags().StringVar(&funcName, "call", "len", "dotted function name to evaluate remotely")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
