// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command rdserver runs the server side of a pipe session on stdin/stdout,
// the role rdiff-backup's own server process plays when invoked over ssh
// or as a local subprocess: it imports the curated name registry, then
// blocks serving requests until the client sends a quit frame.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rdiffbackup-go/transport/logging"
	"github.com/rdiffbackup-go/transport/peer"
	"github.com/rdiffbackup-go/transport/resolver"
	"github.com/rdiffbackup-go/transport/security"
	"github.com/rdiffbackup-go/transport/session"
)

func main() {
	var verbosity int

	cmd := &cobra.Command{
		Use:   "rdserver",
		Short: "Serve remote-execution requests over stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbosity != 0 {
				os.Setenv(logging.EnvVerbosity, fmt.Sprintf("%d", verbosity))
			}
			log := logging.New()
			log.Log("starting server", logging.Info)

			sess := session.New(resolver.Builtins())
			peer.RegisterEndpoints(sess, log)

			p := peer.NewPipePeer(session.LocalConnNumber, os.Stdin, os.Stdout, sess, security.AllowAll{}, security.ClassServer, nil, log)
			return p.Serve(context.Background())
		},
	}
	cmd.Flags().IntVar(&verbosity, "verbosity", 0, "log verbosity (1=error .. 8=debug); 0 keeps the process default")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
