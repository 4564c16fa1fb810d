// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lifecycle tears down a pipe peer's child process in the same
// escalating sequence connection.py's PipeConnection._close uses: wait a
// while, terminate and wait a little more, then kill outright. Doing this
// after the quit frame is exchanged and the pipes are closed avoids the
// race where output written by a command that runs after the server
// process exits gets lost — the same reasoning the source gives for
// bothering with a bounded wait at all, rather than just killing eagerly.
package lifecycle

import (
	"log"
	"os"
	"time"
)

// ReapOptions bounds how long Reap waits at each escalation step.
type ReapOptions struct {
	Wait           time.Duration
	AfterTerminate time.Duration
	AfterKill      time.Duration
}

// DefaultReapOptions mirrors the source's wait(timeout=5), then a second of
// grace after terminate, then a second after kill.
var DefaultReapOptions = ReapOptions{
	Wait:           5 * time.Second,
	AfterTerminate: time.Second,
	AfterKill:      time.Second,
}

// Reap waits for proc to exit, escalating through Signal(Terminate) and
// Kill if it doesn't within the configured windows. It never returns an
// error for a process that exits during any stage; it only reports a
// problem signaling or killing the process outright.
//
// proc.Wait() is started exactly once, in a single goroutine shared across
// every escalation step; each step just waits on the same done channel with
// its own budget. Calling proc.Wait() more than once concurrently is
// unsafe (the two calls race for the same exit status), so the escalation
// steps must not each spawn their own waiter.
func Reap(proc *os.Process, opts ReapOptions) error {
	if proc == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		_, _ = proc.Wait()
		close(done)
	}()

	if waitFor(done, opts.Wait) {
		return nil
	}

	log.Printf("warning: process %d did not exit within %v, terminating", proc.Pid, opts.Wait)
	terminate(proc)
	if waitFor(done, opts.AfterTerminate) {
		return nil
	}

	log.Printf("warning: process %d still running after terminate, killing", proc.Pid)
	if err := proc.Kill(); err != nil {
		return err
	}
	waitFor(done, opts.AfterKill)
	return nil
}

// terminate sends the platform's graceful-shutdown signal. os.Process does
// not expose a portable "terminate" distinct from Kill outside package
// syscall, so this reuses Signal with os.Interrupt, staying on the portable
// os.Process surface rather than reaching for syscall-specific signal
// numbers.
func terminate(proc *os.Process) {
	_ = proc.Signal(os.Interrupt)
}

// waitFor reports whether done closes (proc has exited) within budget.
// os.Process.Wait has no context-aware variant and must only ever be
// called once per process, so every escalation step in Reap shares the
// single done channel from the one goroutine that actually calls Wait,
// rather than starting a fresh waiter per step.
func waitFor(done <-chan struct{}, budget time.Duration) bool {
	if budget <= 0 {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
	select {
	case <-done:
		return true
	case <-time.After(budget):
		return false
	}
}
