// Package engine owns the lifecycle of a single KataGo analysis subprocess:
// launching it, writing query lines to its stdin, turning its stdout into a
// channel of discrete lines, and reporting its exit exactly once.
package engine

import (
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// A LaunchError means the engine binary could not be started at all. It is
// fatal to the whole broker.
type LaunchError struct {
	Binary string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launching engine %q: %v", e.Binary, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// A WriteError means a query could not be delivered to the engine, usually
// because the process already exited. It affects only the request being
// written.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing to engine: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Engine is a handle to the running subprocess. The process is launched once;
// there is no restarting. Once it exits, the handle is dead.
type Engine struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan string
	exit   chan int
	exited atomic.Bool

	writeMu sync.Mutex
}

// Start launches the engine in analysis mode with the given model and config
// files. The process is considered running as soon as the spawn succeeds.
func Start(binary, modelPath, configPath string) (*Engine, error) {
	return startCmd(binary, "analysis", "-model", modelPath, "-config", configPath)
}

func startCmd(binary string, args ...string) (*Engine, error) {
	cmd := exec.Command(binary, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &LaunchError{Binary: binary, Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &LaunchError{Binary: binary, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &LaunchError{Binary: binary, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Binary: binary, Err: err}
	}
	log.Info().Str("binary", binary).Int("pid", cmd.Process.Pid).Msg("engine-started")

	e := &Engine{
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string),
		exit:  make(chan int, 1),
	}
	go e.run(stdout, stderr)
	return e, nil
}

// run pumps stdout and stderr until both close, then reaps the process and
// publishes its exit code. The lines channel closes before the exit code is
// delivered, so a consumer draining lines sees EOF first.
func (e *Engine) run(stdout, stderr io.Reader) {
	var g errgroup.Group
	g.Go(func() error {
		return pumpLines(stdout, e.lines)
	})
	g.Go(func() error {
		forwardStderr(stderr)
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Err(err).Msg("engine-stdout-read-error")
	}

	code := 0
	if err := e.cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			// -1 if the process was killed by a signal.
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}
	e.exited.Store(true)
	close(e.lines)
	e.exit <- code
	log.Info().Int("code", code).Msg("engine-exited")
}

// Write delivers one wire line to the engine's stdin, appending the line
// terminator. Writes are mutually exclusive; a line is never interleaved with
// another caller's.
func (e *Engine) Write(line string) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if e.exited.Load() {
		return &WriteError{Err: errProcessExited}
	}
	if _, err := io.WriteString(e.stdin, line+"\n"); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

// Lines is the channel of discrete stdout lines. It closes when the process's
// stdout closes.
func (e *Engine) Lines() <-chan string { return e.lines }

// Exit delivers the process's exit code exactly once, after Lines has closed.
func (e *Engine) Exit() <-chan int { return e.exit }

// Stop closes the engine's stdin. The analysis engine exits cleanly on EOF;
// the exit code then arrives on Exit.
func (e *Engine) Stop() error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	return e.stdin.Close()
}

// Kill forcibly terminates the process.
func (e *Engine) Kill() error {
	return e.cmd.Process.Kill()
}
