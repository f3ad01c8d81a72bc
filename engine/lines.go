package engine

import (
	"bufio"
	"errors"
	"io"

	"github.com/rs/zerolog/log"
)

var errProcessExited = errors.New("engine process has exited")

// Responses with ownership or policy data enabled run to many megabytes on a
// 19x19 board.
const maxLineBytes = 32 * 1024 * 1024

// pumpLines splits r into complete lines and sends each on out. It returns
// when r reaches EOF (process exit) or on a read error. It does not close
// out; the caller owns the channel.
func pumpLines(r io.Reader, out chan<- string) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		out <- scanner.Text()
	}
	return scanner.Err()
}

// forwardStderr relays the engine's stderr to our own diagnostic output. The
// engine prints its startup banner and GPU/model information there; none of
// it is protocol traffic.
func forwardStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		log.Warn().Str("src", "katago-stderr").Msg(scanner.Text())
	}
}
