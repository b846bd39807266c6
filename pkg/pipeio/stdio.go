package pipeio

import (
	"os"

	"github.com/muesli/cancelreader"
)

// Stdio exposes the process's standard streams as a ReadWriteCloser. Where
// the platform supports it, stdin reads are cancelable so a Close from the
// other pipe direction unblocks a pending read.
type Stdio struct {
	stdin           *os.File
	cancelableStdin cancelreader.CancelReader
	stdout          *os.File
}

// NewStdio wraps os.Stdin and os.Stdout, with cancelable stdin reading when
// the platform supports it.
func NewStdio() *Stdio {
	out := Stdio{
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}

	cr, err := cancelreader.NewReader(os.Stdin)
	if err != nil {
		return &out
	}

	out.cancelableStdin = cr
	return &out
}

func (s *Stdio) Read(p []byte) (int, error) {
	if s.cancelableStdin != nil {
		return s.cancelableStdin.Read(p)
	}
	return s.stdin.Read(p)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.stdout.Write(p)
}

// Close cancels a pending stdin read if the reader supports it. The
// underlying standard streams stay open.
func (s *Stdio) Close() error {
	if s.cancelableStdin != nil {
		s.cancelableStdin.Cancel()
	}
	return nil
}
