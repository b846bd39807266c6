// Package terminal connects a stream to the local terminal.
package terminal

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"spliceio/splice/pkg/log"
	"spliceio/splice/pkg/pipeio"
)

// Pipe splices the stream with the process's standard streams until either
// side ends or ctx is canceled.
func Pipe(ctx context.Context, rwc io.ReadWriteCloser, logger *log.Logger) {
	pipeio.Pipe(ctx, pipeio.NewStdio(), rwc, func(err error) {
		logger.VerboseMsg("Pipe(stdio, stream): %s\n", err)
	})
}

// PipeRaw is Pipe with the local terminal in raw mode, so control characters
// travel over the stream instead of being interpreted locally. The previous
// terminal state is restored before returning.
func PipeRaw(ctx context.Context, rwc io.ReadWriteCloser, logger *log.Logger) error {
	fd := int(os.Stdin.Fd())

	logger.VerboseMsg("Enabling raw mode\n")
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("setting terminal to raw mode: %w", err)
	}

	defer func() {
		logger.VerboseMsg("Disabling raw mode\n")
		term.Restore(fd, oldState)
		fmt.Printf("\033[2K\r") // clear line
	}()

	Pipe(ctx, rwc, logger)
	return nil
}
