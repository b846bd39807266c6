// Package listen implements the listen command.
package listen

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"spliceio/splice/cmd/shared"
	"spliceio/splice/pkg/config"
	"spliceio/splice/pkg/log"
	"spliceio/splice/pkg/server"
	"spliceio/splice/pkg/stream"
	"spliceio/splice/pkg/terminal"
)

const categoryListen = "listen"

const hostFlag = "host"
const portFlag = "port"
const maxConnsFlag = "max-conns"

// GetCommand returns the listen command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "Listen for connections and pipe stdio over each one",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sharedCfg, err := shared.ParseShared(cmd)
			if err != nil {
				return err
			}

			cfg := &config.Server{
				Shared:         sharedCfg,
				Host:           cmd.String(hostFlag),
				Port:           int(cmd.Int(portFlag)),
				MaxConnections: int(cmd.Int(maxConnsFlag)),
			}
			if errs := cfg.Validate(); len(errs) > 0 {
				return shared.ReportValidationErrors(errs)
			}

			logger := log.NewLogger(cfg.Verbose)

			srv, err := server.New(cfg)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}

			logger.InfoMsg("Listening on %s\n", srv.Addr())

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			shared.SetupSignalHandling(cancel)

			go func() {
				<-ctx.Done()
				srv.Close()
			}()

			return srv.Serve(func(st *stream.Stream, md *stream.Metadata) {
				terminal.Pipe(ctx, st, logger)
			})
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     hostFlag,
				Usage:    "Local address to bind, empty for all interfaces",
				Category: categoryListen,
				Value:    "",
			},
			&cli.IntFlag{
				Name:     portFlag,
				Aliases:  []string{"p"},
				Usage:    "Local port, 0 for an ephemeral one",
				Category: categoryListen,
				Value:    0,
			},
			&cli.IntFlag{
				Name:     maxConnsFlag,
				Usage:    "Limit of concurrently served connections, 0 for no limit",
				Category: categoryListen,
				Value:    0,
			},
		}, shared.GetFlags()...),
	}
}
