// Package connect implements the connect command.
package connect

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"spliceio/splice/cmd/shared"
	"spliceio/splice/pkg/client"
	"spliceio/splice/pkg/config"
	"spliceio/splice/pkg/log"
	"spliceio/splice/pkg/terminal"
)

const categoryConnect = "connect"

const hostFlag = "host"
const portFlag = "port"
const localFlag = "local"
const insecureFlag = "insecure"
const rawFlag = "raw"

// GetCommand returns the connect command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Connect to a remote host and pipe stdio over the connection",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sharedCfg, err := shared.ParseShared(cmd)
			if err != nil {
				return err
			}

			cfg := &config.Client{
				Shared:    sharedCfg,
				Host:      cmd.String(hostFlag),
				Port:      int(cmd.Int(portFlag)),
				LocalAddr: cmd.String(localFlag),
				Insecure:  cmd.Bool(insecureFlag),
			}
			if errs := cfg.Validate(); len(errs) > 0 {
				return shared.ReportValidationErrors(errs)
			}

			logger := log.NewLogger(cfg.Verbose)
			logger.InfoMsg("Connecting to %s\n", cfg.Addr())

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			shared.SetupSignalHandling(cancel)

			st, err := client.Connect(ctx, cfg)
			if err != nil {
				return fmt.Errorf("connecting: %w", err)
			}
			defer st.Close()

			if cmd.Bool(rawFlag) {
				return terminal.PipeRaw(ctx, st, logger)
			}
			terminal.Pipe(ctx, st, logger)
			return nil
		},
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     hostFlag,
				Usage:    "Remote host (name or IP)",
				Category: categoryConnect,
				Required: true,
			},
			&cli.IntFlag{
				Name:     portFlag,
				Aliases:  []string{"p"},
				Usage:    "Remote port",
				Category: categoryConnect,
				Required: true,
			},
			&cli.StringFlag{
				Name:     localFlag,
				Usage:    "Local address to bind the outgoing connection to",
				Category: categoryConnect,
				Value:    "",
			},
			&cli.BoolFlag{
				Name:     insecureFlag,
				Usage:    "Skip certificate validation (requires '--ssl')",
				Category: categoryConnect,
				Value:    false,
			},
			&cli.BoolFlag{
				Name:     rawFlag,
				Usage:    "Put the local terminal into raw mode while connected",
				Category: categoryConnect,
				Value:    false,
			},
		}, shared.GetFlags()...),
	}
}
