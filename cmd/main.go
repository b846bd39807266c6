package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"spliceio/splice/cmd/connect"
	"spliceio/splice/cmd/listen"
	"spliceio/splice/cmd/version"
	"spliceio/splice/pkg/log"
)

func main() {
	cmd := &cli.Command{
		Name:  "splice",
		Usage: "pipe stdio over tcp, websocket or kcp connections",
		Commands: []*cli.Command{
			connect.GetCommand(),
			listen.GetCommand(),
			version.GetCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.ErrorMsg("%s\n", err)
		os.Exit(1)
	}
}
