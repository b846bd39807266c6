// Package shared provides the flag definitions and parsing helpers used by
// all commands.
package shared

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"spliceio/splice/pkg/config"
	"spliceio/splice/pkg/log"
)

const categoryCommon = "common"

// ProtocolFlag is the name of the flag selecting the transport protocol.
const ProtocolFlag = "protocol"

// SSLFlag is the name of the flag to enable TLS encryption.
const SSLFlag = "ssl"

// KeyFlag is the name of the flag to specify the mTLS authentication key.
const KeyFlag = "key"

// VerboseFlag is the name of the flag to enable verbose logging.
const VerboseFlag = "verbose"

// TimeoutFlag is the name of the flag to specify the connect timeout.
const TimeoutFlag = "timeout"

// LogFileFlag is the name of the flag to specify a traffic log file.
const LogFileFlag = "log"

// QueueLimitFlag is the name of the flag bounding per-connection inbound
// buffering.
const QueueLimitFlag = "queue-limit"

// GetFlags returns the flags common to connect and listen.
func GetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     ProtocolFlag,
			Aliases:  []string{"P"},
			Usage:    "Transport protocol: tcp|ws|wss|kcp|mux",
			Category: categoryCommon,
			Value:    "tcp",
		},
		&cli.BoolFlag{
			Name:     SSLFlag,
			Aliases:  []string{"s"},
			Usage:    "Use TLS encryption",
			Category: categoryCommon,
			Value:    false,
		},
		&cli.StringFlag{
			Name:     KeyFlag,
			Aliases:  []string{"k"},
			Usage:    "Key for mTLS authentication, leave empty to disable authentication",
			Category: categoryCommon,
			Value:    "",
		},
		&cli.BoolFlag{
			Name:     VerboseFlag,
			Aliases:  []string{"v"},
			Usage:    "Verbose logging",
			Category: categoryCommon,
			Value:    false,
		},
		&cli.DurationFlag{
			Name:     TimeoutFlag,
			Aliases:  []string{"t"},
			Usage:    "Connect timeout (TLS handshake included)",
			Category: categoryCommon,
			Value:    10 * time.Second,
		},
		&cli.StringFlag{
			Name:     LogFileFlag,
			Aliases:  []string{"l"},
			Usage:    "Log all traffic to this file",
			Category: categoryCommon,
			Value:    "",
		},
		&cli.IntFlag{
			Name:     QueueLimitFlag,
			Usage:    "Per-connection inbound buffer limit in bytes, 0 for the default",
			Category: categoryCommon,
			Value:    0,
		},
	}
}

// ParseShared builds the shared config section from parsed flags.
func ParseShared(cmd *cli.Command) (config.Shared, error) {
	proto, err := config.ParseProtocol(cmd.String(ProtocolFlag))
	if err != nil {
		return config.Shared{}, fmt.Errorf("parsing '--%s': %w", ProtocolFlag, err)
	}

	return config.Shared{
		Protocol:   proto,
		SSL:        cmd.Bool(SSLFlag),
		Key:        cmd.String(KeyFlag),
		QueueLimit: int(cmd.Int(QueueLimitFlag)),
		Timeout:    cmd.Duration(TimeoutFlag),
		LogFile:    cmd.String(LogFileFlag),
		Verbose:    cmd.Bool(VerboseFlag),
	}, nil
}

// ReportValidationErrors logs each validation error and returns a terminal
// error for the CLI to exit with.
func ReportValidationErrors(errs []error) error {
	log.ErrorMsg("Argument validation errors:\n")
	for _, err := range errs {
		log.ErrorMsg(" - %s\n", err)
	}
	return fmt.Errorf("exiting")
}
