package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	cmd := &cli.Command{
		Name:  "javaflow",
		Usage: "Workflow lifecycle and execution orchestration service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   defaultConfigPath,
				Sources: cli.EnvVars("JAVAFLOW_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			genKeyCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "javaflow: %v\n", err)
		os.Exit(1)
	}
}
