package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/gerunddev/blockbridge/internal/mcpserver"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the conversion tools over MCP on stdin/stdout",
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			log, cleanup, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			log.Info("tool server starting", "transport", "stdio")
			srv := mcpserver.New(cfg.Converter(), log, cmd.Root().Version)
			return srv.ServeStdio()
		},
	}
}
