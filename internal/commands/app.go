package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/gerunddev/blockbridge/internal/config"
	"github.com/gerunddev/blockbridge/internal/logger"
)

// App builds the blockbridge command tree
func App(version string) *cli.Command {
	return &cli.Command{
		Name:    "blockbridge",
		Usage:   "Convert between Markdown and block-structured JSON documents",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: config.ConfigPath(),
				Sources:     cli.EnvVars("BLOCKBRIDGE_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "lenient",
				Usage: "Degrade unsupported Markdown to plain paragraphs instead of failing",
			},
		},
		Commands: []*cli.Command{
			markdownToBlocksCommand(),
			blocksToMarkdownCommand(),
			checkCommand(),
			syncCommand(),
			watchCommand(),
			serveCommand(),
			statusCommand(),
			installCommand(),
			uninstallCommand(),
			versionCommand(version),
		},
	}
}

func versionCommand(version string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(_ context.Context, cmd *cli.Command) error {
			fmt.Fprintf(stdout(cmd), "blockbridge v%s\n", version)
			return nil
		},
	}
}

// loadConfig reads the config named by --config, or the XDG default,
// and applies flag overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := cmd.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.IsSet("lenient") {
		cfg.Lenient = cmd.Bool("lenient")
	}
	return cfg, nil
}

// newLogger logs to the configured file, or to stderr when none is set.
// Stdout is reserved for command output.
func newLogger(cfg *config.Config) (*logger.Logger, func(), error) {
	if cfg.LogFile != "" {
		l, cleanup, err := logger.NewFileLogger(cfg.LogFile, cfg.Level())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return l, cleanup, nil
	}
	return logger.NewWithLevel(os.Stderr, cfg.Level()), func() {}, nil
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stdin(cmd *cli.Command) io.Reader {
	if r := cmd.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}
