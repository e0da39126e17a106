package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/gerunddev/blockbridge/internal/config"
	"github.com/gerunddev/blockbridge/internal/logger"
	"github.com/gerunddev/blockbridge/internal/state"
	"github.com/gerunddev/blockbridge/internal/styles"
	"github.com/gerunddev/blockbridge/internal/sync"
)

func directionFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "direction",
		Aliases: []string{"d"},
		Usage:   "Conversion direction: blocks (.md to .json) or markdown (.json to .md)",
		Value:   "blocks",
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Convert every changed file under a directory",
		ArgsUsage: "[DIR]",
		Flags: []cli.Flag{
			directionFlag(),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Show what would be converted without writing files",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := newSyncEnv(cmd, cmd.Bool("dry-run"))
			if err != nil {
				return err
			}
			defer env.cleanup()

			w := stdout(cmd)
			result, err := env.syncer.Sync(ctx, env.root)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			for _, e := range result.Errors {
				fmt.Fprintln(w, styles.Failure("%v", e))
			}

			if env.dryRun {
				for _, dest := range result.Written {
					fmt.Fprintln(w, styles.Dim("would write %s", dest))
				}
				fmt.Fprintln(w, styles.Warning("Dry run: %s", result))
				return nil
			}

			if err := env.state.Save(config.StateFilePath()); err != nil {
				env.log.StateError("save", err)
				return fmt.Errorf("failed to save state: %w", err)
			}

			if len(result.Errors) > 0 {
				fmt.Fprintln(w, styles.Warning("%s", result))
				return fmt.Errorf("%d files failed to convert", len(result.Errors))
			}
			fmt.Fprintln(w, styles.Success("%s", result))
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Convert files under a directory whenever they change",
		ArgsUsage: "[DIR]",
		Flags: []cli.Flag{
			directionFlag(),
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Wait this long for writes to settle before converting",
				Value: sync.DefaultDebounce,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := newSyncEnv(cmd, false)
			if err != nil {
				return err
			}
			defer env.cleanup()

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := stdout(cmd)
			result, err := env.syncer.Sync(ctx, env.root)
			if err != nil {
				return fmt.Errorf("initial sync failed: %w", err)
			}
			fmt.Fprintln(w, styles.Success("%s", result))
			fmt.Fprintln(w, styles.Dim("watching %s (Ctrl+C to stop)", env.root))

			err = env.syncer.Watch(ctx, env.root, cmd.Duration("debounce"), func(source, dest string, err error) {
				if err != nil {
					fmt.Fprintln(w, styles.Failure("%s: %v", source, err))
					return
				}
				fmt.Fprintln(w, styles.Success("%s -> %s", source, dest))
				if saveErr := env.state.Save(config.StateFilePath()); saveErr != nil {
					env.log.StateError("save", saveErr)
				}
			})

			if saveErr := env.state.Save(config.StateFilePath()); saveErr != nil {
				env.log.StateError("save", saveErr)
			}
			return err
		},
	}
}

// syncEnv holds what the sync and watch commands share
type syncEnv struct {
	root    string
	dryRun  bool
	state   *state.State
	log     *logger.Logger
	syncer  *sync.Syncer
	cleanup func()
}

func newSyncEnv(cmd *cli.Command, dryRun bool) (*syncEnv, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	direction, err := sync.ParseDirection(cmd.String("direction"))
	if err != nil {
		return nil, err
	}

	root := cmd.Args().First()
	if root == "" {
		root = "."
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	st, err := state.Load(config.StateFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	log, cleanup, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	syncer := sync.NewSyncer(cfg.Converter(), st, direction,
		sync.WithWorkers(cfg.Workers),
		sync.WithDryRun(dryRun),
		sync.WithLogger(log))

	return &syncEnv{
		root:    root,
		dryRun:  dryRun,
		state:   st,
		log:     log,
		syncer:  syncer,
		cleanup: cleanup,
	}, nil
}
