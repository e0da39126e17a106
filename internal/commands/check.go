package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/gerunddev/blockbridge/internal/diff"
	"github.com/gerunddev/blockbridge/internal/styles"
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Verify that files survive a round trip unchanged",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Print the raw unified diff without terminal styling",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				return fmt.Errorf("no input files specified")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			conv := cfg.Converter()
			w := stdout(cmd)

			failed := 0
			for _, path := range files {
				report, err := diff.File(conv, path)
				if err != nil {
					failed++
					fmt.Fprintln(w, styles.Failure("%s: %v", path, err))
					continue
				}

				if report.Clean() {
					fmt.Fprintln(w, styles.Success("%s (%d blocks)", path, report.Blocks))
					continue
				}

				failed++
				fmt.Fprintln(w, styles.Failure("%s changes on round trip", path))
				if cmd.Bool("plain") {
					fmt.Fprint(w, report.Unified())
				} else {
					fmt.Fprint(w, diff.Render(report.Unified()))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files did not round-trip cleanly", failed, len(files))
			}
			return nil
		},
	}
}
