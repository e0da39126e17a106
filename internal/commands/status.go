package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/gerunddev/blockbridge/internal/config"
	"github.com/gerunddev/blockbridge/internal/state"
	"github.com/gerunddev/blockbridge/internal/styles"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show tracked files and the last batch conversion",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "files",
				Usage: "List every tracked file",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			st, err := state.Load(config.StateFilePath())
			if err != nil {
				return fmt.Errorf("failed to load state: %w", err)
			}

			w := stdout(cmd)
			fmt.Fprintln(w, styles.TitleStyle.Render("blockbridge status"))
			fmt.Fprintln(w, styles.Dim("config: %s", config.ConfigPath()))
			fmt.Fprintln(w, styles.Dim("state:  %s", config.StateFilePath()))

			paths := st.Paths()
			stale := 0
			for _, path := range paths {
				changed, err := st.HasChanged(path)
				if err != nil || changed {
					stale++
				}
				if cmd.Bool("files") {
					line := styles.Success("%s -> %s", path, st.Files[path].Output)
					if err != nil || changed {
						line = styles.Warning("%s (changed since %s)", path, st.GetMTime(path).Format(time.DateTime))
					}
					fmt.Fprintln(w, line)
				}
			}
			fmt.Fprintln(w, styles.InfoStyle.Render(fmt.Sprintf("%d tracked files, %d need conversion", len(paths), stale)))

			if cfg.LogFile == "" {
				return nil
			}
			_, last, err := ParseLogFile(cfg.LogFile, 200)
			switch {
			case os.IsNotExist(err):
				fmt.Fprintln(w, styles.Dim("no conversions logged yet"))
			case err != nil:
				return fmt.Errorf("failed to read log file: %w", err)
			case last.Time.IsZero():
				fmt.Fprintln(w, styles.Dim("no conversions logged yet"))
			default:
				fmt.Fprintln(w, styles.Dim("last run: %s, %d files converted, %d errors",
					last.Time.Format(time.DateTime), last.FilesConverted, last.Errors))
			}
			return nil
		},
	}
}
