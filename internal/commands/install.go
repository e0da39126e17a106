package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/gerunddev/blockbridge/internal/styles"
	"github.com/gerunddev/blockbridge/internal/sync"
)

const (
	launchdLabel   = "com.blockbridge.watch"
	systemdService = "blockbridge.service"
)

// service is a generated user service definition
type service struct {
	Path    string
	Content string
	Enable  []string
	Disable [][]string
}

// serviceFor builds the service that runs "watch" in the background on goos
func serviceFor(goos, home, executable string, watchArgs []string) (*service, error) {
	switch goos {
	case "darwin":
		var args strings.Builder
		for _, a := range append([]string{executable, "watch"}, watchArgs...) {
			fmt.Fprintf(&args, "\t\t<string>%s</string>\n", a)
		}
		path := filepath.Join(home, "Library", "LaunchAgents", launchdLabel+".plist")
		content := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
%s	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>StandardErrorPath</key>
	<string>/tmp/blockbridge.err.log</string>
</dict>
</plist>
`, launchdLabel, args.String())
		return &service{
			Path:    path,
			Content: content,
			Enable:  []string{"launchctl load " + path},
			Disable: [][]string{{"launchctl", "unload", path}},
		}, nil

	case "linux":
		path := filepath.Join(home, ".config", "systemd", "user", systemdService)
		content := fmt.Sprintf(`[Unit]
Description=blockbridge - convert Markdown and block documents on change

[Service]
Type=simple
ExecStart=%s watch %s
Restart=always
RestartSec=10

[Install]
WantedBy=default.target
`, executable, strings.Join(watchArgs, " "))
		return &service{
			Path:    path,
			Content: content,
			Enable: []string{
				"systemctl --user daemon-reload",
				"systemctl --user enable --now " + systemdService,
			},
			Disable: [][]string{
				{"systemctl", "--user", "stop", systemdService},
				{"systemctl", "--user", "disable", systemdService},
			},
		}, nil
	}

	return nil, fmt.Errorf("unsupported operating system: %s (supported: darwin, linux)", goos)
}

func installCommand() *cli.Command {
	return &cli.Command{
		Name:      "install",
		Usage:     "Generate a user service that runs watch on a directory",
		ArgsUsage: "DIR",
		Flags:     []cli.Flag{directionFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				return fmt.Errorf("no directory specified")
			}
			dir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			if _, err := sync.ParseDirection(cmd.String("direction")); err != nil {
				return err
			}

			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}
			executable, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed to get executable path: %w", err)
			}

			svc, err := serviceFor(runtime.GOOS, home, executable, []string{"--direction", cmd.String("direction"), dir})
			if err != nil {
				return err
			}

			if err := os.MkdirAll(filepath.Dir(svc.Path), 0755); err != nil {
				return fmt.Errorf("failed to create service directory: %w", err)
			}
			if err := os.WriteFile(svc.Path, []byte(svc.Content), 0644); err != nil {
				return fmt.Errorf("failed to write service file: %w", err)
			}

			w := stdout(cmd)
			fmt.Fprintln(w, styles.Success("Service file created: %s", svc.Path))
			fmt.Fprintln(w, "To enable the service:")
			for _, line := range svc.Enable {
				fmt.Fprintln(w, styles.Dim("%s", line))
			}
			return nil
		},
	}
}

func uninstallCommand() *cli.Command {
	return &cli.Command{
		Name:  "uninstall",
		Usage: "Stop and remove the generated user service",
		Action: func(_ context.Context, cmd *cli.Command) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}

			svc, err := serviceFor(runtime.GOOS, home, "", nil)
			if err != nil {
				return err
			}

			w := stdout(cmd)
			if _, err := os.Stat(svc.Path); os.IsNotExist(err) {
				fmt.Fprintln(w, styles.Warning("Service file not found: %s", svc.Path))
				return nil
			}

			for _, argv := range svc.Disable {
				if err := exec.Command(argv[0], argv[1:]...).Run(); err != nil {
					fmt.Fprintln(w, styles.Warning("%s: %v", strings.Join(argv, " "), err))
				}
			}

			if err := os.Remove(svc.Path); err != nil {
				return fmt.Errorf("failed to remove service file: %w", err)
			}
			fmt.Fprintln(w, styles.Success("Service file removed: %s", svc.Path))
			return nil
		},
	}
}
