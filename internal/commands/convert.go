package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
)

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write the result to `FILE` instead of stdout",
	}
}

func markdownToBlocksCommand() *cli.Command {
	return &cli.Command{
		Name:      "m2b",
		Aliases:   []string{"md-to-blocks"},
		Usage:     "Convert Markdown to JSON blocks",
		ArgsUsage: "[FILE]",
		Flags:     []cli.Flag{outputFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			input, err := readInput(cmd)
			if err != nil {
				return err
			}

			data, err := cfg.Converter().MarkdownToJSON(string(input))
			if err != nil {
				return err
			}
			return writeOutput(cmd, string(data))
		},
	}
}

func blocksToMarkdownCommand() *cli.Command {
	return &cli.Command{
		Name:      "b2m",
		Aliases:   []string{"blocks-to-md"},
		Usage:     "Convert JSON blocks to Markdown",
		ArgsUsage: "[FILE]",
		Flags: []cli.Flag{
			outputFlag(),
			&cli.BoolFlag{
				Name:  "preview",
				Usage: "Render the Markdown for the terminal",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			input, err := readInput(cmd)
			if err != nil {
				return err
			}

			md, err := cfg.Converter().JSONToMarkdown(input)
			if err != nil {
				return err
			}

			if cmd.Bool("preview") {
				md = preview(md)
			}
			return writeOutput(cmd, md)
		},
	}
}

// readInput reads the file argument, or stdin when it is missing or "-"
func readInput(cmd *cli.Command) ([]byte, error) {
	path := cmd.Args().First()
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin(cmd))
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}

func writeOutput(cmd *cli.Command, content string) error {
	if path := cmd.String("output"); path != "" {
		if err := os.WriteFile(path, []byte(content+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	_, err := fmt.Fprintln(stdout(cmd), content)
	return err
}

// preview renders markdown with glamour, returning it unchanged on failure
func preview(md string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}

	rendered, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return rendered
}
