package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gerunddev/blockbridge/internal/config"
)

// runApp runs the CLI with a config file in a temp dir and returns stdout
func runApp(t *testing.T, stdinText string, args ...string) (string, error) {
	t.Helper()

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("workers: 2\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	originalStatePath := config.StateFilePath
	config.StateFilePath = func() string {
		return filepath.Join(tmpDir, "state.json")
	}
	t.Cleanup(func() {
		config.StateFilePath = originalStatePath
	})

	var out bytes.Buffer
	app := App("1.2.3")
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(stdinText)

	argv := append([]string{"blockbridge", "--config", cfgPath}, args...)
	err := app.Run(context.Background(), argv)
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runApp(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if out != "blockbridge v1.2.3\n" {
		t.Errorf("version output = %q", out)
	}
}

func TestMarkdownToBlocksCommand(t *testing.T) {
	out, err := runApp(t, "# Title\n\n- [ ] task\n", "m2b")
	if err != nil {
		t.Fatalf("m2b failed: %v", err)
	}
	for _, want := range []string{`"type": "heading_1"`, `"type": "to_do"`, `"checked": false`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

func TestMarkdownToBlocksLenientFlag(t *testing.T) {
	if _, err := runApp(t, "<div>x</div>", "m2b"); err == nil {
		t.Error("expected strict mode to reject an HTML block")
	}

	out, err := runApp(t, "<div>x</div>", "--lenient", "m2b")
	if err != nil {
		t.Fatalf("lenient m2b failed: %v", err)
	}
	if !strings.Contains(out, `"type": "paragraph"`) {
		t.Errorf("expected degraded paragraph:\n%s", out)
	}
}

func TestBlocksToMarkdownCommand(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "page.json")
	output := filepath.Join(tmpDir, "page.md")
	if err := os.WriteFile(input, []byte(`[{"type": "numbered_list_item", "richText": [{"text": "first"}]}]`), 0644); err != nil {
		t.Fatalf("Failed to write input: %v", err)
	}

	if _, err := runApp(t, "", "b2m", "-o", output, input); err != nil {
		t.Fatalf("b2m failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("Output not written: %v", err)
	}
	if string(data) != "1. first\n" {
		t.Errorf("output = %q, want %q", data, "1. first\n")
	}
}

func TestBlocksToMarkdownMalformed(t *testing.T) {
	_, err := runApp(t, `[{"type": "to_do"}]`, "b2m")
	if err == nil || !strings.Contains(err.Error(), "malformed block at /0") {
		t.Errorf("expected malformed block error, got %v", err)
	}
}

func TestCheckCommand(t *testing.T) {
	tmpDir := t.TempDir()
	clean := filepath.Join(tmpDir, "clean.md")
	dirty := filepath.Join(tmpDir, "dirty.md")
	if err := os.WriteFile(clean, []byte("# Title\n\nText\n"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := os.WriteFile(dirty, []byte("* star bullet\n"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	out, err := runApp(t, "", "check", clean)
	if err != nil {
		t.Fatalf("check failed on clean file: %v\n%s", err, out)
	}
	if !strings.Contains(out, "✓") {
		t.Errorf("expected success line, got: %s", out)
	}

	out, err = runApp(t, "", "check", "--plain", clean, dirty)
	if err == nil {
		t.Fatal("expected check to fail on dirty file")
	}
	if !strings.Contains(out, "✗") || !strings.Contains(out, "+- star bullet") {
		t.Errorf("expected failure line and diff, got: %s", out)
	}
}

func TestSyncCommand(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "note.md"), []byte("Hello"), 0644); err != nil {
		t.Fatalf("Failed to write note: %v", err)
	}

	out, err := runApp(t, "", "sync", "--dry-run", root)
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if !strings.Contains(out, "would write") {
		t.Errorf("expected dry-run listing, got: %s", out)
	}
	if _, err := os.Stat(filepath.Join(root, "note.json")); !os.IsNotExist(err) {
		t.Error("dry run should not write output")
	}

	out, err = runApp(t, "", "sync", root)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if !strings.Contains(out, "1 files converted") {
		t.Errorf("unexpected sync output: %s", out)
	}
	if _, err := os.Stat(filepath.Join(root, "note.json")); err != nil {
		t.Errorf("sync did not write output: %v", err)
	}
}

func TestSyncCommandBadDirection(t *testing.T) {
	_, err := runApp(t, "", "sync", "--direction", "sideways", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "unknown direction") {
		t.Errorf("expected direction error, got %v", err)
	}
}

func TestParseLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "blockbridge.log")
	content := strings.Join([]string{
		"2026-10-14 09:00:00 INFO conversion started root=/notes direction=markdown-to-blocks",
		"2026-10-14 09:00:01 INFO conversion completed files_converted=1 errors=0 duration=5ms",
		"2026-10-14 10:30:00 INFO conversion completed files_converted=7 errors=2 duration=40ms",
		"2026-10-14 10:30:01 DEBU file skipped file=/notes/a.md reason=unchanged",
	}, "\n") + "\n"
	if err := os.WriteFile(logPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write log: %v", err)
	}

	lines, last, err := ParseLogFile(logPath, 3)
	if err != nil {
		t.Fatalf("ParseLogFile failed: %v", err)
	}
	if len(lines) != 3 {
		t.Errorf("expected 3 recent lines, got %d", len(lines))
	}
	if last.FilesConverted != 7 || last.Errors != 2 {
		t.Errorf("unexpected last run: %+v", last)
	}
	if last.Time.Hour() != 10 || last.Time.Minute() != 30 {
		t.Errorf("unexpected last run time: %v", last.Time)
	}

	if _, _, err := ParseLogFile(filepath.Join(t.TempDir(), "missing.log"), 10); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestServiceFor(t *testing.T) {
	args := []string{"--direction", "blocks", "/notes"}

	tests := []struct {
		goos     string
		path     string
		contains []string
		wantErr  bool
	}{
		{
			goos:     "linux",
			path:     "/home/u/.config/systemd/user/blockbridge.service",
			contains: []string{"ExecStart=/usr/bin/blockbridge watch --direction blocks /notes"},
		},
		{
			goos:     "darwin",
			path:     "/home/u/Library/LaunchAgents/com.blockbridge.watch.plist",
			contains: []string{"<string>/usr/bin/blockbridge</string>", "<string>watch</string>", "<string>/notes</string>"},
		},
		{goos: "plan9", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			svc, err := serviceFor(tt.goos, "/home/u", "/usr/bin/blockbridge", args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("serviceFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if svc.Path != tt.path {
				t.Errorf("Path = %q, want %q", svc.Path, tt.path)
			}
			for _, want := range tt.contains {
				if !strings.Contains(svc.Content, want) {
					t.Errorf("service missing %q:\n%s", want, svc.Content)
				}
			}
		})
	}
}
