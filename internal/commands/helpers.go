package commands

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// LastRun describes the most recent batch conversion found in a log file
type LastRun struct {
	Time           time.Time
	FilesConverted int
	Errors         int
}

// ParseLogFile reads the last maxLines lines of the log file and extracts
// the most recent "conversion completed" entry.
func ParseLogFile(logPath string, maxLines int) ([]string, LastRun, error) {
	content, err := os.ReadFile(logPath)
	if err != nil {
		return nil, LastRun{}, err
	}

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")

	startIdx := 0
	if len(lines) > maxLines {
		startIdx = len(lines) - maxLines
	}
	recentLines := lines[startIdx:]

	var last LastRun
	for i := len(recentLines) - 1; i >= 0; i-- {
		line := recentLines[i]
		if !strings.Contains(line, "conversion completed") {
			continue
		}

		// Format: 2026-10-14 14:11:57 INFO conversion completed files_converted=3 errors=0
		if len(line) >= len(time.DateTime) {
			if t, err := time.ParseInLocation(time.DateTime, line[:len(time.DateTime)], time.Local); err == nil {
				last.Time = t
			}
		}
		if idx := strings.Index(line, "files_converted="); idx != -1 {
			_, _ = fmt.Sscanf(line[idx:], "files_converted=%d", &last.FilesConverted) //nolint:errcheck // best effort parsing
		}
		if idx := strings.Index(line, " errors="); idx != -1 {
			_, _ = fmt.Sscanf(line[idx+1:], "errors=%d", &last.Errors) //nolint:errcheck // best effort parsing
		}
		break
	}

	return recentLines, last, nil
}
