package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	gosync "sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gerunddev/blockbridge/internal/block"
	"github.com/gerunddev/blockbridge/internal/convert"
	"github.com/gerunddev/blockbridge/internal/logger"
	"github.com/gerunddev/blockbridge/internal/state"
)

// Direction selects which way files are converted
type Direction int

const (
	// ToBlocks converts .md files to .json block files
	ToBlocks Direction = iota
	// ToMarkdown converts .json block files to .md files
	ToMarkdown
)

// String returns the direction name used in logs
func (d Direction) String() string {
	if d == ToMarkdown {
		return "blocks-to-markdown"
	}
	return "markdown-to-blocks"
}

// SourceExt returns the extension of files read in this direction
func (d Direction) SourceExt() string {
	if d == ToMarkdown {
		return ".json"
	}
	return ".md"
}

// TargetExt returns the extension of files written in this direction
func (d Direction) TargetExt() string {
	if d == ToMarkdown {
		return ".md"
	}
	return ".json"
}

// ParseDirection maps a flag value to a Direction
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", "blocks", "m2b", "md2blocks":
		return ToBlocks, nil
	case "markdown", "b2m", "blocks2md":
		return ToMarkdown, nil
	}
	return ToBlocks, fmt.Errorf("unknown direction %q (want blocks or markdown)", s)
}

// Syncer converts every changed source file under a root
type Syncer struct {
	conv      *convert.Converter
	state     *state.State
	log       *logger.Logger
	direction Direction
	workers   int
	dryRun    bool
}

// Option configures a Syncer
type Option func(*Syncer)

// WithWorkers bounds the number of files converted at once
func WithWorkers(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithDryRun reports what would be converted without writing anything
func WithDryRun(dryRun bool) Option {
	return func(s *Syncer) {
		s.dryRun = dryRun
	}
}

// WithLogger sets the logger for conversion events
func WithLogger(l *logger.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSyncer creates a new syncer instance
func NewSyncer(conv *convert.Converter, st *state.State, direction Direction, opts ...Option) *Syncer {
	s := &Syncer{
		conv:      conv,
		state:     st,
		log:       logger.Discard(),
		direction: direction,
		workers:   4,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.state == nil {
		s.state = state.NewState()
	}
	return s
}

// Result represents the result of a sync operation
type Result struct {
	FilesProcessed int
	Skipped        int
	Written        []string
	Errors         []error
	StartTime      time.Time
	EndTime        time.Time
}

// Sync converts all changed source files under root. Per-file failures are
// collected in the result; the returned error is reserved for walk and
// cancellation failures.
func (s *Syncer) Sync(ctx context.Context, root string) (*Result, error) {
	result := &Result{
		StartTime: time.Now(),
	}
	s.log.ConversionStarted(root, s.direction.String())

	files, err := ScanDirectory(root, s.direction.SourceExt())
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	var mu gosync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, file := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			changed, err := s.state.HasChanged(file)
			if err != nil {
				s.log.StateError("check", err)
				changed = true
			}
			if !changed {
				s.log.Skipped(file, "unchanged")
				mu.Lock()
				result.Skipped++
				mu.Unlock()
				return nil
			}

			dest, err := s.ConvertFile(file)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.ConversionFailed(file, err)
				result.Errors = append(result.Errors, fmt.Errorf("%s: %w", file, err))
				return nil
			}
			result.FilesProcessed++
			result.Written = append(result.Written, dest)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, removed := range s.state.Prune() {
		s.log.Skipped(removed, "source removed")
	}

	result.EndTime = time.Now()
	s.log.ConversionCompleted(result.FilesProcessed, len(result.Errors), result.EndTime.Sub(result.StartTime))
	return result, nil
}

// ConvertFile converts a single source file and writes its sibling target
// file. It returns the target path. In dry-run mode nothing is written and
// the state is left untouched.
func (s *Syncer) ConvertFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read source: %w", err)
	}

	dest := TargetPath(path, s.direction)

	var out []byte
	var count int
	switch s.direction {
	case ToMarkdown:
		blocks, err := block.Decode(data)
		if err != nil {
			return "", err
		}
		md, err := s.conv.BlocksToMarkdown(blocks)
		if err != nil {
			return "", err
		}
		out = []byte(md + "\n")
		count = len(blocks)
	default:
		blocks, err := s.conv.MarkdownToBlocks(string(data))
		if err != nil {
			return "", err
		}
		out, err = block.Encode(blocks)
		if err != nil {
			return "", err
		}
		out = append(out, '\n')
		count = len(blocks)
	}

	if s.dryRun {
		s.log.Skipped(path, "dry run")
		return dest, nil
	}

	if err := os.WriteFile(dest, out, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := s.state.Update(path, dest); err != nil {
		s.log.StateError("update", err)
	}
	s.log.FileWritten(path, dest, count)
	return dest, nil
}

// TargetPath returns the path a source file converts to
func TargetPath(path string, direction Direction) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + direction.TargetExt()
}

// ScanDirectory scans a directory for files with given extension.
// Hidden directories are skipped.
func ScanDirectory(dir string, ext string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != dir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) == ext {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// String returns a human-readable summary of the sync result
func (r *Result) String() string {
	duration := r.EndTime.Sub(r.StartTime)
	return fmt.Sprintf(
		"Sync complete: %d files converted, %d unchanged, %d errors (took %v)",
		r.FilesProcessed,
		r.Skipped,
		len(r.Errors),
		duration.Round(time.Millisecond),
	)
}
