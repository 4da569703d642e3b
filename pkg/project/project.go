// Package project implements the save_project tool: it writes model-produced
// text to a file and reports the outcome as data.
package project

import (
	"context"
	"encoding/json"
	"io/fs"
	"log/slog"
	"os"

	"github.com/pmezard/go-difflib/difflib"
)

// ToolName is the name the model uses to save a file.
const ToolName = "save_project"

const newFileMode fs.FileMode = 0o644

// SaveResult is the outcome of a save. Exactly one of Filename or Err is set.
type SaveResult struct {
	Filename string
	Err      string
}

// Failed reports whether r is the error variant.
func (r SaveResult) Failed() bool { return r.Err != "" }

// MarshalJSON renders {"status":"success","filename"} or {"error"}.
func (r SaveResult) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{Error: r.Err})
	}

	return json.Marshal(struct {
		Status   string `json:"status"`
		Filename string `json:"filename"`
	}{Status: "success", Filename: r.Filename})
}

// Change describes a completed save.
type Change struct {
	Path    string
	Created bool
	// Diff is a unified diff against the previous contents. Empty for new
	// files and for identical rewrites.
	Diff string
}

// ChangeFunc is notified after every successful save. It must not block.
type ChangeFunc func(ctx context.Context, c Change)

// Option configures a Saver.
type Option func(*Saver)

// WithOnChange registers a change callback.
func WithOnChange(fn ChangeFunc) Option {
	return func(s *Saver) { s.onChange = fn }
}

// WithLogger sets the logger used for save traces.
func WithLogger(log *slog.Logger) Option {
	return func(s *Saver) { s.log = log }
}

// Saver writes files on behalf of the model. The filename is used as given:
// relative paths resolve against the process working directory, parent
// directories are never created and existing files are truncated.
type Saver struct {
	onChange ChangeFunc
	log      *slog.Logger
}

// NewSaver creates a Saver.
func NewSaver(opts ...Option) *Saver {
	s := &Saver{log: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Save writes content to filename verbatim. Failures are returned as the
// error variant of SaveResult.
func Save(content, filename string) SaveResult {
	return NewSaver().Save(context.Background(), content, filename)
}

// Save writes content to filename and notifies the change callback.
func (s *Saver) Save(ctx context.Context, content, filename string) SaveResult {
	mode := newFileMode
	var previous string

	info, statErr := os.Stat(filename)
	existed := statErr == nil
	if existed {
		mode = info.Mode().Perm()
		if data, err := os.ReadFile(filename); err == nil {
			previous = string(data)
		}
	}

	if err := os.WriteFile(filename, []byte(content), mode); err != nil {
		s.log.Debug("save failed", "filename", filename, "error", err)
		return SaveResult{Err: err.Error()}
	}

	s.log.Debug("saved", "filename", filename, "bytes", len(content), "created", !existed)

	if s.onChange != nil {
		c := Change{Path: filename, Created: !existed}
		if existed {
			c.Diff = computeDiff(filename, previous, content)
		}
		s.onChange(ctx, c)
	}

	return SaveResult{Filename: filename}
}

// computeDiff returns a unified diff between oldContent and newContent
// labeled with path, or "" when they are equal.
func computeDiff(path, oldContent, newContent string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: path,
		ToFile:   path,
		Context:  3,
	}

	result, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}

	return result
}
