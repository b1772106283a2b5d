// Package errsink writes the single last-error file (subsyncit.err) the
// engine overwrites whenever a permanent or transient error is worth
// surfacing to a human outside the log stream.
package errsink

import (
	"os"
	"path/filepath"

	"github.com/subsyncit/subsyncit/internal/utils"
)

const fileName = "subsyncit.err"

// Sink writes to a single subsyncit.err file under dir.
type Sink struct {
	path string
}

// New returns a Sink writing to dir/subsyncit.err.
func New(dir string) *Sink {
	return &Sink{path: filepath.Join(dir, fileName)}
}

// Write overwrites subsyncit.err with msg, hiding the file on Windows so it
// doesn't clutter a normal directory listing of the index directory.
func (s *Sink) Write(msg string) error {
	if err := os.WriteFile(s.path, []byte(msg), 0o644); err != nil {
		return err
	}
	return utils.MakeHidden(s.path)
}

// Clear removes subsyncit.err, if present, once the condition it recorded
// has resolved.
func (s *Sink) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
