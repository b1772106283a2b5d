// Package statefile persists the engine's small cross-iteration memory —
// the last root revision seen and the last scan's start time — to a
// status.json file in the index directory, writing it only when its
// content has actually changed.
package statefile

import (
	"os"
	"time"

	"github.com/goccy/go-json"
)

const fileName = "status.json"

// dateTimeFormat mirrors the original client's strftime("%Y-%m-%d
// %H:%M:%S") formatting of last_scanned in status.json.
const dateTimeFormat = "2006-01-02 15:04:05"

// State is the engine's durable cross-iteration memory.
type State struct {
	Online           bool  `json:"-"`
	Iteration        int64 `json:"iteration"`
	LastScanned      int64 `json:"-"` // unix seconds; see MarshalJSON
	LastRootRevision int64 `json:"last_root_revision"` // 0 = unknown
}

// wireState is State's on-disk shape: last_scanned is a formatted
// date-time string per spec, not a raw unix timestamp.
type wireState struct {
	Online           bool   `json:"online"`
	Iteration        int64  `json:"iteration"`
	LastScanned      string `json:"last_scanned"`
	LastRootRevision int64  `json:"last_root_revision"`
}

// MarshalJSON formats LastScanned as "YYYY-MM-DD HH:MM:SS", matching
// status.json's documented external shape.
func (s State) MarshalJSON() ([]byte, error) {
	var last string
	if s.LastScanned != 0 {
		last = time.Unix(s.LastScanned, 0).Format(dateTimeFormat)
	}
	return json.Marshal(wireState{
		Online:           s.Online,
		Iteration:        s.Iteration,
		LastScanned:      last,
		LastRootRevision: s.LastRootRevision,
	})
}

// File wraps State with the "save only if changed" behavior used once per
// reconcile-loop iteration.
type File struct {
	path     string
	State    State
	previous string
}

// Open returns a File bound to status.json under dir. It does not attempt
// to read back a prior file: like the original client, the engine always
// starts a fresh run with LastScanned at the zero value, so a restart
// simply rescans everything once.
func Open(dir string) *File {
	return &File{path: dir + string(os.PathSeparator) + fileName}
}

// SaveIfChanged bumps Iteration and writes status.json only if its
// serialized form, apart from Iteration, differs from what was last
// written, avoiding a disk write on every idle poll.
func (f *File) SaveIfChanged() error {
	f.State.Iteration++

	withoutIteration := f.State
	withoutIteration.Iteration = 0
	key, err := json.Marshal(withoutIteration)
	if err != nil {
		return err
	}
	if string(key) == f.previous {
		return nil
	}

	encoded, err := json.Marshal(f.State)
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.path, encoded, 0o644); err != nil {
		return err
	}
	f.previous = string(key)
	return nil
}
