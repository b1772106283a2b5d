package index

import "strings"

// Kind distinguishes a file row from a directory row.
type Kind string

const (
	KindFile Kind = "file"
	KindDir  Kind = "dir"
)

// Instruction is the pending action the engine will take on a row in the
// next pass. The zero value Idle means "no pending instruction".
type Instruction string

const (
	Idle                Instruction = ""
	PendingPut          Instruction = "PUT"
	PendingGet          Instruction = "GET"
	PendingMkcol        Instruction = "MKCOL"
	PendingDeleteRemote Instruction = "DELETE_REMOTE"
	PendingDeleteLocal  Instruction = "DELETE_LOCAL"
)

// Row is one entry in the Index Table: the reconciled state of a single
// synchronized path. See spec.md §3 "Index Entry" for the field semantics.
type Row struct {
	Path        string
	Kind        Kind
	Depth       int
	RemoteSHA1  string // "" = unknown / not in subversion
	LocalSHA1   string // "" = unknown (always "" for directories)
	SizeMtime   int64  // cheap local-change hint: size + mtime
	Revision    int64  // 0 = unknown
	Instruction Instruction
}

// InSubversion reports whether the row's content is known to exist on the
// remote as a file.
func (r *Row) InSubversion() bool {
	return r.Kind == KindFile && r.RemoteSHA1 != ""
}

// Depth returns the number of path separators in p, not counting a
// directory's trailing "/" (so "sub/" and "a.txt" are 0, "sub/a.txt" is 1),
// used to denormalize
// the Row.Depth field for cheap prefix-at-depth queries.
func Depth(p string) int {
	return strings.Count(strings.TrimSuffix(p, "/"), "/")
}

// ParentPath returns the directory containing p ("" for a root-level
// entry). Paths are "/"-separated, sync-root-relative, with directories
// carrying a trailing "/".
func ParentPath(p string) string {
	trimmed := strings.TrimSuffix(p, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return ""
	}
	return trimmed[:idx+1]
}
