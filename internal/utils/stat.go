package utils

import "os"

// SizeMtimeHint combines a file's size and modification time into a single
// cheap, order-sensitive number used to detect "did this file's content
// possibly change" without hashing it. It is not a guarantee — a file
// rewritten with identical size within the same mtime second can alias —
// but false negatives there are caught by the content SHA-1 comparison
// downstream.
func SizeMtimeHint(fi os.FileInfo) int64 {
	return fi.Size() + fi.ModTime().Unix()
}
