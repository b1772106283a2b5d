package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
)

// ErrFileMissing is returned by SHA1File when the file does not exist;
// callers treat this identically to the original's "FILE_MISSING" sentinel.
var ErrFileMissing = os.ErrNotExist

// SHA1File computes the hex-encoded SHA-1 digest of a local file's content,
// streaming it in fixed-size chunks so multi-GB files don't blow up memory.
func SHA1File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	buf := make([]byte, 64*1024)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
