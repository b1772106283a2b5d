package davclient

import (
	"strings"

	"github.com/subsyncit/subsyncit/internal/utils"
)

// mod_dav_svn serializes each multistatus property on its own line, so the
// original client parsed responses with simple substring scans rather than
// a full XML decoder. We keep that approach: a real decoder would also have
// to special-case the server's lpN: namespace-prefix renumbering across
// responses, which the line scan sidesteps entirely.

// textBetweenAngles returns the text strictly between the first ">" and the
// following "<" in line, the shape every leaf property element takes
// ("<lp1:version-name>7</lp1:version-name>").
func textBetweenAngles(line string) string {
	start := strings.Index(line, ">")
	if start < 0 {
		return ""
	}
	rest := line[start+1:]
	end := strings.Index(rest, "<")
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// entryDetails is one parsed PROPFIND response element.
type entryDetails struct {
	Revision        int64
	SHA1            string // "" for a directory or an unset property
	BaselineRelPath string
}

// parsePropfindEntries scans a (possibly multi-entry, Depth:1) PROPFIND
// response body and returns one entryDetails per "<D:response>" block.
func parsePropfindEntries(body string) []entryDetails {
	var entries []entryDetails
	var cur entryDetails

	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.Contains(line, ":baseline-relative-path>") && !strings.Contains(line, "baseline-relative-path/>"):
			cur.BaselineRelPath = textBetweenAngles(line)
		case strings.Contains(line, ":version-name"):
			cur.Revision = parseInt64(textBetweenAngles(line))
		case strings.Contains(line, ":sha1-checksum>"):
			cur.SHA1 = textBetweenAngles(line)
		case strings.Contains(line, ":sha1-checksum/>"):
			cur.SHA1 = ""
		case strings.Contains(line, "</D:response>") || strings.Contains(line, "</d:response>"):
			entries = append(entries, cur)
			cur = entryDetails{}
		}
	}
	return entries
}

func parseInt64(s string) int64 {
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int64(r-'0')
	}
	return n
}

// relativeToSyncRoot strips the cached repository-root mount point
// (svnBaselineRelPath, as bootstrapped from svn_details("/")) off a raw
// baseline-relative-path value, yielding a sync-root-relative,
// "/"-separated, un-escaped path. Returns "" if raw isn't under the mount
// point at all (the root entry itself).
func relativeToSyncRoot(raw, svnBaselineRelPath string) string {
	prefix := strings.ReplaceAll(svnBaselineRelPath, "\\", "/")
	rest := strings.TrimPrefix(raw, prefix)
	if rest == raw && prefix != "" {
		return ""
	}
	rest = strings.TrimPrefix(rest, "/")
	return utils.UnescapeBaselineRelPath(rest)
}

// activityCollectionSetPrefix extracts the repository-parent path (the
// portion of an OPTIONS response's activity-collection-set href before its
// "!svn" suffix) the way the original line-scan did: find the line
// containing "<D:activity-collection-set><D:href>...</D:href>...", split it
// on ">", take the third field (the href's text content), and cut at "!svn".
func activityCollectionSetPrefix(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if !strings.Contains(line, ":activity-collection-set>") {
			continue
		}
		parts := strings.Split(line, ">")
		if len(parts) < 3 {
			return ""
		}
		href := parts[2]
		if idx := strings.Index(href, "!svn"); idx >= 0 {
			return href[:idx]
		}
		return href
	}
	return ""
}
