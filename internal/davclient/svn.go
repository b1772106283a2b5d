package davclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Details is the result of a Depth-0 PROPFIND: everything SvnDetails can
// learn about a single path.
type Details struct {
	Revision        int64
	SHA1            string // "" if the path is a directory, or not yet in subversion
	BaselineRelPath string // only meaningful for the root ("/") call
}

// SvnDetails reads version-name, sha1-checksum and baseline-relative-path
// for relPath via a Depth-0 PROPFIND. The very first call — against "/" —
// is what bootstraps the engine's cached baseline-relative-path and
// current root revision.
func (c *Client) SvnDetails(ctx context.Context, relPath string) (Details, error) {
	url := strings.TrimSuffix(c.url(relPath), "/")

	status, body, err := c.propfindRaw(ctx, url, 0)
	if err != nil {
		return Details{}, err
	}

	switch {
	case status >= 200 && status <= 299:
		entries := parsePropfindEntries(body)
		if len(entries) == 0 {
			return Details{}, nil
		}
		e := entries[0]
		return Details{Revision: e.Revision, SHA1: e.SHA1, BaselineRelPath: e.BaselineRelPath}, nil
	case status == http.StatusUnauthorized:
		return Details{}, fmt.Errorf("%w", ErrUnauthorized)
	case status == http.StatusMethodNotAllowed:
		return Details{}, fmt.Errorf("%w", ErrNotSubversion)
	case status >= 400 && status <= 499:
		return Details{}, fmt.Errorf("%w: status %d", ErrUnsuitableEndpoint, status)
	default:
		return Details{}, fmt.Errorf("%w: PROPFIND %s: status %d", ErrServerObjected, relPath, status)
	}
}

// DirEntry is one child of a directory listing returned by SvnDirList.
type DirEntry struct {
	Path     string // sync-root-relative
	Revision int64
	SHA1     string // "" ⇒ directory
}

// SvnDirList lists the direct children of the directory at prefix via a
// Depth-1 PROPFIND, relativizing each child's baseline-relative-path
// against svnBaselineRelPath (as cached at bootstrap).
func (c *Client) SvnDirList(ctx context.Context, prefix string, svnBaselineRelPath string) ([]DirEntry, error) {
	status, body, err := c.propfindRaw(ctx, c.url(prefix), 1)
	if err != nil {
		return nil, err
	}

	if strings.Contains(body, depthInfinityRefusalMarker) {
		return nil, ErrDepthInfinityRefused
	}

	switch {
	case status >= 200 && status <= 299:
		// fallthrough to parsing below
	case status == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w", ErrUnauthorized)
	case status == http.StatusMethodNotAllowed:
		return nil, fmt.Errorf("%w", ErrNotSubversion)
	case status >= 400 && status <= 499:
		return nil, fmt.Errorf("%w: status %d", ErrUnsuitableEndpoint, status)
	default:
		return nil, fmt.Errorf("%w: PROPFIND %s: status %d", ErrServerObjected, prefix, status)
	}

	self := strings.TrimSuffix(strings.TrimPrefix(prefix, "/"), "/")

	var out []DirEntry
	for _, e := range parsePropfindEntries(body) {
		path := relativeToSyncRoot(e.BaselineRelPath, svnBaselineRelPath)
		if strings.TrimSuffix(path, "/") == self {
			continue // the directory's own self-entry, not a child
		}
		if e.SHA1 == "" && !strings.HasSuffix(path, "/") {
			path += "/" // directories carry a trailing "/", as in the Index
		}
		out = append(out, DirEntry{Path: path, Revision: e.Revision, SHA1: e.SHA1})
	}
	return out, nil
}

// RepoParentPath issues the OPTIONS+activity-collection-set dance once at
// bootstrap to learn the "!svn/..." base path prefix used by
// SvnDirectoryRevision.
func (c *Client) RepoParentPath(ctx context.Context) (string, error) {
	_, body, err := c.optionsActivityCollectionSet(ctx, c.baseURL)
	if err != nil {
		return "", err
	}
	prefix := activityCollectionSetPrefix(body)
	if prefix == "" {
		return "", fmt.Errorf("%w: could not find activity-collection-set in OPTIONS response", ErrServerObjected)
	}
	return prefix, nil
}

// SvnDirectoryRevision returns the directory's own last-modified revision:
// the Merkle-like summary the engine compares across polls to decide
// whether a subtree needs re-listing at all. It first asks OPTIONS for the
// repository's youngest revision, then PROPFINDs the directory under the
// revision-pinned "!svn/rvr/<rev>/..." view URL.
func (c *Client) SvnDirectoryRevision(ctx context.Context, repoParentPath, relPath string) (int64, error) {
	youngestRev, _, err := c.optionsActivityCollectionSet(ctx, c.baseURL)
	if err != nil {
		return 0, err
	}
	if youngestRev == "" {
		return 0, fmt.Errorf("%w: missing SVN-Youngest-Rev header", ErrServerObjected)
	}

	rvrURL := strings.TrimSuffix(c.baseURL, "/") + "/" +
		strings.TrimPrefix(repoParentPath, "/") + "!svn/rvr/" + youngestRev +
		"/" + strings.TrimPrefix(relPath, "/")

	status, body, err := c.propfindRaw(ctx, rvrURL, 0)
	if err != nil {
		return 0, err
	}
	if status != http.StatusMultiStatus {
		return 0, fmt.Errorf("%w: PROPFIND %s: status %d", ErrServerObjected, rvrURL, status)
	}

	entries := parsePropfindEntries(body)
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: no version-name in revision-view PROPFIND for %s", ErrServerObjected, relPath)
	}
	return entries[0].Revision, nil
}
