// Package davclient is a typed wrapper over the WebDAV verbs HEAD, GET,
// PUT, DELETE, MKCOL, PROPFIND and OPTIONS that a Subversion server
// exposes through mod_dav_svn (it issues no REPORT requests), plus the three higher-level read operations
// the Reconciliation Engine actually calls: SvnDetails, SvnDirList, and
// SvnDirectoryRevision.
package davclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/imroc/req/v3"

	"github.com/subsyncit/subsyncit/internal/utils"
	"github.com/subsyncit/subsyncit/internal/version"
)

const (
	// userAgent identifies subsyncit to the Apache/mod_dav_svn front end;
	// some server configs log or filter on it.
	userAgent = "subsyncit/" + version.Version

	propfindBody = `<?xml version="1.0" encoding="utf-8" ?>` + "\n" +
		`<D:propfind xmlns:D="DAV:">` + "\n" +
		`<D:prop xmlns:S="http://subversion.tigris.org/xmlns/svn/">` + "\n" +
		`<S:sha1-checksum/>` + "\n" +
		`<D:version-name/>` + "\n" +
		`<S:baseline-relative-path/>` + "\n" +
		`</D:prop>` + "\n" +
		`</D:propfind>` + "\n"

	optionsBody = `<?xml version="1.0" encoding="utf-8"?>` +
		`<D:options xmlns:D="DAV:"><D:activity-collection-set></D:activity-collection-set></D:options>`

	depthInfinityRefusalMarker = `PROPFIND requests with a Depth of "infinity"`
)

// Client talks WebDAV/Subversion to a single repository root URL.
type Client struct {
	baseURL string
	http    *req.Client
}

// Config configures New.
type Config struct {
	BaseURL   string
	Username  string
	Password  string // "" means anonymous; the engine never passes "*NONE" through here
	VerifySSL bool
	Timeout   time.Duration
}

// New builds a Client bound to cfg.BaseURL.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// No SetCommonRetryCount here: retry is the engine's job, at the
	// instruction level, not the transport's.
	c := req.C().
		SetTimeout(timeout).
		SetUserAgent(userAgent).
		SetTLSClientConfig(&tls.Config{InsecureSkipVerify: !cfg.VerifySSL}) //nolint:gosec // user-controlled opt-out, mirrors --no-verify-ssl-cert

	if cfg.Username != "" && cfg.Password != "" {
		c.SetCommonBasicAuth(cfg.Username, cfg.Password)
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    c,
	}
}

func (c *Client) url(relPath string) string {
	escaped := utils.EscapePathForURL(relPath)
	if escaped == "" {
		return c.baseURL + "/"
	}
	return c.baseURL + "/" + strings.TrimPrefix(escaped, "/")
}

// classifyTransportError wraps any non-nil req/net transport failure in
// ErrOffline (keeping the original message); nil is returned as nil.
func classifyTransportError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrOffline, err)
}

// Head issues HEAD on relPath and returns the raw status code.
func (c *Client) Head(ctx context.Context, relPath string) (int, error) {
	resp, err := c.http.R().SetContext(ctx).Head(c.url(relPath))
	if err != nil {
		return 0, classifyTransportError(err)
	}
	return resp.StatusCode, nil
}

// Get streams relPath's body into w.
func (c *Client) Get(ctx context.Context, relPath string, w io.Writer) error {
	resp, err := c.http.R().
		SetContext(ctx).
		DisableAutoReadResponse().
		Get(c.url(relPath))
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: GET %s: status %d: %s", ErrServerObjected, relPath, resp.StatusCode, string(body))
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("davclient: stream GET body for %s: %w", relPath, err)
	}
	return nil
}

// Put uploads body (of the given size) to relPath, creating or overwriting
// it wholesale, per Subversion's whole-file PUT semantics.
func (c *Client) Put(ctx context.Context, relPath string, body io.Reader, size int64) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetContentLength(true).
		SetHeader("Content-Length", fmt.Sprintf("%d", size)).
		SetBody(io.NopCloser(body)).
		Put(c.url(relPath))
	if err != nil {
		return classifyTransportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: PUT %s: status %d", ErrServerObjected, relPath, resp.StatusCode)
	}
	return nil
}

// Delete removes relPath (file or, for an empty collection, a directory).
func (c *Client) Delete(ctx context.Context, relPath string) error {
	resp, err := c.http.R().SetContext(ctx).Delete(c.url(relPath))
	if err != nil {
		return classifyTransportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: DELETE %s: status %d", ErrServerObjected, relPath, resp.StatusCode)
	}
	return nil
}

// Mkcol creates relPath as a collection (directory).
func (c *Client) Mkcol(ctx context.Context, relPath string) error {
	resp, err := c.http.R().SetContext(ctx).Send("MKCOL", c.url(relPath))
	if err != nil {
		return classifyTransportError(err)
	}
	// 201 Created, or 405 if it already exists — both are fine here; the
	// caller only calls Mkcol when the Index doesn't yet know the
	// directory has a revision, so a stale 405 is harmless.
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusMethodNotAllowed {
		return fmt.Errorf("%w: MKCOL %s: status %d", ErrServerObjected, relPath, resp.StatusCode)
	}
	return nil
}

// propfindRaw issues a PROPFIND at the given depth and returns the raw
// multistatus response body as text, mirroring mod_dav_svn's line-oriented
// (one element per line) XML serialization.
func (c *Client) propfindRaw(ctx context.Context, absOrRelURL string, depth int) (status int, body string, err error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Depth", fmt.Sprintf("%d", depth)).
		SetHeader("Content-Type", "text/xml").
		SetBody(propfindBody).
		Send("PROPFIND", absOrRelURL)
	if err != nil {
		return 0, "", classifyTransportError(err)
	}
	return resp.StatusCode, resp.String(), nil
}

// optionsActivityCollectionSet issues the OPTIONS+activity-collection-set
// dance used both to discover the repository's youngest revision and to
// derive the !svn/... repo-parent path prefix.
func (c *Client) optionsActivityCollectionSet(ctx context.Context, absOrRelURL string) (youngestRev string, body string, err error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/xml").
		SetBody(optionsBody).
		Send("OPTIONS", absOrRelURL)
	if err != nil {
		return "", "", classifyTransportError(err)
	}
	return resp.Header.Get("SVN-Youngest-Rev"), resp.String(), nil
}
