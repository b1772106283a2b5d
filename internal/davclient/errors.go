package davclient

import "errors"

// Sentinel errors returned by svn_details and friends. These distinguish
// conditions the engine records and keeps looping on (including
// unauthenticated credentials) from the one condition it treats as fatal:
// Depth:infinity refusal.
var (
	// ErrUnauthorized means the server rejected our credentials (401).
	ErrUnauthorized = errors.New("davclient: server reports unauthorized")

	// ErrNotSubversion means the endpoint doesn't speak Subversion's WebDAV
	// dialect at all (405 on PROPFIND).
	ErrNotSubversion = errors.New("davclient: endpoint is not a Subversion/WebDAV server")

	// ErrUnsuitableEndpoint covers other 4xx responses: wrong subdirectory,
	// wrong vhost, misconfigured Apache location.
	ErrUnsuitableEndpoint = errors.New("davclient: cannot attach to remote Subversion server")

	// ErrOffline means the request never reached the server (DNS, TCP,
	// TLS-handshake failure).
	ErrOffline = errors.New("davclient: remote is unreachable")

	// ErrDepthInfinityRefused is the one genuinely fatal configuration
	// error: the server has not been set up with DavDepthInfinity on,
	// which subsyncit requires for directory listings.
	ErrDepthInfinityRefused = errors.New("davclient: server refuses Depth:infinity PROPFIND; enable DavDepthInfinity in the Apache config")

	// ErrServerObjected is the catch-all for unexpected status codes
	// (5xx, or anything else not covered above).
	ErrServerObjected = errors.New("davclient: unexpected response from server")
)
