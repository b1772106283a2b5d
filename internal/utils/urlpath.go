package utils

import "strings"

// EscapePathForURL percent-encodes the two characters the Subversion mod_dav
// bridge chokes on when left raw in a URL path segment. Mirrors the
// original client's esc().
func EscapePathForURL(name string) string {
	name = strings.ReplaceAll(name, "?", "%3F")
	name = strings.ReplaceAll(name, "&", "%26")
	return name
}

// UnescapeBaselineRelPath reverses the handful of encodings that show up in
// a PROPFIND response's baseline-relative-path element: XML entity escapes
// for "&" and the percent-encodings this client itself introduced.
func UnescapeBaselineRelPath(name string) string {
	name = strings.ReplaceAll(name, "&amp;", "&")
	name = strings.ReplaceAll(name, "&quot;", "\"")
	name = strings.ReplaceAll(name, "%3F", "?")
	name = strings.ReplaceAll(name, "%26", "&")
	return name
}
