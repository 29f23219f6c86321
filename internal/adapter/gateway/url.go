package gateway

import (
	"regexp"
	"strings"
)

var absoluteURL = regexp.MustCompile(`(?i)^https?://`)

func withLeadingSlash(path string) string {
	if strings.HasPrefix(path, "/") {
		return path
	}
	return "/" + path
}

// ResolveURL joins a request path onto the API root exactly once.
// Absolute URLs are returned unchanged; a path already carrying the
// API prefix has it stripped before joining.
func (g *Gateway) ResolveURL(path string) string {
	return resolveURL(g.cfg.RootURL, g.cfg.APIPrefix, path)
}

func resolveURL(rootURL, prefix, path string) string {
	if absoluteURL.MatchString(path) {
		return path
	}

	p := withLeadingSlash(path)
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix != "/" && len(p) >= len(prefix) && strings.EqualFold(p[:len(prefix)], prefix) {
		rest := p[len(prefix):]
		if rest == "" || strings.HasPrefix(rest, "/") {
			p = withLeadingSlash(rest)
		}
	}
	return strings.TrimRight(rootURL, "/") + p
}
