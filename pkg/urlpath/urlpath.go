// Package urlpath provides URL path normalization helpers shared by the
// history tracker and the browser bridge.
package urlpath

import (
	"errors"
	"strings"
)

// Normalization and validation errors.
var (
	ErrInvalidPath          = errors.New("urlpath: invalid path")
	ErrBackslashInPath      = errors.New("urlpath: path contains backslash")
	ErrNullByteInPath       = errors.New("urlpath: path contains null byte")
	ErrInvalidPercentEscape = errors.New("urlpath: invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("urlpath: path escapes root via ..")
)

// StripTrailingSlash removes a single trailing slash from the path portion
// of url. The query string and fragment are left untouched, so a slash
// inside "?..." or after "#..." is never stripped.
//
// A bare "/" becomes the empty string. A trailing slash immediately before
// the query marker is stripped ("/base/?p=1" → "/base?p=1").
func StripTrailingSlash(url string) string {
	path := url
	suffix := ""

	// The path ends at the first "?" or "#", whichever comes first.
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		path, suffix = url[:i], url[i:]
	}

	if strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}

	return path + suffix
}

// SplitPathAndQuery splits input at the first "?". The query is returned
// without the leading "?".
func SplitPathAndQuery(input string) (path, query string) {
	path, query, _ = strings.Cut(input, "?")
	return path, query
}

// JoinPathAndQuery is the inverse of SplitPathAndQuery. An empty query
// yields the path unchanged.
func JoinPathAndQuery(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}

// CanonicalizeResult is the outcome of Canonicalize.
type CanonicalizeResult struct {
	// Path is the normalized path without the query string.
	Path string

	// Query is the query string without the leading "?".
	Query string

	// Changed reports whether normalization altered the path.
	Changed bool
}

// Canonicalize normalizes a URL path for navigation:
//
//   - ensures a leading "/"
//   - collapses repeated slashes (/a//b → /a/b)
//   - drops "." segments and resolves ".." segments
//   - removes the trailing slash (except for the root "/")
//
// It rejects paths containing backslashes, NUL bytes (literal or %00),
// malformed percent escapes, and ".." sequences that would climb above
// the root. The query string, if any, is carried through untouched.
func Canonicalize(input string) (CanonicalizeResult, error) {
	if input == "" {
		return CanonicalizeResult{Path: "/", Changed: true}, nil
	}

	path, query := SplitPathAndQuery(input)

	// SECURITY: backslashes and NUL bytes are never valid in a route path.
	if strings.Contains(path, "\\") {
		return CanonicalizeResult{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return CanonicalizeResult{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := checkPercentEscapes(path); err != nil {
			return CanonicalizeResult{}, err
		}
	}

	original := path

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}

	var kept []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(kept) == 0 {
				// SECURITY: ".." above the root.
				return CanonicalizeResult{}, ErrPathEscapesRoot
			}
			kept = kept[:len(kept)-1]
		default:
			kept = append(kept, seg)
		}
	}
	path = "/" + strings.Join(kept, "/")

	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}

	return CanonicalizeResult{
		Path:    path,
		Query:   query,
		Changed: path != original,
	}, nil
}

// ValidateNavURL canonicalizes a navigation target and rejects anything
// that is not a relative path. Absolute URLs ("http://...", "//host") are
// refused to prevent open redirects through the bridge.
func ValidateNavURL(target string) (string, error) {
	if strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "//") {
		return "", ErrInvalidPath
	}
	if !strings.HasPrefix(target, "/") {
		return "", ErrInvalidPath
	}

	result, err := Canonicalize(target)
	if err != nil {
		return "", err
	}
	return JoinPathAndQuery(result.Path, result.Query), nil
}

// checkPercentEscapes verifies every "%" begins a two-hex-digit escape.
func checkPercentEscapes(path string) error {
	for i := 0; i < len(path); {
		if path[i] != '%' {
			i++
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 3
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
