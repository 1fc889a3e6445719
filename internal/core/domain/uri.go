package domain

import (
	"net/url"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

const fileScheme = "file"

// PathToURI converts an absolute file path into a file:// URI.
func PathToURI(path string) string {
	u := url.URL{Scheme: fileScheme, Path: filepath.ToSlash(filepath.Clean(path))}
	return u.String()
}

// URIToPath converts a file:// URI, or a bare absolute path, into a file path.
func URIToPath(uri string) (string, error) {
	if filepath.IsAbs(uri) {
		return filepath.Clean(uri), nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, ErrInvalidURI.Error()), "uri", uri)
	}
	if u.Scheme != fileScheme {
		return "", zerr.With(zerr.With(ErrInvalidURI, "uri", uri), "scheme", u.Scheme)
	}
	if u.Path == "" {
		return "", zerr.With(ErrInvalidURI, "uri", uri)
	}
	return filepath.Clean(filepath.FromSlash(u.Path)), nil
}

// IsRemote reports whether an import path points at an http(s) location.
func IsRemote(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
