// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package uri translates between OS paths and RFC 8089 "file" URIs as
// exchanged with language clients.
package uri

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// FromPath creates a URI from an OS-specific path per RFC 8089.
func FromPath(rawPath string) string {
	// Cleaning up the path trims any trailing separator, which then
	// (in the context of the URI below) complies with RFC 3986 § 6.2.4.
	path := filepath.Clean(rawPath)
	path = filepath.ToSlash(path)

	volume := filepath.VolumeName(rawPath)
	if isWindowsDriveVolume(volume) {
		// Per RFC 8089 (Appendix F) paths with drive letters are
		// prepended with an additional slash.
		path = "/" + path
	}

	u := &url.URL{
		Scheme: "file",
		Path:   path,
	}

	// Ensure that String() returns a uniformly escaped path at all times
	escapedPath := u.EscapedPath()
	if escapedPath != path {
		u.RawPath = escapedPath
	}

	return u.String()
}

// isWindowsDriveVolume returns true if the volume name has a drive
// letter, e.g. C:\example.
func isWindowsDriveVolume(path string) bool {
	if len(path) < 2 {
		return false
	}
	return unicode.IsLetter(rune(path[0])) && path[1] == ':'
}

// IsURIValid checks whether uri is a valid RFC 8089 file URI.
func IsURIValid(uri string) bool {
	_, err := parseUri(uri)
	return err == nil
}

// PathFromURI extracts the OS-specific path from an RFC 8089 file URI.
func PathFromURI(rawUri string) (string, error) {
	uri, err := parseUri(rawUri)
	if err != nil {
		return "", err
	}

	osPath := filepath.Clean(filepath.FromSlash(uri.Path))

	trimmedOsPath := trimLeftPathSeparator(osPath)
	if strings.HasSuffix(filepath.VolumeName(trimmedOsPath), ":") {
		// Trim the leading separator conversion of the RFC 8089
		// (Appendix F) extra slash in front of drive letters.
		// See also https://github.com/golang/go/issues/6027
		osPath = trimmedOsPath
	}

	return osPath, nil
}

// MustPathFromURI is like PathFromURI but panics on an invalid URI.
func MustPathFromURI(uri string) string {
	osPath, err := PathFromURI(uri)
	if err != nil {
		panic(fmt.Sprintf("invalid URI: %s", uri))
	}
	return osPath
}

func trimLeftPathSeparator(s string) string {
	return strings.TrimLeftFunc(s, func(r rune) bool {
		return r == os.PathSeparator
	})
}

func parseUri(rawUri string) (*url.URL, error) {
	uri, err := url.ParseRequestURI(rawUri)
	if err != nil {
		return nil, err
	}

	if uri.Scheme != "file" {
		return nil, fmt.Errorf("unexpected scheme %q in URI %q",
			uri.Scheme, rawUri)
	}

	// Implement RFC 3986 § 6.2.4 as it is relevant in LSP
	// (which uses the file scheme).
	uri.Path = strings.TrimSuffix(uri.Path, "/")

	// Some clients escape ASCII characters such as colon, which the
	// upstream parser preserves in RawPath. Reset RawPath so String()
	// re-escapes the (unescaped) Path cleanly.
	// See https://github.com/microsoft/vscode/issues/75027
	uri.RawPath = ""

	return uri, nil
}
