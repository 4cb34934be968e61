// Package sitehost holds helpers shared by the static-host publishers. Each
// subpackage implements clip.SiteHost for one backend.
package sitehost

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// DefaultDir is the directory snapshots are published under.
const DefaultDir = "clips"

// ObjectPath joins the publish directory and file name into a slash path.
func ObjectPath(dir, filename string) (string, error) {
	name := strings.TrimSpace(filename)
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	if strings.Contains(name, "/") || strings.Contains(name, `\`) || name == "." || name == ".." {
		return "", fmt.Errorf("filename %q must be a single path segment", filename)
	}
	return path.Join(strings.Trim(dir, "/"), name), nil
}

// PublicURL joins a base URL and an object path, escaping each path segment.
func PublicURL(base, objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segments, "/")
}
