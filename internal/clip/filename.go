package clip

import (
	"path"
	"strings"
)

const (
	prefixSeparator = "_"
	slashStandIn    = "$"
)

// SnapshotExtensions are the suffixes DecodeOriginalURL strips by default.
var SnapshotExtensions = []string{".html", ".htm"}

// DecodeOriginalURL recovers the source URL from a stored filename of the form
// <random>_<url with '/' replaced by '$'>[.<ext>]. Only a listed extension is
// stripped, so a dotted host or path segment such as ".com$page" survives.
// With no extensions given, SnapshotExtensions apply.
func DecodeOriginalURL(filename string, extensions ...string) string {
	if len(extensions) == 0 {
		extensions = SnapshotExtensions
	}
	name := path.Base(filename)
	if ext := path.Ext(name); ext != "" && !strings.Contains(ext, slashStandIn) {
		for _, allowed := range extensions {
			if strings.EqualFold(ext, allowed) {
				name = strings.TrimSuffix(name, ext)
				break
			}
		}
	}
	if _, rest, ok := strings.Cut(name, prefixSeparator); ok {
		name = rest
	}
	return strings.ReplaceAll(name, slashStandIn, "/")
}

// ResolveOriginalURL prefers the declared URL and falls back to the filename encoding.
func ResolveOriginalURL(declared, storedFilename string) string {
	if strings.TrimSpace(declared) != "" {
		return strings.TrimSpace(declared)
	}
	return DecodeOriginalURL(storedFilename)
}
