package registry

import (
	"path"
	"strings"
)

const (
	manifestName = "package.json"
	indexName    = "index.js"
)

// toPosix turns backslashes into slashes. Extended-length Windows paths and
// paths carrying non-ASCII bytes are returned untouched: their backslashes
// may be literal.
func toPosix(p string) string {
	if strings.HasPrefix(p, `\\?\`) || hasNonASCII(p) {
		return p
	}
	return strings.ReplaceAll(p, `\`, "/")
}

func hasNonASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x80 {
			return true
		}
	}
	return false
}

// rooted prefixes a root-relative path with the POSIX separator.
func rooted(rel string) string {
	return "/" + toPosix(rel)
}

func isManifest(p string) bool { return path.Base(p) == manifestName }

func isIndex(p string) bool { return path.Base(p) == indexName }

// normalizeExtensions strips leading dots and drops empties.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.TrimPrefix(strings.TrimSpace(e), ".")
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func hasExtension(p string, exts []string) bool {
	for _, e := range exts {
		if strings.HasSuffix(p, "."+e) {
			return true
		}
	}
	return false
}
