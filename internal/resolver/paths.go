package resolver

import (
	"path"
	"strings"
)

const modulesDirName = "node_modules"

// resolvePath resolves req against base inside the registry's rooted POSIX
// namespace. An absolute req replaces base; a root-relative base hangs off
// "/". The result is clean and never climbs above "/".
func resolvePath(base, req string) string {
	if strings.HasPrefix(req, "/") {
		return path.Clean(req)
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return path.Join(base, req)
}

// extname returns the extension of the last path element the way Node does:
// a dot that starts the name is not a separator, so ".", "..", ".env" have
// none while "a.", "..a" and "a.b.js" do.
func extname(p string) string {
	startDot, startPart, end := -1, 0, -1
	matchedSlash := true
	preDotState := 0
	for i := len(p) - 1; i >= 0; i-- {
		c := p[i]
		if c == '/' {
			if !matchedSlash {
				startPart = i + 1
				break
			}
			continue
		}
		if end == -1 {
			matchedSlash = false
			end = i + 1
		}
		if c == '.' {
			if startDot == -1 {
				startDot = i
			} else if preDotState != 1 {
				preDotState = 1
			}
		} else if startDot != -1 {
			preDotState = -1
		}
	}
	if startDot == -1 || end == -1 || preDotState == 0 ||
		(preDotState == 1 && startDot == end-1 && startDot == startPart+1) {
		return ""
	}
	return p[startDot:end]
}

// moduleID drops the extension of p and returns it in dir+name form. The
// downstream pipeline addresses modules without extensions.
func moduleID(p string) string {
	if p == "" {
		return p
	}
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return "/"
	}
	dir, base := path.Split(trimmed)
	name := strings.TrimSuffix(base, extname(base))
	return path.Join(dir, name)
}

// modulesDirs lists the node_modules directories searched for a package
// request made from start, nearest first. Segments that are themselves
// node_modules are skipped so no candidate ends in node_modules/node_modules.
func modulesDirs(start string) []string {
	from := resolvePath("/", start)
	if from == "/" {
		return []string{"/" + modulesDirName}
	}
	parts := strings.Split(from, "/")
	dirs := make([]string, 0, len(parts))
	for tip := len(parts) - 1; tip >= 0; tip-- {
		if parts[tip] == modulesDirName {
			continue
		}
		dirs = append(dirs, strings.Join(parts[:tip+1], "/")+"/"+modulesDirName)
	}
	return dirs
}

func isRelative(request string) bool {
	return strings.HasPrefix(request, ".") || strings.HasPrefix(request, "/")
}
