package registry

import (
	"io/fs"
	"os"
	"path"
	"sort"
)

// DefaultExtensions are scanned when LoadFiles gets none.
var DefaultExtensions = []string{"js", "json"}

// FileSource enumerates and reads files below a scan root.
type FileSource interface {
	// ListFiles returns slash-separated, root-relative paths of every
	// regular file under root whose name ends in one of extensions.
	ListFiles(root string, extensions []string) ([]string, error)
	// ReadFile returns the contents of rel, a path returned by ListFiles.
	ReadFile(root, rel string) ([]byte, error)
}

// DirSource is a FileSource over io/fs. Open maps a root to a file system;
// nil means os.DirFS.
type DirSource struct {
	Open func(root string) fs.FS
}

func (s DirSource) fsys(root string) fs.FS {
	if s.Open != nil {
		return s.Open(root)
	}
	return os.DirFS(root)
}

// ListFiles walks root and returns matching files in lexical order.
func (s DirSource) ListFiles(root string, extensions []string) ([]string, error) {
	fsys := s.fsys(root)
	exts := normalizeExtensions(extensions)

	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !hasExtension(p, exts) {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			// a link named foo.js may point at a directory
			info, statErr := fs.Stat(fsys, p)
			if statErr != nil || info.IsDir() {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ReadFile reads rel from root.
func (s DirSource) ReadFile(root, rel string) ([]byte, error) {
	return fs.ReadFile(s.fsys(root), path.Clean(rel))
}
