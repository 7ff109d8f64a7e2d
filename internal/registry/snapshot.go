package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"
)

// snapshotSchemaVersion must be bumped when snapshotPayload changes.
const snapshotSchemaVersion uint16 = 1

// Snapshot is an independent copy of a registry. Mutating it never reaches
// live state.
type Snapshot struct {
	Files       []string `json:"files" msgpack:"files"`
	Directories []Entry  `json:"directories" msgpack:"directories"`
	Core        []Entry  `json:"core" msgpack:"core"`
	Generation  uint64   `json:"generation" msgpack:"generation"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Files:       cloneSlice(s.Files),
		Directories: cloneSlice(s.Directories),
		Core:        cloneSlice(s.Core),
		Generation:  s.Generation,
	}
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

type snapshotPayload struct {
	Schema    uint16
	FileCount uint32
	DirCount  uint32
	CoreCount uint32
	Root      string
	Snapshot  Snapshot
}

// WriteSnapshot persists snap to path. root is recorded for inspection only.
// The file is written to a temp file next to path and renamed into place.
func WriteSnapshot(path, root string, snap Snapshot) (err error) {
	payload := snapshotPayload{
		Schema:   snapshotSchemaVersion,
		Root:     root,
		Snapshot: snap,
	}
	if payload.FileCount, err = safecast.Conv[uint32](len(snap.Files)); err != nil {
		return fmt.Errorf("snapshot file count: %w", err)
	}
	if payload.DirCount, err = safecast.Conv[uint32](len(snap.Directories)); err != nil {
		return fmt.Errorf("snapshot directory count: %w", err)
	}
	if payload.CoreCount, err = safecast.Conv[uint32](len(snap.Core)); err != nil {
		return fmt.Errorf("snapshot core count: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(&payload); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: encode snapshot: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (Snapshot, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, "", err
	}
	defer func() {
		_ = f.Close()
	}()

	var payload snapshotPayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return Snapshot{}, "", fmt.Errorf("%s: decode snapshot: %w", path, err)
	}
	if payload.Schema != snapshotSchemaVersion {
		return Snapshot{}, "", fmt.Errorf("%s: %w: got %d, want %d", path, ErrSnapshotSchema, payload.Schema, snapshotSchemaVersion)
	}
	snap := payload.Snapshot
	if !countMatches(payload.FileCount, len(snap.Files)) ||
		!countMatches(payload.DirCount, len(snap.Directories)) ||
		!countMatches(payload.CoreCount, len(snap.Core)) {
		return Snapshot{}, "", fmt.Errorf("%s: %w", path, ErrSnapshotCorrupt)
	}
	return snap.Clone(), payload.Root, nil
}

func countMatches(want uint32, n int) bool {
	got, err := safecast.Conv[uint32](n)
	if err != nil {
		return false
	}
	return got == want
}

// IsSnapshotError reports whether err came from an unusable snapshot file
// rather than an IO failure.
func IsSnapshotError(err error) bool {
	return errors.Is(err, ErrSnapshotSchema) || errors.Is(err, ErrSnapshotCorrupt)
}
