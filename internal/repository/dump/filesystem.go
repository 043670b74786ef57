package dump

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FilesystemStore writes one TIFF file per tile under
// <root>/<layer>/<tree>/<lod>/<x>/<y>.tiff.
type FilesystemStore struct {
	root string
}

func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dump directory: %w", err)
	}
	return &FilesystemStore{root: root}, nil
}

var _ Store = (*FilesystemStore)(nil)

func (s *FilesystemStore) Get(k Key) (v Value, exists bool, err error) {
	defer func(start time.Time) { observe("filesystem", "get", start, err) }(time.Now())

	content, err := os.ReadFile(s.path(k))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return content, true, nil
}

func (s *FilesystemStore) Set(k Key, v Value) (err error) {
	defer func(start time.Time) { observe("filesystem", "set", start, err) }(time.Now())

	path := s.path(k)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	// Write then rename so a concurrent Get never sees a partial image.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, v, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *FilesystemStore) Close() error {
	return nil
}

func (s *FilesystemStore) path(k Key) string {
	return filepath.Join(s.root, k.Layer,
		fmt.Sprint(k.Tree), fmt.Sprint(k.LOD), fmt.Sprint(k.X), fmt.Sprintf("%d.tiff", k.Y))
}
