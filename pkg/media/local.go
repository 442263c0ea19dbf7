package media

import (
	"context"
	"errors"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalSource lists regular files of one directory on an afero filesystem.
type LocalSource struct {
	fs  afero.Fs
	dir string
}

// NewLocalSource creates a source for dir on fs. A nil fs means the OS filesystem.
func NewLocalSource(fs afero.Fs, dir string) *LocalSource {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &LocalSource{fs: fs, dir: dir}
}

// List returns the non-hidden regular files of the directory, sorted by name.
func (s *LocalSource) List(ctx context.Context) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, errors.Join(ErrListFailed, err)
	}

	items := make([]Item, 0, len(infos))
	for _, info := range infos {
		if !info.Mode().IsRegular() || hidden(info.Name()) {
			continue
		}
		p := filepath.Join(s.dir, info.Name())
		items = append(items, NewItem(info.Name(), info.Size(), func(context.Context) (io.ReadCloser, error) {
			return s.fs.Open(p)
		}))
	}
	return items, nil
}
