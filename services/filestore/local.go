// Package filestore implements core.FileStore on Google Drive and on the local disk.
package filestore

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
)

// LocalURLPrefix is where the API serves locally stored files.
const LocalURLPrefix = "/api/archivos/"

var ErrInvalidID = core.NewNotFoundError("archivo not found")

type LocalStore struct {
	root string
}

var _ core.FileStore = (*LocalStore)(nil)

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, errors.Wrapf(err, "creating %s", root)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Upload(ctx context.Context, file core.FileUpload) (core.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return core.StoredFile{}, err
	}

	id := uuid.NewString() + strings.ToLower(path.Ext(file.Name))
	if file.Folder != "" {
		id = file.Folder + "-" + id
	}
	fp := filepath.Join(s.root, id)

	f, err := os.OpenFile(fp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return core.StoredFile{}, errors.Wrap(err, "creating file")
	}
	size, err := io.Copy(f, file.Content)
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		_ = os.Remove(fp)
		return core.StoredFile{}, errors.Wrap(err, "writing file")
	}

	return core.StoredFile{ID: id, Name: file.Name, URL: LocalURLPrefix + id, Size: size}, nil
}

func (s *LocalStore) Delete(_ context.Context, id string) error {
	fp, err := s.Path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(fp); err != nil {
		if os.IsNotExist(err) {
			return ErrInvalidID
		}
		return errors.Wrap(err, "removing file")
	}
	return nil
}

// Path returns the location of the stored file `id` on disk.
func (s *LocalStore) Path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", ErrInvalidID
	}
	fp := filepath.Join(s.root, id)
	if _, err := os.Stat(fp); err != nil {
		if os.IsNotExist(err) {
			return "", ErrInvalidID
		}
		return "", errors.Wrap(err, "reading file info")
	}
	return fp, nil
}
