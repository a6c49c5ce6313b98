package core

import (
	"context"
	"io"
)

type (
	// FileUpload describes a file to be persisted by a FileStore.
	FileUpload struct {
		Name     string
		MimeType string
		Size     int64
		Folder   string // logical folder, eg: "ninos", "biblioteca"
		Content  io.Reader
	}

	// StoredFile is the result of a successful upload.
	StoredFile struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		URL  string `json:"url"`
		Size int64  `json:"size"`
	}

	// FileStore persists binary files outside of the database (Google Drive, local disk..).
	FileStore interface {
		Upload(ctx context.Context, file FileUpload) (StoredFile, error)
		Delete(ctx context.Context, id string) error
	}
)
