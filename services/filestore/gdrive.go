package filestore

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/plataforma-apa/apa/core"
)

type DriveStore struct {
	files       *drive.FilesService
	permissions *drive.PermissionsService
	folderID    string
	publicLinks bool
}

var _ core.FileStore = (*DriveStore)(nil)

// NewDriveStore authenticates with a service account credentials file.
func NewDriveStore(ctx context.Context, conf core.StorageConfig) (*DriveStore, error) {
	srv, err := drive.NewService(ctx, option.WithCredentialsFile(conf.DriveCredentialsFile), option.WithScopes(drive.DriveScope))
	if err != nil {
		return nil, errors.Wrap(err, "creating drive service")
	}
	return &DriveStore{
		files:       srv.Files,
		permissions: srv.Permissions,
		folderID:    conf.DriveFolderID,
		publicLinks: conf.PublicLinks,
	}, nil
}

func (s *DriveStore) Upload(ctx context.Context, file core.FileUpload) (core.StoredFile, error) {
	meta := &drive.File{
		Name:     file.Name,
		MimeType: file.MimeType,
	}
	if s.folderID != "" {
		meta.Parents = []string{s.folderID}
	}
	if file.Folder != "" {
		meta.AppProperties = map[string]string{"folder": file.Folder}
	}

	f, err := s.files.Create(meta).
		Media(file.Content, googleapi.ContentType(file.MimeType)).
		Fields("id", "name", "size", "webViewLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return core.StoredFile{}, errors.Wrap(err, "uploading to drive")
	}

	if s.publicLinks {
		perm := &drive.Permission{Type: "anyone", Role: "reader"}
		if _, err := s.permissions.Create(f.Id, perm).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
			_ = s.Delete(ctx, f.Id)
			return core.StoredFile{}, errors.Wrap(err, "sharing drive file")
		}
	}

	return core.StoredFile{ID: f.Id, Name: f.Name, URL: f.WebViewLink, Size: f.Size}, nil
}

func (s *DriveStore) Delete(ctx context.Context, id string) error {
	if err := s.files.Delete(id).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return ErrInvalidID
		}
		return errors.Wrap(err, "deleting drive file")
	}
	return nil
}
