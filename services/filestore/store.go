package filestore

import (
	"context"

	"github.com/pkg/errors"

	"github.com/plataforma-apa/apa/core"
)

// Driver names
const (
	DriverDrive = "gdrive"
	DriverLocal = "local"
)

// New returns the FileStore selected by `conf.Driver`.
func New(ctx context.Context, conf core.StorageConfig) (core.FileStore, error) {
	switch conf.Driver {
	case DriverDrive:
		return NewDriveStore(ctx, conf)
	case DriverLocal, "":
		return NewLocalStore(conf.LocalPath)
	default:
		return nil, errors.Errorf("unknown storage driver %q", conf.Driver)
	}
}
