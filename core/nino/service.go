package nino

import (
	"context"
	"fmt"
	"path"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
)

var (
	ErrNotFound = core.NewNotFoundError("niño not found")
)

type (
	Repository interface {
		CreateNino(ctx context.Context, n Nino) (Nino, error)
		// QueryNinos applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Nino.Nombre or Nino.Apellido.
		QueryNinos(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Nino, error)
		GetNino(ctx context.Context, id string) (Nino, error)
		UpdateNino(ctx context.Context, n Nino) (Nino, error)
		// IsAssignedTo reports whether the child has an active assignment to the volunteer.
		IsAssignedTo(ctx context.Context, ninoID, voluntarioID string) (bool, error)
	}

	Service struct {
		repo   Repository
		files  core.FileStore
		logger core.Logger
	}
)

func NewService(repo Repository, files core.FileStore, logger core.Logger) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(files, "files"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()
	return &Service{repo: repo, files: files, logger: logger}
}

func (svc *Service) Create(ctx context.Context, in NinoInput) (Nino, error) {
	now := core.NowFunc()
	n := in.apply(Nino{Activo: true, CreatedAt: now, UpdatedAt: now})
	n, err := svc.repo.CreateNino(ctx, n)
	if err != nil {
		return Nino{}, errors.Wrap(err, "creating niño")
	}
	return n.withEdad(now), nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Nino, error) {
	ninos, err := svc.repo.QueryNinos(ctx, filter, ordering)
	if err != nil {
		return nil, err
	}
	now := core.NowFunc()
	for i := range ninos {
		ninos[i] = ninos[i].withEdad(now)
	}
	return ninos, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Nino, error) {
	n, err := svc.repo.GetNino(ctx, id)
	if err != nil {
		return Nino{}, err
	}
	return n.withEdad(core.NowFunc()), nil
}

// GetVisible returns the Nino only when it is actively assigned to `voluntarioID`.
func (svc *Service) GetVisible(ctx context.Context, id, voluntarioID string) (Nino, error) {
	ok, err := svc.IsAssignedTo(ctx, id, voluntarioID)
	if err != nil {
		return Nino{}, err
	}
	if !ok {
		return Nino{}, ErrNotFound
	}
	return svc.Get(ctx, id)
}

func (svc *Service) IsAssignedTo(ctx context.Context, ninoID, voluntarioID string) (bool, error) {
	ok, err := svc.repo.IsAssignedTo(ctx, ninoID, voluntarioID)
	return ok, errors.Wrap(err, "checking assignment")
}

func (svc *Service) Update(ctx context.Context, n Nino, in NinoInput) (Nino, error) {
	n = in.apply(n)
	n.UpdatedAt = core.NowFunc()
	n, err := svc.repo.UpdateNino(ctx, n)
	if err != nil {
		return Nino{}, errors.Wrap(err, "updating niño")
	}
	return n.withEdad(core.NowFunc()), nil
}

// Deactivate soft-deletes the Nino.
func (svc *Service) Deactivate(ctx context.Context, n Nino) error {
	n.Activo = false
	n.UpdatedAt = core.NowFunc()
	_, err := svc.repo.UpdateNino(ctx, n)
	return errors.Wrap(err, "deactivating niño")
}

// SetFoto stores a new photo for the Nino. The previous file is removed best-effort.
func (svc *Service) SetFoto(ctx context.Context, n Nino, file core.FileUpload) (Nino, error) {
	file.Folder = "ninos"
	file.Name = n.ID + path.Ext(file.Name)
	stored, err := svc.files.Upload(ctx, file)
	if err != nil {
		return Nino{}, errors.Wrap(err, "uploading foto")
	}

	prev := n.FotoArchivoID
	n.FotoURL = null.StringFrom(stored.URL)
	n.FotoArchivoID = null.StringFrom(stored.ID)
	n.UpdatedAt = core.NowFunc()
	n, err = svc.repo.UpdateNino(ctx, n)
	if err != nil {
		if delErr := svc.files.Delete(ctx, stored.ID); delErr != nil {
			svc.logger.Warn(fmt.Sprintf("removing orphan foto %s: %v", stored.ID, delErr), delErr)
		}
		return Nino{}, errors.Wrap(err, "saving foto")
	}

	if prev.Valid && prev.String != stored.ID {
		if err := svc.files.Delete(ctx, prev.String); err != nil {
			svc.logger.Warn(fmt.Sprintf("removing previous foto %s: %v", prev.String, err), err)
		}
	}
	return n.withEdad(core.NowFunc()), nil
}
