package expediente

import (
	"context"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/nino"
)

type (
	Repository[T Record] interface {
		Create(ctx context.Context, rec T) (T, error)
		// QueryByNino returns the child's records, the most recent `fecha` first.
		QueryByNino(ctx context.Context, ninoID string) ([]T, error)
		Get(ctx context.Context, id string) (T, error)
		Update(ctx context.Context, rec T) (T, error)
		Delete(ctx context.Context, id string) error
	}

	NinoFinder interface {
		Get(ctx context.Context, id string) (nino.Nino, error)
	}

	Service[T Record] struct {
		repo  Repository[T]
		ninos NinoFinder
	}
)

func NewService[T Record](repo Repository[T], ninos NinoFinder) *Service[T] {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(ninos, "ninos"),
	).CheckAndPanic()
	return &Service[T]{repo: repo, ninos: ninos}
}

func (svc *Service[T]) Create(ctx context.Context, ninoID, autorID string, in Input[T]) (T, error) {
	var rec T
	if _, err := svc.ninos.Get(ctx, ninoID); err != nil {
		return rec, err
	}
	now := core.NowFunc()
	rec = in.Build(Base{
		NinoID:    ninoID,
		AutorID:   null.NewString(autorID, autorID != ""),
		CreatedAt: now,
		UpdatedAt: now,
	}, rec)
	rec, err := svc.repo.Create(ctx, rec)
	return rec, errors.Wrap(err, "creating record")
}

func (svc *Service[T]) QueryByNino(ctx context.Context, ninoID string) ([]T, error) {
	if _, err := svc.ninos.Get(ctx, ninoID); err != nil {
		return nil, err
	}
	return svc.repo.QueryByNino(ctx, ninoID)
}

// Latest returns the child's most recent record matching `keep` (any record when nil).
func (svc *Service[T]) Latest(ctx context.Context, ninoID string, keep func(T) bool) (T, bool, error) {
	var zero T
	recs, err := svc.repo.QueryByNino(ctx, ninoID)
	if err != nil {
		return zero, false, err
	}
	for _, rec := range recs {
		if keep == nil || keep(rec) {
			return rec, true, nil
		}
	}
	return zero, false, nil
}

func (svc *Service[T]) Get(ctx context.Context, id string) (T, error) {
	return svc.repo.Get(ctx, id)
}

func (svc *Service[T]) Update(ctx context.Context, rec T, in Input[T]) (T, error) {
	base := rec.Meta()
	base.UpdatedAt = core.NowFunc()
	rec, err := svc.repo.Update(ctx, in.Build(base, rec))
	return rec, errors.Wrap(err, "updating record")
}

func (svc *Service[T]) Delete(ctx context.Context, rec T) error {
	return errors.Wrap(svc.repo.Delete(ctx, rec.Meta().ID), "deleting record")
}
