package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/matching"
)

type matchingRepository struct {
	db core.DB
}

var _ matching.Repository = (*matchingRepository)(nil) // interface compliance check

func NewMatchingRepository(db core.DB) *matchingRepository {
	return &matchingRepository{db: db}
}

func (repo matchingRepository) SugerirVoluntarios(ctx context.Context, ninoID string) ([]matching.Sugerencia, error) {
	sugs := []matching.Sugerencia{}
	q := "SELECT * FROM sugerir_voluntarios_para_nino($1)"
	if err := queries.Raw(q, ninoID).Bind(ctx, repo.db, &sugs); err != nil {
		return nil, errors.Wrap(err, "calling sugerir_voluntarios_para_nino")
	}
	return sugs, nil
}
