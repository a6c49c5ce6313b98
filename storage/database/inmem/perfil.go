package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/perfil"
)

type perfilRepository struct {
	db *DB
}

var _ perfil.Repository = (*perfilRepository)(nil) // interface compliance check

func NewPerfilRepository(db *DB) *perfilRepository {
	return &perfilRepository{db: db}
}

func (repo *perfilRepository) CheckEmailUniqueness(_ context.Context, email string, excludedIDs ...string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, p := range repo.db.perfiles {
		if strings.EqualFold(p.Email, email) && !core.Contains(excludedIDs, p.ID) {
			return perfil.ErrEmailExists
		}
	}
	return nil
}

func (repo *perfilRepository) CreatePerfil(ctx context.Context, p perfil.Perfil) (perfil.Perfil, error) {
	if err := repo.CheckEmailUniqueness(ctx, p.Email); err != nil {
		return perfil.Perfil{}, err
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if p.ID == "" {
		p.ID = newID()
	}
	repo.db.perfiles[p.ID] = &p
	return p, nil
}

func (repo *perfilRepository) QueryPerfiles(_ context.Context, filter *perfil.QueryFilter, ordering []core.DBOrdering) ([]perfil.Perfil, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	perfiles := make([]perfil.Perfil, 0, len(repo.db.perfiles))
	for _, p := range values(repo.db.perfiles) {
		if filter != nil {
			if filter.Search != "" && !containsFold(p.Nombre, filter.Search) && !containsFold(p.Email, filter.Search) {
				continue
			}
			if len(filter.Roles) > 0 && !core.Contains(filter.Roles, p.Rol) {
				continue
			}
			if filter.Activo != nil && p.Activo != *filter.Activo {
				continue
			}
			if filter.ZonaID != "" && p.ZonaID.String != filter.ZonaID {
				continue
			}
		}
		perfiles = append(perfiles, p)
	}

	desc := len(ordering) > 0 && ordering[0].Field == "nombre" && !ordering[0].Ascending
	sort.Slice(perfiles, func(i, j int) bool {
		if desc {
			return perfiles[i].Nombre > perfiles[j].Nombre
		}
		return perfiles[i].Nombre < perfiles[j].Nombre
	})
	return perfiles, nil
}

func (repo *perfilRepository) GetPerfil(_ context.Context, id string) (perfil.Perfil, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.perfiles[id]; ok {
		return *p, nil
	}
	return perfil.Perfil{}, perfil.ErrNotFound
}

func (repo *perfilRepository) GetPerfilByEmail(_ context.Context, email string) (perfil.Perfil, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, p := range repo.db.perfiles {
		if strings.EqualFold(p.Email, email) {
			return *p, nil
		}
	}
	return perfil.Perfil{}, perfil.ErrNotFound
}

func (repo *perfilRepository) UpdatePerfil(_ context.Context, p perfil.Perfil) (perfil.Perfil, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.perfiles[p.ID]; !ok {
		return perfil.Perfil{}, perfil.ErrNotFound
	}
	repo.db.perfiles[p.ID] = &p
	return p, nil
}
