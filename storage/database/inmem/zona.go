package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/zona"
)

type zonaRepository struct {
	db *DB
}

var _ zona.Repository = (*zonaRepository)(nil) // interface compliance check

func NewZonaRepository(db *DB) *zonaRepository {
	return &zonaRepository{db: db}
}

func (repo *zonaRepository) CheckNameUniqueness(_ context.Context, nombre string, excludedIDs ...string) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, z := range repo.db.zonas {
		if strings.EqualFold(z.Nombre, nombre) && !core.Contains(excludedIDs, z.ID) {
			return zona.ErrNameExists
		}
	}
	return nil
}

func (repo *zonaRepository) CreateZona(ctx context.Context, z zona.Zona) (zona.Zona, error) {
	if err := repo.CheckNameUniqueness(ctx, z.Nombre); err != nil {
		return zona.Zona{}, err
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	z.ID = newID()
	repo.db.zonas[z.ID] = &z
	return z, nil
}

func (repo *zonaRepository) QueryZonas(_ context.Context) ([]zona.Zona, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	zonas := values(repo.db.zonas)
	sort.Slice(zonas, func(i, j int) bool { return zonas[i].Nombre < zonas[j].Nombre })
	return zonas, nil
}

func (repo *zonaRepository) GetZona(_ context.Context, id string) (zona.Zona, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if z, ok := repo.db.zonas[id]; ok {
		return *z, nil
	}
	return zona.Zona{}, zona.ErrNotFound
}

func (repo *zonaRepository) UpdateZona(ctx context.Context, z zona.Zona) (zona.Zona, error) {
	if err := repo.CheckNameUniqueness(ctx, z.Nombre, z.ID); err != nil {
		return zona.Zona{}, err
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.zonas[z.ID]; !ok {
		return zona.Zona{}, zona.ErrNotFound
	}
	repo.db.zonas[z.ID] = &z
	return z, nil
}

func (repo *zonaRepository) DeleteZona(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.zonas[id]; !ok {
		return zona.ErrNotFound
	}
	for _, n := range repo.db.ninos {
		if n.ZonaID.String == id {
			return zona.ErrInUse
		}
	}
	for _, p := range repo.db.perfiles {
		if p.ZonaID.String == id {
			return zona.ErrInUse
		}
	}
	delete(repo.db.zonas, id)
	return nil
}
