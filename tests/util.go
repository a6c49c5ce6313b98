package testutil

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/plataforma-apa/apa/core"
	"github.com/plataforma-apa/apa/core/asignacion"
	"github.com/plataforma-apa/apa/core/nino"
	"github.com/plataforma-apa/apa/core/perfil"
	"github.com/plataforma-apa/apa/core/zona"
)

// NopLogger discards everything.
type NopLogger struct{}

var _ core.Logger = (*NopLogger)(nil)

func (*NopLogger) Debug(string, ...interface{}) {}
func (*NopLogger) Info(string, ...interface{})  {}
func (*NopLogger) Warn(string, ...interface{})  {}
func (*NopLogger) Error(string, ...interface{}) {}
func (*NopLogger) Fatal(string, ...interface{}) {}

// AuthProviderMock is an in memory identity provider.
type AuthProviderMock struct {
	mu        sync.Mutex
	passwords map[string]string // {email: pwd}
	ids       map[string]string // {email: id}
	banned    map[string]bool   // {id: banned}
	recovered []string
}

var _ perfil.AuthProvider = (*AuthProviderMock)(nil)

func NewAuthProviderMock() *AuthProviderMock {
	return &AuthProviderMock{
		passwords: make(map[string]string),
		ids:       make(map[string]string),
		banned:    make(map[string]bool),
	}
}

// Register adds a user having `id` to the provider.
func (m *AuthProviderMock) Register(id, email, pwd string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(email)
	m.passwords[email] = pwd
	m.ids[email] = id
}

func (m *AuthProviderMock) session(id string) perfil.Session {
	return perfil.Session{
		AccessToken:  "access-" + id,
		RefreshToken: "refresh-" + id,
		ExpiresIn:    3600,
		TokenType:    "bearer",
		UserID:       id,
	}
}

func (m *AuthProviderMock) SignIn(_ context.Context, email, password string) (perfil.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pwd, ok := m.passwords[email]
	if !ok || pwd != password || m.banned[m.ids[email]] {
		return perfil.Session{}, perfil.ErrInvalidCredentials
	}
	return m.session(m.ids[email]), nil
}

func (m *AuthProviderMock) Refresh(_ context.Context, refreshToken string) (perfil.Session, error) {
	id := strings.TrimPrefix(refreshToken, "refresh-")
	if id == refreshToken || id == "" {
		return perfil.Session{}, perfil.ErrInvalidCredentials
	}
	return m.session(id), nil
}

func (m *AuthProviderMock) RecoverPassword(_ context.Context, email, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recovered = append(m.recovered, email)
	return nil
}

// Recovered lists the emails a password recovery was requested for.
func (m *AuthProviderMock) Recovered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.recovered...)
}

func (m *AuthProviderMock) CreateUser(_ context.Context, email, password string, _ map[string]interface{}) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ids[email]; ok {
		return "", perfil.ErrEmailExists
	}
	id := uuid.NewString()
	m.passwords[email] = password
	m.ids[email] = id
	return id, nil
}

func (m *AuthProviderMock) UpdateUser(_ context.Context, id string, upd perfil.AuthUserUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if upd.Banned != nil {
		m.banned[id] = *upd.Banned
	}
	if upd.Password != "" {
		for email, uid := range m.ids {
			if uid == id {
				m.passwords[email] = upd.Password
			}
		}
	}
	return nil
}

func (m *AuthProviderMock) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, uid := range m.ids {
		if uid == id {
			delete(m.ids, email)
			delete(m.passwords, email)
		}
	}
	delete(m.banned, id)
	return nil
}

// IsBanned reports whether the user `id` was banned.
func (m *AuthProviderMock) IsBanned(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.banned[id]
}

// AIMock is a deterministic core.Embedder & core.TextGenerator.
// Texts containing the same words get the same vector.
type AIMock struct {
	Dims   int
	Answer string

	mu      sync.Mutex
	prompts []string
}

var (
	_ core.Embedder      = (*AIMock)(nil)
	_ core.TextGenerator = (*AIMock)(nil)
)

func (m *AIMock) Embed(_ context.Context, texts []string, _ core.EmbeddingTask) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, m.Dims)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			var h uint32
			for _, r := range word {
				h = h*31 + uint32(r)
			}
			vec[h%uint32(m.Dims)]++
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (m *AIMock) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	return m.Answer, nil
}

// Prompts lists the prompts given to Generate.
func (m *AIMock) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.prompts...)
}

func CreatePerfil(
	t *testing.T,
	repo perfil.Repository,
	nombre, email, rol string,
	activo bool,
	createdAt ...time.Time,
) perfil.Perfil {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	p, err := repo.CreatePerfil(context.Background(), perfil.Perfil{
		ID:        uuid.NewString(),
		Nombre:    nombre,
		Email:     email,
		Rol:       rol,
		Activo:    activo,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreatePerfil() failed: %v", err)
	}
	return p
}

func CreateZona(t *testing.T, repo zona.Repository, nombre string) zona.Zona {
	z, err := repo.CreateZona(context.Background(), zona.Zona{Nombre: nombre, CreatedAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("CreateZona() failed: %v", err)
	}
	return z
}

func CreateNino(t *testing.T, repo nino.Repository, nombre, apellido, zonaID string, activo bool) nino.Nino {
	now := time.Now().UTC()
	n, err := repo.CreateNino(context.Background(), nino.Nino{
		Nombre:    nombre,
		Apellido:  apellido,
		ZonaID:    null.NewString(zonaID, zonaID != ""),
		Activo:    activo,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateNino() failed: %v", err)
	}
	return n
}

// Assign makes `vol` the active volunteer of `n`.
func Assign(t *testing.T, repo asignacion.Repository, n nino.Nino, vol perfil.Perfil) asignacion.Asignacion {
	now := time.Now().UTC()
	a, err := repo.Reassign(context.Background(), asignacion.Asignacion{
		NinoID:       n.ID,
		VoluntarioID: vol.ID,
		FechaInicio:  now,
		Activa:       true,
		CreatedAt:    now,
	})
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	return a
}
