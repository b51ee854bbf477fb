package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/siplan/siplan-skills/internal/core/domain"
)

// In-memory repository stubs shared by the service tests.

type stubCartorioRepo struct {
	mu        sync.Mutex
	cartorios map[string]*domain.Cartorio
	nextID    int
}

func newStubCartorioRepo() *stubCartorioRepo {
	return &stubCartorioRepo{cartorios: make(map[string]*domain.Cartorio)}
}

func (r *stubCartorioRepo) Create(ctx context.Context, c *domain.Cartorio) (*domain.Cartorio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *c
	cp.ID = fmt.Sprintf("cart-%d", r.nextID)
	r.cartorios[cp.ID] = &cp
	return &cp, nil
}

func (r *stubCartorioRepo) FindByID(ctx context.Context, id string) (*domain.Cartorio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cartorios[id]
	if !ok {
		return nil, domain.ErrCartorioNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCartorioRepo) List(ctx context.Context) ([]*domain.Cartorio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Cartorio, 0, len(r.cartorios))
	for _, c := range r.cartorios {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *stubCartorioRepo) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cartorios[id]
	if !ok {
		return domain.ErrCartorioNotFound
	}
	c.Ativo = active
	return nil
}

type stubUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.TenantUser // by ID
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.TenantUser)}
}

func (r *stubUserRepo) Create(ctx context.Context, u *domain.TenantUser) (*domain.TenantUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	cp := *u
	cp.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[cp.ID] = &cp
	return &cp, nil
}

func (r *stubUserRepo) FindByUsername(ctx context.Context, username string) (*domain.TenantUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(ctx context.Context, id string) (*domain.TenantUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

type stubTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.LoginToken // by ID
	nextID int
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{tokens: make(map[string]*domain.LoginToken)}
}

func (r *stubTokenRepo) Create(ctx context.Context, t *domain.LoginToken) (*domain.LoginToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *t
	cp.ID = fmt.Sprintf("token-%d", r.nextID)
	r.tokens[cp.ID] = &cp
	return &cp, nil
}

func (r *stubTokenRepo) FindByToken(ctx context.Context, token string) (*domain.LoginToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrLoginTokenNotFound
}

func (r *stubTokenRepo) ListByCartorio(ctx context.Context, cartorioID string) ([]*domain.LoginToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.LoginToken
	for _, t := range r.tokens {
		if t.CartorioID == cartorioID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *stubTokenRepo) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return domain.ErrLoginTokenNotFound
	}
	t.Ativo = active
	return nil
}

type stubIdentityRepo struct {
	mu         sync.Mutex
	identities map[string]*domain.BackendIdentity // by ID
	nextID     int
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{identities: make(map[string]*domain.BackendIdentity)}
}

func (r *stubIdentityRepo) Create(ctx context.Context, id *domain.BackendIdentity) (*domain.BackendIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.identities {
		if existing.Email == id.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	cp := *id
	cp.ID = fmt.Sprintf("ident-%d", r.nextID)
	r.identities[cp.ID] = &cp
	return &cp, nil
}

func (r *stubIdentityRepo) FindByEmail(ctx context.Context, email string) (*domain.BackendIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.identities {
		if i.Email == email {
			cp := *i
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubIdentityRepo) FindByID(ctx context.Context, id string) (*domain.BackendIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.identities[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *i
	return &cp, nil
}

func (r *stubIdentityRepo) FindOrCreateForTenantUser(ctx context.Context, id *domain.BackendIdentity) (*domain.BackendIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.identities {
		if existing.TenantUserID == id.TenantUserID {
			cp := *existing
			return &cp, nil
		}
	}
	r.nextID++
	cp := *id
	cp.ID = fmt.Sprintf("ident-%d", r.nextID)
	r.identities[cp.ID] = &cp
	out := cp
	return &out, nil
}

type stubRefreshStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newStubRefreshStore() *stubRefreshStore {
	return &stubRefreshStore{tokens: make(map[string]string)}
}

func (s *stubRefreshStore) Save(ctx context.Context, token, identityID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = identityID
	return nil
}

func (s *stubRefreshStore) Get(ctx context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[token], nil
}

func (s *stubRefreshStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

type stubCatalogRepo struct {
	mu       sync.Mutex
	systems  []*domain.System
	products []*domain.Product
	lessons  []*domain.VideoLesson
	trilhas  []*domain.Trilha
	nextID   int
}

func newStubCatalogRepo() *stubCatalogRepo { return &stubCatalogRepo{} }

func (r *stubCatalogRepo) id(prefix string) string {
	r.nextID++
	return fmt.Sprintf("%s-%d", prefix, r.nextID)
}

func (r *stubCatalogRepo) CreateSystem(ctx context.Context, s *domain.System) (*domain.System, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	cp.ID = r.id("sys")
	r.systems = append(r.systems, &cp)
	out := cp
	return &out, nil
}

func (r *stubCatalogRepo) ListSystems(ctx context.Context) ([]*domain.System, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.System(nil), r.systems...), nil
}

func (r *stubCatalogRepo) DeleteSystem(ctx context.Context, id string) error { return nil }

func (r *stubCatalogRepo) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	cp.ID = r.id("prod")
	r.products = append(r.products, &cp)
	out := cp
	return &out, nil
}

func (r *stubCatalogRepo) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Product(nil), r.products...), nil
}

func (r *stubCatalogRepo) ListProductsBySystem(ctx context.Context, systemID string) ([]*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Product
	for _, p := range r.products {
		if p.SystemID == systemID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubCatalogRepo) DeleteProduct(ctx context.Context, id string) error { return nil }

func (r *stubCatalogRepo) CreateLesson(ctx context.Context, l *domain.VideoLesson) (*domain.VideoLesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	cp.ID = r.id("lesson")
	r.lessons = append(r.lessons, &cp)
	out := cp
	return &out, nil
}

func (r *stubCatalogRepo) FindLesson(ctx context.Context, id string) (*domain.VideoLesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lessons {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, domain.ErrLessonNotFound
}

func (r *stubCatalogRepo) ListLessons(ctx context.Context) ([]*domain.VideoLesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.VideoLesson(nil), r.lessons...), nil
}

func (r *stubCatalogRepo) ListLessonsByProduct(ctx context.Context, productID string) ([]*domain.VideoLesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.VideoLesson
	for _, l := range r.lessons {
		if l.ProductID == productID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *stubCatalogRepo) DeleteLesson(ctx context.Context, id string) error { return nil }

func (r *stubCatalogRepo) CreateTrilha(ctx context.Context, t *domain.Trilha) (*domain.Trilha, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	cp.ID = r.id("trilha")
	r.trilhas = append(r.trilhas, &cp)
	out := cp
	return &out, nil
}

func (r *stubCatalogRepo) ListTrilhas(ctx context.Context) ([]*domain.Trilha, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Trilha(nil), r.trilhas...), nil
}

func (r *stubCatalogRepo) DeleteTrilha(ctx context.Context, id string) error { return nil }

type stubGrantRepo struct {
	mu     sync.Mutex
	grants []*domain.AccessGrant
	nextID int
}

func newStubGrantRepo() *stubGrantRepo { return &stubGrantRepo{} }

func (r *stubGrantRepo) Create(ctx context.Context, g *domain.AccessGrant) (*domain.AccessGrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *g
	cp.ID = fmt.Sprintf("grant-%d", r.nextID)
	r.grants = append(r.grants, &cp)
	out := cp
	return &out, nil
}

func (r *stubGrantRepo) ListActiveByCartorio(ctx context.Context, cartorioID string) ([]*domain.AccessGrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AccessGrant
	for _, g := range r.grants {
		if g.CartorioID == cartorioID && g.Active {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *stubGrantRepo) ListByCartorio(ctx context.Context, cartorioID string) ([]*domain.AccessGrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AccessGrant
	for _, g := range r.grants {
		if g.CartorioID == cartorioID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *stubGrantRepo) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.grants {
		if g.ID == id {
			g.Active = false
			return nil
		}
	}
	return domain.ErrGrantNotFound
}

type stubProgressRepo struct {
	mu       sync.Mutex
	records  map[string]*domain.ProgressRecord // keyed by cartorio|user|lesson
	activity []*domain.ActivityEvent
	upserts  int
}

func newStubProgressRepo() *stubProgressRepo {
	return &stubProgressRepo{records: make(map[string]*domain.ProgressRecord)}
}

func progressKey(cartorioID, userID, lessonID string) string {
	return cartorioID + "|" + userID + "|" + lessonID
}

func (r *stubProgressRepo) Upsert(ctx context.Context, rec *domain.ProgressRecord) (*domain.ProgressRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	key := progressKey(rec.CartorioID, rec.UserID, rec.VideoLessonID)
	cp := *rec
	if existing, ok := r.records[key]; ok {
		cp.ID = existing.ID
	} else {
		cp.ID = fmt.Sprintf("prog-%d", len(r.records)+1)
	}
	r.records[key] = &cp
	out := cp
	return &out, nil
}

func (r *stubProgressRepo) ListByUser(ctx context.Context, cartorioID, userID string) ([]*domain.ProgressRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ProgressRecord
	for _, rec := range r.records {
		if rec.CartorioID == cartorioID && rec.UserID == userID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *stubProgressRepo) InsertActivity(ctx context.Context, ev *domain.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activity = append(r.activity, ev)
	return nil
}

type stubDedup struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newStubDedup() *stubDedup { return &stubDedup{seen: make(map[string]bool)} }

func dedupKey(cartorioID, userID, lessonID string, completed bool) string {
	return fmt.Sprintf("%s|%s|%s|%v", cartorioID, userID, lessonID, completed)
}

func (d *stubDedup) IsDuplicate(ctx context.Context, cartorioID, userID, lessonID string, completed bool) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	return d.seen[dedupKey(cartorioID, userID, lessonID, completed)], nil
}

func (d *stubDedup) Mark(ctx context.Context, cartorioID, userID, lessonID string, completed bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[dedupKey(cartorioID, userID, lessonID, completed)] = true
	return nil
}

type stubAdminRepo struct {
	mu     sync.Mutex
	admins map[string]*domain.AdminProfile // by email
	nextID int
}

func newStubAdminRepo() *stubAdminRepo {
	return &stubAdminRepo{admins: make(map[string]*domain.AdminProfile)}
}

func (r *stubAdminRepo) Create(ctx context.Context, a *domain.AdminProfile) (*domain.AdminProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[a.Email]; ok {
		return nil, domain.ErrAdminExists
	}
	r.nextID++
	cp := *a
	cp.ID = fmt.Sprintf("admin-%d", r.nextID)
	r.admins[cp.Email] = &cp
	out := cp
	return &out, nil
}

func (r *stubAdminRepo) FindByEmail(ctx context.Context, email string) (*domain.AdminProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[email]
	if !ok {
		return nil, domain.ErrAdminNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *stubAdminRepo) List(ctx context.Context) ([]*domain.AdminProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.AdminProfile, 0, len(r.admins))
	for _, a := range r.admins {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (r *stubAdminRepo) Delete(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.admins, email)
	return nil
}

type stubStatusCache struct {
	mu      sync.Mutex
	entries map[string]bool
	gets    int
	hits    int
}

func newStubStatusCache() *stubStatusCache {
	return &stubStatusCache{entries: make(map[string]bool)}
}

func (c *stubStatusCache) Get(ctx context.Context, email string) (*bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	v, ok := c.entries[email]
	if !ok {
		return nil, nil
	}
	c.hits++
	cp := v
	return &cp, nil
}

func (c *stubStatusCache) Set(ctx context.Context, email string, isAdmin bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[email] = isAdmin
	return nil
}

func (c *stubStatusCache) Invalidate(ctx context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, email)
	return nil
}
