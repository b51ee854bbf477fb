package sessioncore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Revalidation thresholds. A hidden or unfocused client only rechecks its
// session after being away long enough to matter.
const (
	defaultRevalidateInterval = 5 * time.Minute
	visibleRevalidateAfter    = 30 * time.Second
	focusRevalidateAfter      = 60 * time.Second
)

// ReconcilerConfig wires the collaborators of a Reconciler.
type ReconcilerConfig struct {
	Store    SessionStore
	Backend  Backend
	Exchange Exchanger
	Logger   zerolog.Logger

	// RevalidateInterval overrides the periodic session recheck cadence.
	// Zero means the default of five minutes.
	RevalidateInterval time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Reconciler is the single authority over the current identity. It merges
// the persisted tenant session, the backend-native admin session, and the
// roster check into one AuthState, with tenant sessions always winning
// over a simultaneous backend session.
type Reconciler struct {
	store    SessionStore
	backend  Backend
	exchange Exchanger
	log      zerolog.Logger
	interval time.Duration
	now      func() time.Time

	mu          sync.Mutex
	state       AuthState
	initStarted bool
	terminated  bool
	initDone    chan struct{}
	subs        map[int]func(AuthState)
	nextSub     int
	adminCache  map[string]bool
	unsubscribe func()
	stop        chan struct{}
	wg          sync.WaitGroup
}

func NewReconciler(cfg ReconcilerConfig) (*Reconciler, error) {
	if cfg.Store == nil || cfg.Backend == nil || cfg.Exchange == nil {
		return nil, errors.New("sessioncore: store, backend and exchange are required")
	}
	interval := cfg.RevalidateInterval
	if interval <= 0 {
		interval = defaultRevalidateInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Reconciler{
		store:      cfg.Store,
		backend:    cfg.Backend,
		exchange:   cfg.Exchange,
		log:        cfg.Logger,
		interval:   interval,
		now:        now,
		state:      AuthState{Identity: anonymousIdentity(), IsLoading: true},
		initDone:   make(chan struct{}),
		subs:       make(map[int]func(AuthState)),
		adminCache: make(map[string]bool),
		stop:       make(chan struct{}),
	}, nil
}

// State returns the current consolidated snapshot.
func (r *Reconciler) State() AuthState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Subscribe registers fn for state updates. fn is invoked immediately
// with the current snapshot, then on every change. The returned function
// removes the registration; calling it twice is safe.
func (r *Reconciler) Subscribe(fn func(AuthState)) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	snapshot := r.state
	r.mu.Unlock()

	fn(snapshot)

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}
}

// Init resolves the startup identity exactly once. Concurrent and repeat
// calls wait for the first resolution and return its outcome; none of
// them trigger a second storage read or backend probe.
func (r *Reconciler) Init(ctx context.Context) error {
	r.mu.Lock()
	if r.initStarted {
		r.mu.Unlock()
		select {
		case <-r.initDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.initStarted = true
	r.mu.Unlock()

	r.resolveStartup(ctx)

	// A single backend subscription for the whole lifetime.
	unsub := r.backend.OnSessionChange(r.onBackendEvent)
	r.mu.Lock()
	r.unsubscribe = unsub
	r.mu.Unlock()

	r.wg.Add(1)
	go r.revalidateLoop()

	close(r.initDone)
	return nil
}

// resolveStartup applies the startup precedence: a persisted tenant
// record wins outright and the backend is not even probed.
func (r *Reconciler) resolveStartup(ctx context.Context) {
	record, err := r.store.Load()
	if err != nil {
		// Degrade to anonymous rather than wedge startup.
		r.log.Warn().Err(err).Msg("session store unreadable, starting anonymous")
	}
	if record != nil {
		r.setState(func(s *AuthState) {
			s.Identity = identityFromRecord(record)
			s.IsLoading = false
			s.IsInitialized = true
			s.LastError = nil
		})
		return
	}

	session, err := r.backend.CurrentSession(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("backend session probe failed, starting anonymous")
	}
	if session == nil {
		r.setState(func(s *AuthState) {
			s.Identity = anonymousIdentity()
			s.IsLoading = false
			s.IsInitialized = true
		})
		return
	}

	r.adoptBackendSession(ctx, session, true)
}

// onBackendEvent keeps the reconciled state in step with backend session
// transitions. While a tenant session is active, backend events are
// ignored: the tenant identity is the authority.
func (r *Reconciler) onBackendEvent(event SessionEvent, session *Session) {
	r.mu.Lock()
	kind := r.state.Identity.Kind
	r.mu.Unlock()

	if kind == KindTenant {
		r.log.Debug().Str("event", string(event)).Msg("ignoring backend event during tenant session")
		return
	}

	switch event {
	case EventSignedIn:
		r.adoptBackendSession(context.Background(), session, false)
	case EventTokenRefreshed:
		if session == nil {
			return
		}
		r.setState(func(s *AuthState) {
			if s.Identity.IsAdmin() {
				s.Identity.Admin = adminIdentityFromSession(session)
			}
		})
	case EventSignedOut:
		r.setState(func(s *AuthState) {
			if s.Identity.IsAdmin() {
				s.Identity = anonymousIdentity()
			}
		})
	}
}

// adoptBackendSession admits a backend session as AdminActive only when
// its email passes the roster check. Anyone else is signed back out.
// markInitialized is set on the startup path so the first published state
// already carries IsInitialized.
func (r *Reconciler) adoptBackendSession(ctx context.Context, session *Session, markInitialized bool) {
	if session == nil {
		return
	}

	admitted, err := r.checkRoster(ctx, session.Email)
	if err != nil || !admitted {
		if err != nil {
			r.log.Warn().Err(err).Str("email", session.Email).Msg("roster check failed, demoting session")
		}
		// Release before SignOut: it re-enters onBackendEvent.
		r.setState(func(s *AuthState) {
			s.Identity = anonymousIdentity()
			s.IsLoading = false
			if markInitialized {
				s.IsInitialized = true
			}
			s.LastError = newAuthError(KindAccessDenied, "Acesso negado.", err)
		})
		if signOutErr := r.backend.SignOut(ctx); signOutErr != nil {
			r.log.Warn().Err(signOutErr).Msg("sign-out after roster rejection failed")
		}
		return
	}

	r.setState(func(s *AuthState) {
		s.Identity = Identity{
			Kind:  KindAdmin,
			Admin: adminIdentityFromSession(session),
		}
		s.IsLoading = false
		if markInitialized {
			s.IsInitialized = true
		}
		s.LastError = nil
	})
}

// checkRoster consults the per-email cache before asking the backend.
// The cache is flushed on logout so a roster change is picked up by the
// next sign-in.
func (r *Reconciler) checkRoster(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	cached, ok := r.adminCache[email]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	admitted, err := r.backend.IsAdmin(ctx, email)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	r.adminCache[email] = admitted
	r.mu.Unlock()
	return admitted, nil
}

// LoginTenant performs the tenant login exchange and, on success, makes
// the tenant identity current, persisting it for the next run. On failure
// the previous identity is untouched.
func (r *Reconciler) LoginTenant(ctx context.Context, username, loginToken string) error {
	r.setState(func(s *AuthState) {
		s.IsLoading = true
		s.LastError = nil
	})

	tenant, err := r.exchange.Exchange(ctx, username, loginToken)
	if err != nil {
		authErr := asAuthError(err)
		r.setState(func(s *AuthState) {
			s.IsLoading = false
			s.LastError = authErr
		})
		return authErr
	}

	// Tenant authority displaces any backend session.
	r.mu.Lock()
	wasAdmin := r.state.Identity.IsAdmin()
	r.mu.Unlock()
	if wasAdmin {
		r.log.Warn().Str("username", tenant.Username).Msg("tenant login during admin session, signing backend out")
		if err := r.backend.SignOut(ctx); err != nil {
			r.log.Warn().Err(err).Msg("backend sign-out before tenant login failed")
		}
	}

	record := recordFromIdentity(tenant)
	if err := r.store.Save(record); err != nil {
		// The session still works for this run; it just will not survive
		// a restart.
		r.log.Warn().Err(err).Msg("persisting tenant session failed")
	} else if loaded, loadErr := r.store.Load(); loadErr == nil && loaded != nil {
		// Adopt the stored copy so this process and the record on disk
		// can never disagree.
		tenant = identityFromRecord(loaded).Tenant
	}

	r.setState(func(s *AuthState) {
		s.Identity = Identity{Kind: KindTenant, Tenant: tenant}
		s.IsLoading = false
		s.LastError = nil
	})
	return nil
}

// LoginAdmin signs into the backend. The session-change event performs
// the roster gating, so by the time SignIn returns the state already
// reflects the outcome; a roster rejection is surfaced as AccessDenied.
// While a tenant session is active the attempt is rejected outright:
// the backend is never signed in, because its sign-in event would be
// dropped under tenant precedence and the session would leak.
func (r *Reconciler) LoginAdmin(ctx context.Context, email, password string) error {
	r.mu.Lock()
	tenantActive := r.state.Identity.IsTenant()
	r.mu.Unlock()
	if tenantActive {
		authErr := newAuthError(KindAccessDenied, "tenant session active, log out first", nil)
		r.setState(func(s *AuthState) {
			s.IsLoading = false
			s.LastError = authErr
		})
		return authErr
	}

	r.setState(func(s *AuthState) {
		s.IsLoading = true
		s.LastError = nil
	})

	if _, err := r.backend.SignIn(ctx, email, password); err != nil {
		authErr := asAuthError(err)
		r.setState(func(s *AuthState) {
			s.IsLoading = false
			s.LastError = authErr
		})
		return authErr
	}

	state := r.State()
	if state.LastError != nil {
		return state.LastError
	}
	if !state.Identity.IsAdmin() {
		// A tenant login raced the sign-in and won; undo the backend
		// session that nothing adopted.
		if err := r.backend.SignOut(ctx); err != nil {
			r.log.Warn().Err(err).Msg("backend sign-out after displaced admin login failed")
		}
		authErr := newAuthError(KindAccessDenied, "tenant session active, log out first", nil)
		r.setState(func(s *AuthState) {
			s.IsLoading = false
			s.LastError = authErr
		})
		return authErr
	}
	return nil
}

// Logout clears whichever session is active. It is idempotent: logging
// out while anonymous is a no-op and never an error.
func (r *Reconciler) Logout(ctx context.Context) error {
	r.mu.Lock()
	kind := r.state.Identity.Kind
	r.adminCache = make(map[string]bool)
	r.mu.Unlock()

	switch kind {
	case KindTenant:
		if err := r.store.Clear(); err != nil {
			r.log.Warn().Err(err).Msg("clearing persisted session failed")
		}
		r.setState(func(s *AuthState) {
			s.Identity = anonymousIdentity()
			s.LastError = nil
		})
	case KindAdmin:
		// The sign-out event transitions the state.
		if err := r.backend.SignOut(ctx); err != nil {
			r.log.Warn().Err(err).Msg("backend sign-out failed")
		}
		r.setState(func(s *AuthState) {
			s.Identity = anonymousIdentity()
			s.LastError = nil
		})
	}
	return nil
}

// HandleSessionExpired is invoked when a data request is rejected with an
// expired token. The dead session is discarded and the state surfaces
// SessionExpired so the UI can route to the login screen.
func (r *Reconciler) HandleSessionExpired(ctx context.Context) {
	r.mu.Lock()
	kind := r.state.Identity.Kind
	r.mu.Unlock()

	switch kind {
	case KindTenant:
		if err := r.store.Clear(); err != nil {
			r.log.Warn().Err(err).Msg("clearing expired session failed")
		}
	case KindAdmin:
		if err := r.backend.SignOut(ctx); err != nil {
			r.log.Warn().Err(err).Msg("backend sign-out after expiry failed")
		}
	default:
		return
	}

	r.setState(func(s *AuthState) {
		s.Identity = anonymousIdentity()
		s.LastError = newAuthError(KindSessionExpired, "token expired", nil)
	})
}

// NotifyVisible tells the reconciler the client became visible again
// after being hidden for the given duration.
func (r *Reconciler) NotifyVisible(ctx context.Context, hiddenFor time.Duration) {
	if hiddenFor > visibleRevalidateAfter {
		r.revalidate(ctx)
	}
}

// NotifyFocus tells the reconciler the client regained focus after the
// given duration without it.
func (r *Reconciler) NotifyFocus(ctx context.Context, unfocusedFor time.Duration) {
	if unfocusedFor > focusRevalidateAfter {
		r.revalidate(ctx)
	}
}

// revalidate rechecks that the active session is still viable. Admin
// sessions refresh through the backend; tenant tokens are inspected for
// expiry locally since only the server can mint a new one.
func (r *Reconciler) revalidate(ctx context.Context) {
	state := r.State()

	switch state.Identity.Kind {
	case KindAdmin:
		if _, err := r.backend.CurrentSession(ctx); err != nil {
			r.log.Warn().Err(err).Msg("admin session revalidation failed")
			r.setState(func(s *AuthState) {
				s.Identity = anonymousIdentity()
				s.LastError = newAuthError(KindSessionExpired, "token expired", err)
			})
		}
	case KindTenant:
		if tenantTokenExpired(state.Identity.Tenant.SignedSessionToken, r.now()) {
			r.log.Info().Msg("tenant session token expired")
			r.HandleSessionExpired(ctx)
		}
	}
}

func (r *Reconciler) revalidateLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.revalidate(context.Background())
		case <-r.stop:
			return
		}
	}
}

// Close tears the reconciler down: the backend subscription is removed,
// the revalidation loop stops, and no further state is published.
func (r *Reconciler) Close() {
	r.mu.Lock()
	if r.terminated {
		r.mu.Unlock()
		return
	}
	r.terminated = true
	unsub := r.unsubscribe
	r.subs = make(map[int]func(AuthState))
	r.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	close(r.stop)
	r.wg.Wait()
}

// setState mutates the state under the lock, then notifies subscribers
// outside of it.
func (r *Reconciler) setState(mutate func(*AuthState)) {
	r.mu.Lock()
	if r.terminated {
		r.mu.Unlock()
		return
	}
	mutate(&r.state)
	snapshot := r.state
	fns := make([]func(AuthState), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

func adminIdentityFromSession(session *Session) *AdminIdentity {
	return &AdminIdentity{
		IdentityID:  session.IdentityID,
		Email:       session.Email,
		AccessToken: session.AccessToken,
	}
}

func identityFromRecord(record *PersistedSession) Identity {
	return Identity{
		Kind: KindTenant,
		Tenant: &TenantIdentity{
			UserID:             record.UserID,
			Username:           record.Username,
			Email:              record.Email,
			CartorioID:         record.CartorioID,
			CartorioNome:       record.CartorioNome,
			SignedSessionToken: record.SignedSessionToken,
			RefreshToken:       record.RefreshToken,
		},
	}
}

func recordFromIdentity(tenant *TenantIdentity) *PersistedSession {
	return &PersistedSession{
		Type:               sessionRecordType,
		UserID:             tenant.UserID,
		Username:           tenant.Username,
		Email:              tenant.Email,
		CartorioID:         tenant.CartorioID,
		CartorioNome:       tenant.CartorioNome,
		SignedSessionToken: tenant.SignedSessionToken,
		RefreshToken:       tenant.RefreshToken,
	}
}

// tenantTokenExpired reads the token's exp claim without verifying the
// signature; verification belongs to the server, the client only needs
// to know whether presenting the token is still worthwhile.
func tenantTokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}

func asAuthError(err error) *AuthError {
	if ae, ok := err.(*AuthError); ok {
		return ae
	}
	return newAuthError(KindServerError, err.Error(), err)
}
