// Package session owns the auth token lifecycle: login, logout, restore on
// start, proactive refresh scheduling, and the post-login fan-out to the
// collaborators that depend on a session existing.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vidgate/vidgate/internal/model"
	"github.com/vidgate/vidgate/internal/provider"
	"github.com/vidgate/vidgate/internal/storage"
)

// refreshWindow is how far before token expiry the proactive refresh fires.
const refreshWindow = 5 * time.Minute

// Reconciler re-fetches subscription state; Clear drops it on logout.
type Reconciler interface {
	Reconcile(ctx context.Context, delay time.Duration) error
	Clear()
}

// ShelfSync restores personal shelves for the current session state.
type ShelfSync interface {
	Restore(ctx context.Context) error
}

// Notifier manages the push channel for a logged-in account.
type Notifier interface {
	Subscribe(accountID string)
	Close()
}

// Invalidator drops cached entitlement verdicts.
type Invalidator interface {
	Invalidate()
}

// Manager is the root of the engine: nothing else is usable until it has
// established a session state, logged-in or explicitly anonymous.
type Manager struct {
	logger   *slog.Logger
	store    *storage.Store
	resolver *provider.Resolver

	reconciler   Reconciler
	shelves      ShelfSync
	notifier     Notifier
	entitlements Invalidator

	mu         sync.Mutex
	session    *model.AuthSession
	account    *model.Account
	epoch      uint64
	visible    bool
	refreshing bool
	timer      *time.Timer

	now func() time.Time
}

func NewManager(store *storage.Store, resolver *provider.Resolver, logger *slog.Logger) *Manager {
	return &Manager{
		logger:   logger,
		store:    store,
		resolver: resolver,
		visible:  true,
		now:      time.Now,
	}
}

// Attach wires the collaborators triggered by session transitions. Called
// once during startup, before Restore.
func (m *Manager) Attach(rec Reconciler, shelves ShelfSync, notifier Notifier, ents Invalidator) {
	m.reconciler = rec
	m.shelves = shelves
	m.notifier = notifier
	m.entitlements = ents
}

// Credentials returns the current access token and account id. ok is false
// when anonymous.
func (m *Manager) Credentials() (accessToken, accountID string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil || m.account == nil {
		return "", "", false
	}
	return m.session.AccessToken, m.account.ID, true
}

// Epoch increments on every login and logout. Delayed work captures it and
// no-ops when it changed underneath.
func (m *Manager) Epoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// Account returns the cached account, or nil when anonymous.
func (m *Manager) Account() *model.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account
}

// ExternalData returns the account's shelf mirror when one is loaded.
func (m *Manager) ExternalData() (*model.ExternalData, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.account == nil || m.account.ExternalData == nil {
		return nil, false
	}
	return m.account.ExternalData, true
}

// Restore re-establishes the session from persisted state on process start.
// It never returns an error for a merely-unusable stored session; the app
// continues anonymously. Shelves are installed either way: the post-login
// sequence handles the logged-in case, the anonymous exit falls back to the
// local copies.
func (m *Manager) Restore(ctx context.Context) error {
	err := m.restoreSession(ctx)

	if _, _, ok := m.Credentials(); !ok && m.shelves != nil {
		if serr := m.shelves.Restore(ctx); serr != nil {
			m.logger.Warn("restore: local shelves", "error", serr)
		}
	}
	return err
}

func (m *Manager) restoreSession(ctx context.Context) error {
	var stored model.AuthSession
	ok, err := m.store.GetJSON(storage.KeySession, &stored)
	if err != nil {
		m.logger.Warn("restore: read persisted session", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	normalize(&stored)

	if !stored.Refreshable() || !m.resolver.Features().CanRefreshToken {
		if stored.ExpiresWithin(0, m.now()) {
			// Expiring-only session already expired: clear and stay anonymous.
			if err := m.store.Remove(storage.KeySession); err != nil {
				m.logger.Warn("restore: clear expired session", "error", err)
			}
			return nil
		}
		m.install(&stored, nil)
		return m.completeRestore(ctx)
	}

	fresh, err := m.resolver.Identity().GetFreshToken(ctx, &stored)
	if err != nil {
		if errors.Is(err, model.ErrCredentialInvalid) {
			if rerr := m.store.Remove(storage.KeySession); rerr != nil {
				m.logger.Warn("restore: clear rejected session", "error", rerr)
			}
			return nil
		}
		// Generic/network failure: one failed call does not mean the user is
		// logged out. Keep the stale session; the refresh timer retries.
		m.logger.Warn("restore: silent refresh failed, keeping stale session", "error", err)
		m.install(&stored, nil)
		return nil
	}
	normalize(fresh)
	m.install(fresh, nil)
	return m.completeRestore(ctx)
}

func (m *Manager) completeRestore(ctx context.Context) error {
	m.mu.Lock()
	token := m.session.AccessToken
	m.mu.Unlock()

	acct, err := m.resolver.Identity().GetUser(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrCredentialInvalid) {
			return m.Logout(ctx)
		}
		m.logger.Warn("restore: load account", "error", err)
		return nil
	}
	m.mu.Lock()
	m.account = acct
	m.mu.Unlock()

	m.postLogin(ctx)
	return nil
}

// Login authenticates and runs the post-login sequence. Credential and
// validation failures propagate unchanged for the form to render.
func (m *Manager) Login(ctx context.Context, email, password string) (*model.Account, error) {
	deviceID, err := m.store.DeviceID()
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	sess, acct, err := m.resolver.Identity().Login(ctx, email, password, deviceID)
	if err != nil {
		return nil, err
	}
	normalize(sess)
	m.install(sess, acct)
	m.postLogin(ctx)
	return acct, nil
}

// Register creates an account and logs it in, with the same post-login
// sequence as Login.
func (m *Manager) Register(ctx context.Context, email, password string) (*model.Account, error) {
	deviceID, err := m.store.DeviceID()
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	sess, acct, err := m.resolver.Identity().Register(ctx, email, password, deviceID)
	if err != nil {
		return nil, err
	}
	normalize(sess)
	m.install(sess, acct)
	m.postLogin(ctx)
	return acct, nil
}

// Logout clears all session-derived state. Calling it while anonymous is a
// no-op; the backend notification is best-effort and never blocks the local
// logout.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return nil
	}
	token := m.session.AccessToken
	m.session = nil
	m.account = nil
	m.epoch++
	m.stopTimerLocked()
	m.mu.Unlock()

	if m.entitlements != nil {
		m.entitlements.Invalidate()
	}
	if m.reconciler != nil {
		m.reconciler.Clear()
	}
	if m.notifier != nil {
		m.notifier.Close()
	}
	if err := m.store.Remove(storage.KeySession); err != nil {
		m.logger.Warn("logout: clear persisted session", "error", err)
	}
	if m.shelves != nil {
		// Shelves fall back to their local-only copies.
		if err := m.shelves.Restore(ctx); err != nil {
			m.logger.Warn("logout: restore local shelves", "error", err)
		}
	}
	if err := m.resolver.Identity().Logout(ctx, token); err != nil {
		m.logger.Warn("logout: notify backend", "error", err)
	}
	return nil
}

// ForceLogout is the push-driven variant: same semantics, logged louder.
func (m *Manager) ForceLogout(ctx context.Context) {
	m.logger.Info("forced logout requested by backend")
	if err := m.Logout(ctx); err != nil {
		m.logger.Error("forced logout", "error", err)
	}
}

// Refresh exchanges the current session for a fresh token pair. Any failure
// forces a logout.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return model.ErrUnauthenticated
	}
	if m.refreshing {
		// A refresh is already in flight; don't stack another.
		m.mu.Unlock()
		return nil
	}
	m.refreshing = true
	current := m.session
	m.mu.Unlock()

	fresh, err := m.resolver.Identity().GetFreshToken(ctx, current)

	m.mu.Lock()
	m.refreshing = false
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("token refresh failed, logging out", "error", err)
		if lerr := m.Logout(ctx); lerr != nil {
			m.logger.Error("logout after failed refresh", "error", lerr)
		}
		return fmt.Errorf("refresh: %w", err)
	}

	normalize(fresh)
	m.mu.Lock()
	m.session = fresh
	m.persistLocked()
	m.scheduleRefreshLocked()
	recovering := m.account == nil
	m.mu.Unlock()

	if recovering {
		// The session survived an earlier failed restore without an account
		// load. Now that the backend is reachable again, finish the job.
		return m.completeRestore(ctx)
	}
	return nil
}

// SetVisible tracks host page visibility. Hiding cancels the pending refresh
// timer; becoming visible refreshes immediately when inside the expiry
// window, otherwise re-arms the timer for the remaining interval.
func (m *Manager) SetVisible(visible bool) {
	m.mu.Lock()
	m.visible = visible
	if !visible {
		m.stopTimerLocked()
		m.mu.Unlock()
		return
	}
	refreshNow := m.session.Refreshable() && m.session.ExpiresWithin(refreshWindow, m.now())
	if !refreshNow {
		m.scheduleRefreshLocked()
	}
	m.mu.Unlock()

	if refreshNow {
		go func() {
			if err := m.Refresh(context.Background()); err != nil {
				m.logger.Warn("refresh on visibility", "error", err)
			}
		}()
	}
}

// UpdateAccount pushes profile changes and replaces the cached account.
func (m *Manager) UpdateAccount(ctx context.Context, update model.AccountUpdate) (*model.Account, error) {
	token, accountID, ok := m.Credentials()
	if !ok {
		return nil, model.ErrUnauthenticated
	}
	acct, err := m.resolver.Identity().UpdateCustomer(ctx, token, accountID, update)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.account = acct
	m.mu.Unlock()
	return acct, nil
}

// UpdateExternalData mirrors shelf state onto the account record.
func (m *Manager) UpdateExternalData(ctx context.Context, ed model.ExternalData) error {
	_, err := m.UpdateAccount(ctx, model.AccountUpdate{ExternalData: &ed})
	return err
}

// ResetPassword starts the anonymous password-reset flow.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	return m.resolver.Identity().ResetPassword(ctx, email)
}

// ChangePassword changes the password of the logged-in account.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	token, _, ok := m.Credentials()
	if !ok {
		return model.ErrUnauthenticated
	}
	return m.resolver.Identity().ChangePasswordWithOldPassword(ctx, token, oldPassword, newPassword)
}

// ChangePasswordWithToken completes a reset-token password change.
func (m *Manager) ChangePasswordWithToken(ctx context.Context, resetToken, newPassword string) error {
	return m.resolver.Identity().ChangePasswordWithToken(ctx, resetToken, newPassword)
}

// install replaces the session (and account, when provided), persists it,
// bumps the epoch, and arms the refresh timer.
func (m *Manager) install(sess *model.AuthSession, acct *model.Account) {
	m.mu.Lock()
	m.session = sess
	if acct != nil {
		m.account = acct
	}
	m.epoch++
	m.persistLocked()
	m.scheduleRefreshLocked()
	m.mu.Unlock()
}

// postLogin runs the fan-out shared by login, registration and restore:
// push channel, shelves, and (for subscription access models) reconciliation.
func (m *Manager) postLogin(ctx context.Context) {
	m.mu.Lock()
	acct := m.account
	m.mu.Unlock()

	if m.notifier != nil && acct != nil {
		// Best-effort: a dead push channel must not block login.
		m.notifier.Subscribe(acct.ID)
	}
	if m.shelves != nil {
		if err := m.shelves.Restore(ctx); err != nil {
			m.logger.Warn("post-login: restore shelves", "error", err)
		}
	}
	if m.reconciler != nil && m.resolver.Features().SupportsSubscriptions {
		if err := m.reconciler.Reconcile(ctx, 0); err != nil {
			m.logger.Warn("post-login: reconcile subscription", "error", err)
		}
	}
}

func (m *Manager) persistLocked() {
	if m.session == nil {
		return
	}
	if err := m.store.SetJSON(storage.KeySession, m.session); err != nil {
		m.logger.Warn("persist session", "error", err)
	}
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// scheduleRefreshLocked arms the single proactive refresh timer: it fires
// refreshWindow before expiry, or immediately when that point has passed.
// Non-refreshable sessions and hidden pages never get a timer.
func (m *Manager) scheduleRefreshLocked() {
	m.stopTimerLocked()
	if m.session == nil || !m.session.Refreshable() || !m.visible {
		return
	}
	if !m.resolver.Features().CanRefreshToken {
		return
	}
	delay := m.session.ExpiresAt.Add(-refreshWindow).Sub(m.now())
	if delay < 0 {
		delay = 0
	}
	epoch := m.epoch
	m.timer = time.AfterFunc(delay, func() {
		if m.Epoch() != epoch {
			return
		}
		if err := m.Refresh(context.Background()); err != nil {
			m.logger.Warn("scheduled refresh", "error", err)
		}
	})
}

// normalize backfills a missing expiry from the access token's exp claim.
func normalize(s *model.AuthSession) {
	if s == nil || !s.ExpiresAt.IsZero() {
		return
	}
	if exp, ok := provider.TokenExpiry(s.AccessToken); ok {
		s.ExpiresAt = exp
	}
}
