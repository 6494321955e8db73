// Package shelf keeps the per-user favorites and watch-history lists
// consistent across login and logout boundaries: local storage is the source
// of truth for anonymous use, the account record (or the provider's shelf
// endpoint) mirrors it for logged-in users on families that support it.
package shelf

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

// Continue-watching visibility thresholds and the shelf size cap. Items at or
// above maxProgress count as finished and leave the continue-watching view.
const (
	minProgress = 0.05
	maxProgress = 0.95
	maxItems    = 48
)

// ErrFavoritesFull is returned when the favorites shelf is at capacity.
var ErrFavoritesFull = errors.New("favorites list is full")

// Session exposes what the synchronizer needs from the session manager.
type Session interface {
	Credentials() (accessToken, accountID string, ok bool)
	ExternalData() (*model.ExternalData, bool)
	UpdateExternalData(ctx context.Context, ed model.ExternalData) error
}

// Synchronizer owns the in-memory shelf lists and their durable mirrors.
type Synchronizer struct {
	logger   *slog.Logger
	store    *storage.Store
	resolver *provider.Resolver
	session  Session

	mu        sync.RWMutex
	favorites []model.Favorite
	history   []model.WatchHistoryItem

	now func() time.Time
}

func NewSynchronizer(store *storage.Store, resolver *provider.Resolver, session Session, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		logger:   logger,
		store:    store,
		resolver: resolver,
		session:  session,
		now:      time.Now,
	}
}

// Restore installs the shelves for the current session state: the account
// mirror when the family supports it (falling back to the dedicated shelf
// endpoint), local storage otherwise. Runs on app start, after login, and
// after logout.
func (s *Synchronizer) Restore(ctx context.Context) error {
	token, accountID, loggedIn := s.session.Credentials()

	if loggedIn {
		if s.resolver.Features().SupportsExternalData {
			if ed, ok := s.session.ExternalData(); ok {
				s.installRefs(ed.Favorites, ed.History)
				return nil
			}
		}
		// No mirror on the account (or none supported): families with a
		// dedicated shelf endpoint restore from there.
		if p := s.resolver.Profile(); p != nil {
			favs, err := p.GetFavorites(ctx, token, accountID)
			if err != nil {
				return fmt.Errorf("restore favorites: %w", err)
			}
			hist, err := p.GetWatchHistory(ctx, token, accountID)
			if err != nil {
				return fmt.Errorf("restore watch history: %w", err)
			}
			s.installRefs(favs, hist)
			return nil
		}
	}

	var favorites []model.Favorite
	if _, err := s.store.GetJSON(storage.KeyFavorites, &favorites); err != nil {
		return fmt.Errorf("restore local favorites: %w", err)
	}
	var history []model.WatchHistoryItem
	if _, err := s.store.GetJSON(storage.KeyHistory, &history); err != nil {
		return fmt.Errorf("restore local history: %w", err)
	}

	s.mu.Lock()
	s.favorites = favorites
	s.history = history
	s.mu.Unlock()
	return nil
}

// Persist writes the shelves to local storage and, for logged-in users on
// mirror-capable families, onto the account record. The in-memory lists are
// never rolled back on failure; the next successful persist catches up.
func (s *Synchronizer) Persist(ctx context.Context) error {
	s.mu.RLock()
	favRefs := make([]model.FavoriteRef, 0, len(s.favorites))
	for _, f := range s.favorites {
		favRefs = append(favRefs, model.FavoriteRef{MediaID: f.MediaID})
	}
	histRefs := make([]model.HistoryRef, 0, len(s.history))
	for _, h := range s.history {
		histRefs = append(histRefs, model.HistoryRef{MediaID: h.MediaID, Progress: h.Progress})
	}
	favorites := append([]model.Favorite(nil), s.favorites...)
	history := append([]model.WatchHistoryItem(nil), s.history...)
	s.mu.RUnlock()

	if err := s.store.SetJSON(storage.KeyFavorites, favorites); err != nil {
		return fmt.Errorf("persist favorites: %w", err)
	}
	if err := s.store.SetJSON(storage.KeyHistory, history); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}

	// Logged in: push the compact shapes onto the account record for
	// mirror-capable families, or to the dedicated shelf endpoint when one
	// exists. Families with neither keep shelves local-only.
	if token, accountID, loggedIn := s.session.Credentials(); loggedIn {
		switch {
		case s.resolver.Features().SupportsExternalData:
			err := s.session.UpdateExternalData(ctx, model.ExternalData{
				Favorites: favRefs,
				History:   histRefs,
			})
			if err != nil {
				return fmt.Errorf("mirror shelves to account: %w", err)
			}
		case s.resolver.Profile() != nil:
			if err := s.resolver.Profile().SetFavorites(ctx, token, accountID, favRefs); err != nil {
				return fmt.Errorf("persist favorites: %w", err)
			}
			if err := s.resolver.Profile().SetWatchHistory(ctx, token, accountID, histRefs); err != nil {
				return fmt.Errorf("persist history: %w", err)
			}
		}
	}
	return nil
}

// installRefs replaces the in-memory shelves from their compact mirrored
// shapes.
func (s *Synchronizer) installRefs(favRefs []model.FavoriteRef, histRefs []model.HistoryRef) {
	favorites := make([]model.Favorite, 0, len(favRefs))
	for _, r := range favRefs {
		favorites = append(favorites, model.Favorite{MediaID: r.MediaID})
	}
	history := make([]model.WatchHistoryItem, 0, len(histRefs))
	for _, r := range histRefs {
		history = append(history, model.WatchHistoryItem{MediaID: r.MediaID, Progress: r.Progress})
	}

	s.mu.Lock()
	s.favorites = favorites
	s.history = history
	s.mu.Unlock()
}

// Favorites returns a copy of the favorites shelf.
func (s *Synchronizer) Favorites() []model.Favorite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Favorite(nil), s.favorites...)
}

// History returns a copy of the full watch history, most recent first.
func (s *Synchronizer) History() []model.WatchHistoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.WatchHistoryItem(nil), s.history...)
}

// ContinueWatching returns the history entries visible on the
// continue-watching shelf: started, not yet finished.
func (s *Synchronizer) ContinueWatching() []model.WatchHistoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.WatchHistoryItem
	for _, h := range s.history {
		if h.Progress > minProgress && h.Progress < maxProgress {
			out = append(out, h)
		}
	}
	return out
}

// HasFavorite reports whether mediaID is on the favorites shelf.
func (s *Synchronizer) HasFavorite(mediaID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.favorites {
		if f.MediaID == mediaID {
			return true
		}
	}
	return false
}

// ToggleFavorite adds or removes a favorite and persists the result.
func (s *Synchronizer) ToggleFavorite(ctx context.Context, fav model.Favorite) error {
	s.mu.Lock()
	removed := false
	for i, f := range s.favorites {
		if f.MediaID == fav.MediaID {
			s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		if len(s.favorites) >= maxItems {
			s.mu.Unlock()
			return ErrFavoritesFull
		}
		fav.AddedAt = s.now()
		s.favorites = append([]model.Favorite{fav}, s.favorites...)
	}
	s.mu.Unlock()

	return s.Persist(ctx)
}

// SaveProgress upserts a watch-history entry: zero progress is not recorded;
// an existing entry for the media id is updated in place and moved to the
// front; the oldest entry past the cap is evicted. The mutation always
// persists before returning.
func (s *Synchronizer) SaveProgress(ctx context.Context, mediaID, seriesID, title string, progress float64) error {
	if progress <= 0 {
		return nil
	}
	if progress > 1 {
		progress = 1
	}

	s.mu.Lock()
	entry := model.WatchHistoryItem{
		MediaID:   mediaID,
		SeriesID:  seriesID,
		Title:     title,
		Progress:  progress,
		UpdatedAt: s.now(),
	}
	for i, h := range s.history {
		if h.MediaID == mediaID {
			s.history = append(s.history[:i], s.history[i+1:]...)
			break
		}
	}
	s.history = append([]model.WatchHistoryItem{entry}, s.history...)
	if len(s.history) > maxItems {
		s.history = s.history[:maxItems]
	}
	s.mu.Unlock()

	return s.Persist(ctx)
}
