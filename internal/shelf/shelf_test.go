package shelf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/vidgate/vidgate/internal/database"
	"github.com/vidgate/vidgate/internal/model"
	"github.com/vidgate/vidgate/internal/provider"
	"github.com/vidgate/vidgate/internal/storage"
)

type fakeSession struct {
	mu       sync.Mutex
	loggedIn bool
	external *model.ExternalData
	mirrored *model.ExternalData
}

func (f *fakeSession) Credentials() (string, string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loggedIn {
		return "", "", false
	}
	return "tok", "acct-1", true
}

func (f *fakeSession) ExternalData() (*model.ExternalData, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.external == nil {
		return nil, false
	}
	return f.external, true
}

func (f *fakeSession) UpdateExternalData(ctx context.Context, ed model.ExternalData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mirrored = &ed
	return nil
}

func (f *fakeSession) lastMirror() *model.ExternalData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mirrored
}

func setupSynchronizer(t *testing.T, sess *fakeSession, features provider.Features) (*Synchronizer, *storage.Store) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := storage.New(db)

	resolver := provider.NewResolver()
	resolver.Configure(provider.Bundle{Name: "fake", Features: features})

	return NewSynchronizer(store, resolver, sess, slog.Default()), store
}

func TestSaveProgressUpsertsAndMovesToFront(t *testing.T) {
	s, _ := setupSynchronizer(t, &fakeSession{}, provider.Features{})
	ctx := context.Background()

	if err := s.SaveProgress(ctx, "ep-1", "show-1", "Pilot", 0.5); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveProgress(ctx, "ep-2", "show-1", "Episode 2", 0.3); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveProgress(ctx, "ep-1", "show-1", "Pilot", 0.9); err != nil {
		t.Fatalf("save: %v", err)
	}

	hist := s.History()
	if len(hist) != 2 {
		t.Fatalf("history length = %d, want 2", len(hist))
	}
	if hist[0].MediaID != "ep-1" || hist[0].Progress != 0.9 {
		t.Errorf("front entry = %+v, want ep-1 at 0.9", hist[0])
	}
}

func TestSaveProgressIgnoresZero(t *testing.T) {
	s, _ := setupSynchronizer(t, &fakeSession{}, provider.Features{})

	if err := s.SaveProgress(context.Background(), "ep-1", "", "", 0); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := len(s.History()); got != 0 {
		t.Errorf("history length = %d, want 0", got)
	}
}

func TestSaveProgressClampsAboveOne(t *testing.T) {
	s, _ := setupSynchronizer(t, &fakeSession{}, provider.Features{})

	if err := s.SaveProgress(context.Background(), "ep-1", "", "", 1.7); err != nil {
		t.Fatalf("save: %v", err)
	}
	hist := s.History()
	if len(hist) != 1 || hist[0].Progress != 1 {
		t.Errorf("history = %+v, want single entry at progress 1", hist)
	}
}

func TestSaveProgressEvictsOldestPastCap(t *testing.T) {
	s, _ := setupSynchronizer(t, &fakeSession{}, provider.Features{})
	ctx := context.Background()

	for i := 0; i <= maxItems; i++ {
		if err := s.SaveProgress(ctx, fmt.Sprintf("m-%d", i), "", "", 0.5); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	hist := s.History()
	if len(hist) != maxItems {
		t.Fatalf("history length = %d, want %d", len(hist), maxItems)
	}
	for _, h := range hist {
		if h.MediaID == "m-0" {
			t.Error("expected oldest entry m-0 evicted")
		}
	}
}

func TestContinueWatchingHidesFinishedAndBarelyStarted(t *testing.T) {
	s, _ := setupSynchronizer(t, &fakeSession{}, provider.Features{})
	ctx := context.Background()

	for _, e := range []struct {
		id string
		p  float64
	}{
		{"barely", 0.03},
		{"midway", 0.5},
		{"finished", 0.96},
	} {
		if err := s.SaveProgress(ctx, e.id, "", "", e.p); err != nil {
			t.Fatalf("save %s: %v", e.id, err)
		}
	}

	cw := s.ContinueWatching()
	if len(cw) != 1 {
		t.Fatalf("continue watching = %d entries, want 1: %+v", len(cw), cw)
	}
	if cw[0].MediaID != "midway" {
		t.Errorf("visible entry = %q, want midway", cw[0].MediaID)
	}
	// Full history keeps everything regardless of visibility thresholds.
	if got := len(s.History()); got != 3 {
		t.Errorf("history length = %d, want 3", got)
	}
}

func TestToggleFavoriteAddsAndRemoves(t *testing.T) {
	s, _ := setupSynchronizer(t, &fakeSession{}, provider.Features{})
	ctx := context.Background()
	fav := model.Favorite{MediaID: "movie-1", Title: "A Movie"}

	if err := s.ToggleFavorite(ctx, fav); err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if !s.HasFavorite("movie-1") {
		t.Fatal("expected favorite added")
	}
	if err := s.ToggleFavorite(ctx, fav); err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if s.HasFavorite("movie-1") {
		t.Error("expected favorite removed")
	}
}

func TestToggleFavoriteRejectsWhenFull(t *testing.T) {
	s, _ := setupSynchronizer(t, &fakeSession{}, provider.Features{})
	ctx := context.Background()

	for i := 0; i < maxItems; i++ {
		if err := s.ToggleFavorite(ctx, model.Favorite{MediaID: fmt.Sprintf("m-%d", i)}); err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
	}

	err := s.ToggleFavorite(ctx, model.Favorite{MediaID: "one-too-many"})
	if !errors.Is(err, ErrFavoritesFull) {
		t.Fatalf("err = %v, want ErrFavoritesFull", err)
	}
	// Removing an existing favorite still works at capacity.
	if err := s.ToggleFavorite(ctx, model.Favorite{MediaID: "m-0"}); err != nil {
		t.Errorf("toggle off at capacity: %v", err)
	}
}

func TestShelvesSurviveRestart(t *testing.T) {
	sess := &fakeSession{}
	s, store := setupSynchronizer(t, sess, provider.Features{})
	ctx := context.Background()

	if err := s.SaveProgress(ctx, "ep-1", "show-1", "Pilot", 0.4); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.ToggleFavorite(ctx, model.Favorite{MediaID: "movie-1"}); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	// Fresh synchronizer over the same storage, as after a restart.
	resolver := provider.NewResolver()
	resolver.Configure(provider.Bundle{Name: "fake"})
	s2 := NewSynchronizer(store, resolver, sess, slog.Default())
	if err := s2.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}

	if !s2.HasFavorite("movie-1") {
		t.Error("expected favorite restored")
	}
	hist := s2.History()
	if len(hist) != 1 || hist[0].MediaID != "ep-1" {
		t.Errorf("history = %+v, want ep-1", hist)
	}
}

func TestRestoreUsesAccountMirrorWhenLoggedIn(t *testing.T) {
	sess := &fakeSession{
		loggedIn: true,
		external: &model.ExternalData{
			Favorites: []model.FavoriteRef{{MediaID: "movie-9"}},
			History:   []model.HistoryRef{{MediaID: "ep-9", Progress: 0.6}},
		},
	}
	s, _ := setupSynchronizer(t, sess, provider.Features{SupportsExternalData: true})

	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !s.HasFavorite("movie-9") {
		t.Error("expected favorite from account mirror")
	}
	hist := s.History()
	if len(hist) != 1 || hist[0].MediaID != "ep-9" || hist[0].Progress != 0.6 {
		t.Errorf("history = %+v, want ep-9 at 0.6", hist)
	}
}

func TestPersistMirrorsCompactShapes(t *testing.T) {
	sess := &fakeSession{loggedIn: true}
	s, _ := setupSynchronizer(t, sess, provider.Features{SupportsExternalData: true})
	ctx := context.Background()

	if err := s.SaveProgress(ctx, "ep-1", "show-1", "Pilot", 0.4); err != nil {
		t.Fatalf("save: %v", err)
	}

	mirror := sess.lastMirror()
	if mirror == nil {
		t.Fatal("expected shelves mirrored onto account")
	}
	if len(mirror.History) != 1 {
		t.Fatalf("mirrored history = %d entries, want 1", len(mirror.History))
	}
	got := mirror.History[0]
	if got.MediaID != "ep-1" || got.Progress != 0.4 {
		t.Errorf("mirrored ref = %+v, want {ep-1 0.4}", got)
	}
}

type fakeProfile struct {
	mu        sync.Mutex
	favorites []model.FavoriteRef
	history   []model.HistoryRef
}

func (f *fakeProfile) GetFavorites(ctx context.Context, accessToken, accountID string) ([]model.FavoriteRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.favorites, nil
}

func (f *fakeProfile) SetFavorites(ctx context.Context, accessToken, accountID string, favorites []model.FavoriteRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.favorites = favorites
	return nil
}

func (f *fakeProfile) GetWatchHistory(ctx context.Context, accessToken, accountID string) ([]model.HistoryRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history, nil
}

func (f *fakeProfile) SetWatchHistory(ctx context.Context, accessToken, accountID string, history []model.HistoryRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = history
	return nil
}

func TestEndpointOnlyFamilyRoundtripsThroughProfile(t *testing.T) {
	// A family with a dedicated shelf endpoint but no account mirror: persist
	// writes through SetFavorites/SetWatchHistory, restore reads them back.
	sess := &fakeSession{loggedIn: true}
	profile := &fakeProfile{}
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	store := storage.New(db)

	resolver := provider.NewResolver()
	resolver.Configure(provider.Bundle{Name: "fake", Profile: profile})
	s := NewSynchronizer(store, resolver, sess, slog.Default())
	ctx := context.Background()

	if err := s.SaveProgress(ctx, "ep-1", "show-1", "Pilot", 0.4); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.ToggleFavorite(ctx, model.Favorite{MediaID: "movie-1"}); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	profile.mu.Lock()
	if len(profile.history) != 1 || profile.history[0].MediaID != "ep-1" {
		t.Errorf("endpoint history = %+v, want ep-1", profile.history)
	}
	if len(profile.favorites) != 1 || profile.favorites[0].MediaID != "movie-1" {
		t.Errorf("endpoint favorites = %+v, want movie-1", profile.favorites)
	}
	profile.mu.Unlock()

	s2 := NewSynchronizer(store, resolver, sess, slog.Default())
	if err := s2.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !s2.HasFavorite("movie-1") {
		t.Error("expected favorite restored from endpoint")
	}
	hist := s2.History()
	if len(hist) != 1 || hist[0].MediaID != "ep-1" || hist[0].Progress != 0.4 {
		t.Errorf("history = %+v, want ep-1 at 0.4", hist)
	}
	if sess.lastMirror() != nil {
		t.Error("expected no account mirror for endpoint-only family")
	}
}

func TestPersistSkipsMirrorWhenAnonymous(t *testing.T) {
	sess := &fakeSession{}
	s, _ := setupSynchronizer(t, sess, provider.Features{SupportsExternalData: true})

	if err := s.SaveProgress(context.Background(), "ep-1", "", "", 0.4); err != nil {
		t.Fatalf("save: %v", err)
	}
	if sess.lastMirror() != nil {
		t.Error("expected no account mirror while anonymous")
	}
}
