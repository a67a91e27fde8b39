package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/dogwalk/server/internal/api"
	"github.com/dogwalk/server/internal/mapcatalog"
	"github.com/dogwalk/server/internal/simulate"
)

const testMapJSON = `{
	"maps": [
		{"id": "map1", "name": "First map", "roads": [{"x0": 0, "y0": 0, "x1": 10}], "offices": [], "lootTypes": []}
	]
}`

type nopSink struct{}

func (nopSink) Retire(ctx context.Context, name string, score int, playTime float64) error {
	return nil
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(testMapJSON), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cat, err := mapcatalog.Load(path)
	if err != nil {
		t.Fatalf("mapcatalog.Load: %v", err)
	}
	game := simulate.NewGame(cat, nopSink{}, false)
	t.Cleanup(game.Close)

	a := &api.API{Catalog: cat, Game: game}
	return New(Config{API: a, Logger: zap.NewNop()})
}

func TestHealthReportsOK(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %q, want status ok", rec.Body.String())
	}
}

func TestListMapsRejectsWrongMethod(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/maps/", nil)
	rec := httptest.NewRecorder()

	h.ListMaps(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if got := rec.Header().Get("Allow"); got != "GET, HEAD" {
		t.Errorf("Allow header = %q, want %q", got, "GET, HEAD")
	}
}

func TestListMapsReturnsConfiguredMaps(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/maps/", nil)
	rec := httptest.NewRecorder()

	h.ListMaps(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "map1") {
		t.Errorf("body = %q, want to contain map1", rec.Body.String())
	}
}

func TestAuthenticateRejectsMalformedHeader(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/game/players", nil)
	req.Header.Set("Authorization", "Bearer short")
	rec := httptest.NewRecorder()

	h.ListPlayers(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalidToken") {
		t.Errorf("body = %q, want invalidToken", rec.Body.String())
	}
}

func TestAuthenticateRejectsWellFormedButUnknownToken(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/game/players", nil)
	req.Header.Set("Authorization", "Bearer "+strings.Repeat("a", 32))
	rec := httptest.NewRecorder()

	h.ListPlayers(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unknownToken") {
		t.Errorf("body = %q, want unknownToken", rec.Body.String())
	}
}

func TestJoinRejectsEmptyBody(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/game/join", nil)
	rec := httptest.NewRecorder()

	h.Join(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestApiNotFoundReturnsBadRequest(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/whatever", nil)
	rec := httptest.NewRecorder()

	h.apiNotFound(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
