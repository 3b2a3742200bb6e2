package handlers

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"skrawl/internal/catalog"
	"skrawl/internal/config"
	"skrawl/internal/run"
	"skrawl/internal/trace"
)

func newTestServer(t *testing.T) (http.Handler, *run.Store) {
	t.Helper()
	templates, err := catalog.LoadTemplates("")
	if err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cat := catalog.New(catalog.Enabled(templates, false), rand.New(rand.NewPCG(3, 5)))
	store := run.NewStore(ctx, cat, time.Hour)
	cfg := config.Default()

	r := chi.NewRouter()
	NewHomeHandler(store, cfg).RegisterRoutes(r)
	NewRunHandler(store, cfg).RegisterRoutes(r)
	return r, store
}

func createRun(t *testing.T, h http.Handler, form url.Values) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST /runs status %d, want 303: %s", rec.Code, rec.Body.String())
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/run/") {
		t.Fatalf("Location %q, want /run/{id}", loc)
	}
	return strings.TrimPrefix(loc, "/run/")
}

func postJSON(h http.Handler, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var desk = trace.Viewport{Width: 800, Height: 600, DPR: 1}

func TestHome_ListsMinigames(t *testing.T) {
	h, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Trace the Lines", "Draw the Square", "Draw the Circles", `value="hard"`, `value="rainbow"`} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
	if strings.Contains(body, "Connect the Dots") {
		t.Error("extra minigames should be hidden by default")
	}
}

func TestCreateRun_Validates(t *testing.T) {
	h, _ := newTestServer(t)
	for name, form := range map[string]url.Values{
		"difficulty": {"difficulty": {"brutal"}},
		"brush":      {"brush": {"crayon"}},
		"minigame":   {"minigame": {"m99"}},
	} {
		req := httptest.NewRequest(http.MethodPost, "/runs", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", name, rec.Code)
		}
	}
}

func TestRun_StartAndStroke(t *testing.T) {
	h, store := newTestServer(t)
	id := createRun(t, h, url.Values{"minigame": {"m1"}, "skipCountdown": {"true"}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/run/"+id, nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `id="ink"`) {
		t.Fatalf("run page status %d", rec.Code)
	}

	if rec := postJSON(h, "/run/"+id+"/start", map[string]any{"viewport": desk}); rec.Code != http.StatusNoContent {
		t.Fatalf("start status %d: %s", rec.Code, rec.Body.String())
	}
	if rec := postJSON(h, "/run/"+id+"/start", map[string]any{"viewport": desk}); rec.Code != http.StatusConflict {
		t.Errorf("second start status %d, want 409", rec.Code)
	}

	rec = postJSON(h, "/run/"+id+"/stroke", map[string]any{
		"viewport": desk,
		"points":   []map[string]float64{{"x": 1, "y": 1}, {"x": 2, "y": 2}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("stroke status %d: %s", rec.Code, rec.Body.String())
	}
	var verdict trace.Verdict
	if err := json.NewDecoder(rec.Body).Decode(&verdict); err != nil {
		t.Fatalf("decode verdict: %v", err)
	}
	if verdict.Success || verdict.Samples != 2 {
		t.Errorf("verdict %+v, want a failed 2-sample stroke", verdict)
	}

	r, _ := store.GetRun(id)
	view, err := r.View(context.Background())
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if view.HUD.Lives != 2 {
		t.Errorf("lives %d, want 2", view.HUD.Lives)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/run/"+id+"/hud", nil))
	if !strings.Contains(rec.Body.String(), "-1 Life") {
		t.Errorf("hud %q, want the life lost notice", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/run/"+id+"/board", nil))
	if !strings.Contains(rec.Body.String(), "<polyline") {
		t.Errorf("board %q, want the line target", rec.Body.String())
	}
}

func TestRun_StrokeErrors(t *testing.T) {
	h, _ := newTestServer(t)
	id := createRun(t, h, url.Values{"skipCountdown": {"true"}})

	req := httptest.NewRequest(http.MethodPost, "/run/"+id+"/stroke", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed stroke status %d, want 400", rec.Code)
	}

	rec = postJSON(h, "/run/"+id+"/stroke", map[string]any{"viewport": desk, "points": []map[string]float64{}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty stroke status %d, want 422", rec.Code)
	}

	rec = postJSON(h, "/run/"+id+"/stroke", map[string]any{"viewport": desk, "points": []map[string]float64{{"x": 1, "y": 1}}})
	if rec.Code != http.StatusConflict {
		t.Errorf("stroke before start status %d, want 409", rec.Code)
	}
}

func TestRun_NotFound(t *testing.T) {
	h, _ := newTestServer(t)
	for _, path := range []string{"/run/missing", "/run/missing/hud", "/run/missing/state"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s status %d, want 404", path, rec.Code)
		}
	}
}

func TestRun_State(t *testing.T) {
	h, _ := newTestServer(t)
	id := createRun(t, h, url.Values{"difficulty": {"easy"}, "skipCountdown": {"true"}})
	postJSON(h, "/run/"+id+"/start", map[string]any{"viewport": desk})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/run/"+id+"/state", nil))
	var state struct {
		Phase       string `json:"phase"`
		RemainingMs int64  `json:"remainingMs"`
		Lives       int    `json:"lives"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Phase != "active" || state.Lives != 3 {
		t.Errorf("state %+v, want active with 3 lives", state)
	}
	if state.RemainingMs <= 0 || state.RemainingMs > 20000 {
		t.Errorf("remainingMs %d, want within the easy duration", state.RemainingMs)
	}
}
