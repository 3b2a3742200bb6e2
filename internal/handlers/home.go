package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"skrawl/internal/config"
	"skrawl/internal/geometry"
	"skrawl/internal/run"
	"skrawl/internal/trace"
	"skrawl/internal/viewmodel"
	"skrawl/views/pages"
)

type HomeHandler struct {
	store *run.Store
	cfg   config.Config
}

func NewHomeHandler(store *run.Store, cfg config.Config) *HomeHandler {
	return &HomeHandler{store: store, cfg: cfg}
}

func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Post("/runs", h.createRun)
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	render(w, r, pages.HomePage(h.homePage()))
}

func (h *HomeHandler) homePage() viewmodel.HomePage {
	// One freshly generated instance per template; its reward is what a
	// full instance pays.
	set := h.store.Catalog().RandomSet(geometry.DefaultBounds)
	minigames := make([]viewmodel.MinigameOption, 0, len(set))
	seen := make(map[string]bool, len(set))
	for _, in := range set {
		if seen[in.ID] {
			continue
		}
		seen[in.ID] = true
		minigames = append(minigames, viewmodel.MinigameOption{
			ID:     in.ID,
			Name:   in.Name,
			Reward: in.TotalReward,
			Shapes: in.Len(),
		})
	}

	difficulties := make([]viewmodel.DifficultyOption, 0, 3)
	for _, d := range []config.Difficulty{config.Easy, config.Normal, config.Hard} {
		difficulties = append(difficulties, viewmodel.DifficultyOption{
			Value:    string(d),
			Label:    strings.ToUpper(string(d[:1])) + string(d[1:]),
			Seconds:  int(d.Level().Duration.Seconds()),
			Selected: d == h.cfg.Difficulty,
		})
	}

	brushes := make([]viewmodel.BrushOption, 0, 3)
	for _, b := range []trace.Brush{trace.BrushSmooth, trace.BrushPixel, trace.BrushRainbow} {
		brushes = append(brushes, viewmodel.BrushOption{
			Value:    string(b),
			Label:    strings.ToUpper(string(b[:1])) + string(b[1:]),
			Selected: string(b) == h.cfg.Brush,
		})
	}

	return viewmodel.HomePage{
		Title:        "Skrawl",
		Minigames:    minigames,
		Difficulties: difficulties,
		Brushes:      brushes,
		DevMode:      h.cfg.DevMode,
	}
}

func (h *HomeHandler) createRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	difficulty, err := config.ParseDifficulty(r.FormValue("difficulty"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	brushValue := r.FormValue("brush")
	if brushValue == "" {
		brushValue = h.cfg.Brush
	}
	brush, err := trace.ParseBrush(brushValue)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	minigameID := strings.TrimSpace(r.FormValue("minigame"))
	if minigameID != "" {
		if _, ok := h.store.Catalog().Template(minigameID); !ok {
			http.Error(w, "unknown minigame", http.StatusBadRequest)
			return
		}
	}

	settings := run.Settings{
		Difficulty:    difficulty,
		MinigameID:    minigameID,
		Brush:         brush,
		DevMode:       h.cfg.DevMode && parseBool(r.FormValue("dev"), false),
		SkipCountdown: parseBool(r.FormValue("skipCountdown"), false),
	}
	created := h.store.CreateRun(settings)
	log.Printf("create run id=%s remote=%s", created.ID, r.RemoteAddr)
	http.Redirect(w, r, "/run/"+created.ID, http.StatusSeeOther)
}

func parseBool(value string, fallback bool) bool {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
