package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lucasb-eyer/go-colorful"

	"skrawl/internal/config"
	"skrawl/internal/geometry"
	"skrawl/internal/run"
	"skrawl/internal/sequencer"
	"skrawl/internal/trace"
	"skrawl/internal/viewmodel"
	"skrawl/views/components"
	"skrawl/views/pages"
)

// maxSamples bounds one submitted stroke.
const maxSamples = 5000

type RunHandler struct {
	store *run.Store
	cfg   config.Config
}

func NewRunHandler(store *run.Store, cfg config.Config) *RunHandler {
	return &RunHandler{store: store, cfg: cfg}
}

func (h *RunHandler) RegisterRoutes(r chi.Router) {
	r.Route("/run/{id}", func(r chi.Router) {
		r.Get("/", h.runPage)
		r.Post("/start", h.start)
		r.Post("/restart", h.restart)
		r.Post("/stroke", h.stroke)
		r.Post("/freeze", h.freeze)
		r.Post("/brush", h.brush)
		r.Get("/board", h.boardFragment)
		r.Get("/hud", h.hudFragment)
		r.Get("/state", h.state)
		r.Get("/stream", h.stream)
	})
}

func (h *RunHandler) lookup(w http.ResponseWriter, r *http.Request) (*run.Run, run.View, bool) {
	id := chi.URLParam(r, "id")
	instance, ok := h.store.GetRun(id)
	if !ok {
		http.NotFound(w, r)
		return nil, run.View{}, false
	}
	view, err := instance.View(r.Context())
	if err != nil {
		writeError(w, err)
		return nil, run.View{}, false
	}
	return instance, view, true
}

func (h *RunHandler) runPage(w http.ResponseWriter, r *http.Request) {
	_, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	data := viewmodel.RunPage{
		Title:  "Skrawl",
		RunID:  view.ID,
		Board:  buildBoard(view),
		HUD:    buildHUD(view),
		Brush:  string(view.Brush),
		Volume: h.cfg.Volume,
	}
	render(w, r, pages.RunPage(data))
}

type startRequest struct {
	Viewport trace.Viewport `json:"viewport"`
}

func (h *RunHandler) start(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	instance, ok := h.store.GetRun(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := instance.Start(r.Context(), req.Viewport); err != nil {
		log.Printf("start run error run=%s err=%v", id, err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RunHandler) restart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	instance, ok := h.store.GetRun(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := instance.Restart(r.Context()); err != nil {
		log.Printf("restart run error run=%s err=%v", id, err)
	}
	if r.Header.Get("Hx-Request") == "true" || strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/run/"+id, http.StatusSeeOther)
}

type sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type strokeRequest struct {
	Viewport trace.Viewport `json:"viewport"`
	Points   []sample       `json:"points"`
}

func (h *RunHandler) stroke(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	instance, ok := h.store.GetRun(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	var req strokeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		http.Error(w, "invalid stroke", http.StatusBadRequest)
		return
	}
	if len(req.Points) > maxSamples {
		http.Error(w, "stroke too long", http.StatusRequestEntityTooLarge)
		return
	}
	points := make([]geometry.Point, 0, len(req.Points))
	for _, p := range req.Points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			continue
		}
		points = append(points, geometry.Point{X: p.X, Y: p.Y})
	}
	verdict, err := instance.Stroke(r.Context(), req.Viewport, points)
	if err != nil {
		log.Printf("stroke rejected run=%s samples=%d err=%v", id, len(points), err)
		writeError(w, err)
		return
	}
	log.Printf("stroke run=%s shape=%s samples=%d success=%t", id, verdict.ShapeID, verdict.Samples, verdict.Success)
	writeJSON(w, verdict)
}

func (h *RunHandler) freeze(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	instance, ok := h.store.GetRun(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	frozen := parseBool(r.FormValue("frozen"), true)
	if err := instance.SetFrozen(r.Context(), frozen); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RunHandler) brush(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	instance, ok := h.store.GetRun(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	b, err := trace.ParseBrush(r.FormValue("brush"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := instance.SetBrush(r.Context(), b); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RunHandler) boardFragment(w http.ResponseWriter, r *http.Request) {
	_, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render(w, r, components.Board(buildBoard(view)))
}

func (h *RunHandler) hudFragment(w http.ResponseWriter, r *http.Request) {
	_, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render(w, r, components.HUD(buildHUD(view)))
}

// state is the JSON view used by the client to time its local countdown.
func (h *RunHandler) state(w http.ResponseWriter, r *http.Request) {
	_, view, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string]any{
		"phase":       view.Seq.Phase,
		"label":       view.Seq.Label,
		"minigame":    view.Seq.MinigameID,
		"index":       view.Seq.Index,
		"shapes":      view.Seq.Shapes,
		"drawn":       view.Seq.Drawn,
		"remainingMs": view.Seq.Remaining.Milliseconds(),
		"frozen":      view.Seq.Frozen,
		"lives":       view.HUD.Lives,
		"coins":       view.HUD.Coins,
		"over":        view.HUD.Over,
	})
}

func (h *RunHandler) stream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	instance, ok := h.store.GetRun(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	hub, ok := h.store.Broadcaster(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	sendSnapshot := func(includeBoard bool, includeHUD bool, includePhase bool) bool {
		view, err := instance.View(r.Context())
		if err != nil {
			return false
		}
		if includeBoard {
			writeSSE(w, "board", renderToString(r, components.Board(buildBoard(view))))
		}
		if includeHUD {
			writeSSE(w, "hud", renderToString(r, components.HUD(buildHUD(view))))
		}
		if includePhase {
			writeSSE(w, "phase", string(view.Seq.Phase))
		}
		flusher.Flush()
		return true
	}

	if !sendSnapshot(true, true, true) {
		return
	}

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub:
			if !open {
				return
			}
			if cue, ok := run.Cue(event); ok {
				writeSSE(w, "cue", cue)
				flusher.Flush()
				continue
			}
			sent := true
			switch event {
			case run.EventBoard:
				sent = sendSnapshot(true, false, false)
			case run.EventHUD:
				sent = sendSnapshot(false, true, false)
			case run.EventPhase:
				sent = sendSnapshot(false, false, true)
			}
			if !sent {
				return
			}
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

func buildBoard(view run.View) viewmodel.Board {
	board := viewmodel.Board{
		RunID:        view.ID,
		Phase:        string(view.Seq.Phase),
		Label:        view.Seq.Label,
		Width:        view.Bounds.Width,
		Height:       view.Bounds.Height,
		MinigameName: view.Seq.MinigameName,
		Index:        view.Seq.Index,
		Total:        view.Seq.Shapes,
		Drawn:        view.Seq.Drawn,
		Key:          buildBoardKey(view),
	}
	if view.Seq.Phase == sequencer.PhaseIdle || view.Seq.Phase == sequencer.PhaseOver {
		board.MinigameName = ""
	}
	for _, op := range view.Ops {
		board.Shapes = append(board.Shapes, toSVGShape(op))
	}
	return board
}

func toSVGShape(op trace.Op) viewmodel.SVGShape {
	s := viewmodel.SVGShape{Kind: op.Kind, Stroke: hex(op.Color), Width: op.Width}
	switch op.Kind {
	case "polyline":
		parts := make([]string, 0, len(op.Points))
		for _, p := range op.Points {
			parts = append(parts, strconv.FormatFloat(p.X, 'f', 1, 64)+","+strconv.FormatFloat(p.Y, 'f', 1, 64))
		}
		s.Points = strings.Join(parts, " ")
	case "ellipse", "dot":
		if len(op.Points) > 0 {
			s.CX, s.CY = op.Points[0].X, op.Points[0].Y
		}
		s.RX, s.RY = op.RX, op.RY
	case "rect":
		if len(op.Points) == 2 {
			s.CX, s.CY = op.Points[0].X, op.Points[0].Y
			s.RX, s.RY = op.Points[1].X-op.Points[0].X, op.Points[1].Y-op.Points[0].Y
		}
	}
	return s
}

func hex(c colorful.Color) string {
	return c.Clamped().Hex()
}

func buildHUD(view run.View) viewmodel.HUD {
	return viewmodel.HUD{
		RunID:    view.ID,
		Lives:    view.HUD.Lives,
		MaxLives: view.HUD.MaxLives,
		Coins:    view.HUD.Coins,
		Seconds:  fmt.Sprintf("%.1f", view.Seq.Remaining.Seconds()),
		Notice:   view.HUD.Notice,
		Over:     view.HUD.Over,
		Reason:   view.HUD.Reason,
		DevMode:  view.HUD.DevMode,
		Frozen:   view.Seq.Frozen,
		Timed:    view.Seq.Timed,
	}
}

func buildBoardKey(view run.View) string {
	return strings.Join([]string{
		string(view.Seq.Phase),
		view.Seq.MinigameID,
		strconv.Itoa(view.Seq.Index),
		strconv.Itoa(len(view.Seq.Drawn)),
		view.Seq.Label,
	}, "|")
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, run.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, run.ErrClosed):
		http.Error(w, err.Error(), http.StatusGone)
	case errors.Is(err, trace.ErrNotMeasured), errors.Is(err, run.ErrEmpty):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, run.ErrInactive), errors.Is(err, sequencer.ErrRunning):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
