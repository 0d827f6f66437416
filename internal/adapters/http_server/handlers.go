package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"pulse/internal/app"
	"pulse/internal/domain"
)

type Handlers struct {
	P         *app.PlanService
	JWTSecret []byte
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type generateRequest struct {
	CompanionMode string `json:"companionMode"`
	DateStart     string `json:"dateStart"`
	DateEnd       string `json:"dateEnd"`
	Archetype     string `json:"archetype,omitempty"`
}

type savePlanRequest struct {
	Plan domain.GeneratedPlan `json:"plan"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/activities", h.listActivities)
	s.mux.Group(func(r chi.Router) {
		r.Use(Authenticate(h.JWTSecret))
		r.Post("/v1/plans/generate", h.generatePlans)
		r.Post("/v1/plans", h.savePlan)
		r.Get("/v1/plans", h.listSavedPlans)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "")
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// parseWindowBound accepts RFC 3339 or YYYY-MM-DD. A date-only end bound
// covers the whole day (UTC).
func parseWindowBound(s string, end bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

func (h *Handlers) generatePlans(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "request body must be JSON")
		return
	}
	mode, err := domain.ParseCompanionMode(body.CompanionMode)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid companionMode", "companionMode must be one of SOLO, DATE, FRIENDS, FAMILY")
		return
	}
	arch, err := domain.ParseArchetype(body.Archetype)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid archetype", "archetype must be one of DATE_NIGHT, SOCIAL, SOLO_CHILL, FAMILY_FUN, CUSTOM")
		return
	}
	from, err := parseWindowBound(body.DateStart, false)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid dateStart", "dateStart must be ISO-8601")
		return
	}
	to, err := parseWindowBound(body.DateEnd, true)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid dateEnd", "dateEnd must be ISO-8601")
		return
	}

	res, err := h.P.Generate(r.Context(), domain.PlanRequest{
		UserID:    UserID(r.Context()),
		Mode:      mode,
		Archetype: arch,
		From:      from,
		To:        to,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) savePlan(w http.ResponseWriter, r *http.Request) {
	var body savePlanRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "request body must be JSON")
		return
	}
	sp, err := h.P.SavePlan(r.Context(), UserID(r.Context()), body.Plan)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sp)
}

func (h *Handlers) listSavedPlans(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, 20)
	if !ok {
		return
	}
	out, err := h.P.ListSavedPlans(r.Context(), UserID(r.Context()), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handlers) listActivities(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	from, err := parseWindowBound(qs.Get("from"), false)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid from", "from must be ISO-8601")
		return
	}
	to, err := parseWindowBound(qs.Get("to"), true)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid to", "to must be ISO-8601")
		return
	}
	limit, ok := parseLimit(w, r, 0)
	if !ok {
		return
	}
	q := domain.ActivityQuery{From: from, To: to, Limit: limit}
	if c := strings.ToUpper(strings.TrimSpace(qs.Get("category"))); c != "" {
		if !domain.IsValidCategory(c) {
			writeProblem(w, http.StatusBadRequest, "Invalid category", "unknown category "+strconv.Quote(c))
			return
		}
		cat := domain.Category(c)
		q.Category = &cat
	}

	out, err := h.P.ListActivities(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}

	etag, body := calcETagAndBody(map[string]any{"items": out})
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listActivities body")
	}
}

// parseLimit reads ?limit=, writing a 400 and returning false when it is out of range.
func parseLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	ls := r.URL.Query().Get("limit")
	if ls == "" {
		return def, true
	}
	l, err := strconv.Atoi(ls)
	if err != nil || l <= 0 || l > 200 {
		writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
		return 0, false
	}
	return l, true
}
