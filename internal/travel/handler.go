// internal/travel/handler.go
package travel

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the travel routes. seatMiddleware wraps only the seat mutations.
func (h *Handler) Routes(seatMiddleware ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: http.StatusText(http.StatusMethodNotAllowed)})
	})
	r.Get("/", h.handleListTravels)
	r.Get("/slug/{slug}", h.handleGetTravelBySlug)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.handleGetTravel)
		r.Get("/seats/history", h.handleSeatHistory)
		r.Group(func(r chi.Router) {
			r.Use(seatMiddleware...)
			r.Post("/seats/increase", h.handleIncreaseSeats)
			r.Post("/seats/decrease", h.handleDecreaseSeats)
		})
	})
	return r
}

type seatsRequest struct {
	Seats int `json:"seats"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleListTravels(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", DefaultPage)
	if err != nil {
		writeError(w, err)
		return
	}
	pageSize, err := queryInt(r, "pageSize", DefaultPageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	resp, err := h.service.GetAllTravels(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetTravel(w http.ResponseWriter, r *http.Request) {
	id, ok := travelID(w, r)
	if !ok {
		return
	}

	t, err := h.service.GetTravelByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) handleGetTravelBySlug(w http.ResponseWriter, r *http.Request) {
	slug, err := slugParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	t, err := h.service.GetTravelBySlug(r.Context(), slug)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) handleIncreaseSeats(w http.ResponseWriter, r *http.Request) {
	id, ok := travelID(w, r)
	if !ok {
		return
	}
	req, ok := decodeSeats(w, r)
	if !ok {
		return
	}

	t, err := h.service.IncreaseAvailableSeats(r.Context(), id, req.Seats)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) handleDecreaseSeats(w http.ResponseWriter, r *http.Request) {
	id, ok := travelID(w, r)
	if !ok {
		return
	}
	req, ok := decodeSeats(w, r)
	if !ok {
		return
	}

	t, err := h.service.DecreaseAvailableSeats(r.Context(), id, req.Seats)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) handleSeatHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := travelID(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", DefaultHistoryLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	history, err := h.service.SeatHistory(r.Context(), id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// travelID parses the {id} URL parameter. A value that is not a UUID cannot name a
// travel, so it is answered as not found.
func travelID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, ErrNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// slugParam returns the {slug} URL parameter decoded. chi matches on the raw path
// whenever the request carries escapes Go would not produce itself (%2F, %2C), and
// the parameter is then still percent-encoded.
func slugParam(r *http.Request) (string, error) {
	slug := chi.URLParam(r, "slug")
	if r.URL.RawPath == "" {
		return slug, nil
	}
	decoded, err := url.PathUnescape(slug)
	if err != nil {
		return "", fmt.Errorf("%w: malformed slug: %v", ErrInvalidArgument, err)
	}
	return decoded, nil
}

func decodeSeats(w http.ResponseWriter, r *http.Request) (seatsRequest, bool) {
	var req seatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed request body: %v", ErrInvalidArgument, err))
		return req, false
	}
	return req, true
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidArgument, key)
	}
	return v, nil
}

// StatusCode maps an error from the service onto an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrInsufficientSeats):
		return http.StatusConflict
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err to the client. Server-side failures are logged in full
// and answered with the sentinel text only.
func writeError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		log.Printf("travel=handler status=%d error=%v", status, err)
	}
	msg := err.Error()
	switch {
	case errors.Is(err, ErrStoreUnavailable):
		msg = ErrStoreUnavailable.Error()
	case errors.Is(err, ErrStoreConstraintViolation):
		msg = ErrStoreConstraintViolation.Error()
	case status >= http.StatusInternalServerError:
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
