package travel

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo Repository) http.Handler {
	r := chi.NewRouter()
	r.Mount("/travels", NewHandler(NewService(repo)).Routes())
	return r
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleListTravelsDefaults(t *testing.T) {
	var travels []Travel
	for i := 0; i < 12; i++ {
		travels = append(travels, newTravel(fmt.Sprintf("trip-%d", i), 1))
	}
	h := newTestRouter(newMemoryRepository(travels...))

	rec := doRequest(t, h, http.MethodGet, "/travels", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp PaginationResponse[Travel]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Items, DefaultPageSize)
	assert.Equal(t, 12, resp.TotalItems)
	assert.Equal(t, DefaultPage, resp.CurrentPage)
	assert.Equal(t, 2, resp.TotalPages)

	rec = doRequest(t, h, http.MethodGet, "/travels?page=2&pageSize=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Items, 5)
	assert.Equal(t, 3, resp.TotalPages)
}

func TestHandleListTravelsBadQuery(t *testing.T) {
	h := newTestRouter(newMemoryRepository())

	for _, target := range []string{
		"/travels?page=abc",
		"/travels?pageSize=1.5",
		"/travels?page=0",
		"/travels?pageSize=-2",
	} {
		rec := doRequest(t, h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)

		var body errorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.NotEmpty(t, body.Error)
	}
}

func TestHandleEmptyCatalogEncodesEmptyItems(t *testing.T) {
	h := newTestRouter(newMemoryRepository())

	rec := doRequest(t, h, http.MethodGet, "/travels?page=1&pageSize=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"totalItems":0,"currentPage":1,"pageSize":10,"totalPages":0}`, rec.Body.String())
}

func TestHandleGetTravel(t *testing.T) {
	ski := newTravel("ski-trip", 10)
	h := newTestRouter(newMemoryRepository(ski))

	rec := doRequest(t, h, http.MethodGet, "/travels/"+ski.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got Travel
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, ski.ID, got.ID)
	assert.Equal(t, 10, got.AvailableSeats)

	rec = doRequest(t, h, http.MethodGet, "/travels/slug/ski-trip", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/travels/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/travels/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/travels/slug/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetTravelBySlugDecodesEscapes(t *testing.T) {
	slugs := []string{"rome,florence", "a;b", "a/b", "caffè latte", "50%off", "ski-trip"}
	travels := make([]Travel, 0, len(slugs))
	for _, slug := range slugs {
		travels = append(travels, newTravel(slug, 1))
	}
	h := newTestRouter(newMemoryRepository(travels...))

	for i, slug := range slugs {
		t.Run(slug, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodGet, "/travels/slug/"+url.PathEscape(slug), "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var got Travel
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, travels[i].ID, got.ID)
			assert.Equal(t, slug, got.Slug)
		})
	}
}

func TestHandleUnknownRoutesAnswerJSON(t *testing.T) {
	ski := newTravel("ski-trip", 10)
	h := newTestRouter(newMemoryRepository(ski))

	for _, target := range []string{"/travels/slug/", "/travels/" + ski.ID.String() + "/nowhere"} {
		rec := doRequest(t, h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), target)
		assert.JSONEq(t, `{"error":"travel not found"}`, rec.Body.String(), target)
	}

	rec := doRequest(t, h, http.MethodGet, "/travels/"+ski.ID.String()+"/seats/decrease", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"Method Not Allowed"}`, rec.Body.String())
}

func TestHandleServerErrorsHideDriverDetails(t *testing.T) {
	ski := newTravel("ski-trip", 10)
	repo := newMemoryRepository(ski)
	h := newTestRouter(repo)

	cases := []struct {
		err    error
		status int
		body   string
	}{
		{fmt.Errorf("%w: dial tcp 10.0.0.7:5432: connect: connection refused", ErrStoreUnavailable), http.StatusServiceUnavailable, ErrStoreUnavailable.Error()},
		{fmt.Errorf("%w: pq: smallint out of range", ErrStoreConstraintViolation), http.StatusInternalServerError, ErrStoreConstraintViolation.Error()},
		{fmt.Errorf("pq: relation \"travel\" does not exist"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tc := range cases {
		repo.failErr = tc.err
		rec := doRequest(t, h, http.MethodGet, "/travels/"+ski.ID.String(), "")
		assert.Equal(t, tc.status, rec.Code)

		var body errorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, tc.body, body.Error)
	}

	// client errors keep their detail
	repo.failErr = nil
	rec := doRequest(t, h, http.MethodGet, "/travels?page=x", "")
	assert.Contains(t, rec.Body.String(), "page must be an integer")
}

func TestHandleSeatMutations(t *testing.T) {
	ski := newTravel("ski-trip", 10)
	repo := newMemoryRepository(ski)
	h := newTestRouter(repo)
	base := "/travels/" + ski.ID.String() + "/seats/"

	rec := doRequest(t, h, http.MethodPost, base+"decrease", `{"seats":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var got Travel
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 7, got.AvailableSeats)

	rec = doRequest(t, h, http.MethodPost, base+"increase", `{"seats":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 10, got.AvailableSeats)

	rec = doRequest(t, h, http.MethodPost, base+"decrease", `{"seats":11}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, h, http.MethodPost, base+"increase", `{"seats":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, base+"increase", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, base+"increase", `{"seats":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/travels/"+uuid.NewString()+"/seats/increase", `{"seats":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodGet, base+"increase", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	assert.Equal(t, 10, repo.seats(ski.ID))

	rec = doRequest(t, h, http.MethodGet, base+"history?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var history []SeatAdjustment
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, 3, history[0].Delta)
}

func TestHandleSeatMiddlewareWrapsOnlyMutations(t *testing.T) {
	ski := newTravel("ski-trip", 10)
	blocked := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	}
	r := chi.NewRouter()
	r.Mount("/travels", NewHandler(NewService(newMemoryRepository(ski))).Routes(blocked))

	rec := doRequest(t, r, http.MethodPost, "/travels/"+ski.ID.String()+"/seats/increase", `{"seats":1}`)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/travels/"+ski.ID.String(), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusCode(ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, StatusCode(fmt.Errorf("%w: page", ErrInvalidArgument)))
	assert.Equal(t, http.StatusConflict, StatusCode(ErrInsufficientSeats))
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(ErrStoreUnavailable))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(ErrStoreConstraintViolation))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(fmt.Errorf("boom")))
}
