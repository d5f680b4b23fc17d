// internal/clients/travel_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"travelcatalog/internal/travel"

	"github.com/google/uuid"
)

var ErrRateLimited = errors.New("rate limit exceeded")

type TravelClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewTravelClient creates a client for the travel API at baseURL. A nil httpClient
// uses http.DefaultClient.
func NewTravelClient(baseURL string, httpClient *http.Client) *TravelClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TravelClient{baseURL: baseURL, httpClient: httpClient}
}

func (c *TravelClient) ListTravels(ctx context.Context, page, pageSize int) (*travel.PaginationResponse[travel.Travel], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))

	var resp travel.PaginationResponse[travel.Travel]
	if err := c.do(ctx, http.MethodGet, "/travels?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *TravelClient) GetTravel(ctx context.Context, id uuid.UUID) (*travel.Travel, error) {
	var t travel.Travel
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/travels/%s", id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *TravelClient) GetTravelBySlug(ctx context.Context, slug string) (*travel.Travel, error) {
	var t travel.Travel
	if err := c.do(ctx, http.MethodGet, "/travels/slug/"+url.PathEscape(slug), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *TravelClient) IncreaseSeats(ctx context.Context, id uuid.UUID, seats int) (*travel.Travel, error) {
	return c.adjustSeats(ctx, id, "increase", seats)
}

func (c *TravelClient) DecreaseSeats(ctx context.Context, id uuid.UUID, seats int) (*travel.Travel, error) {
	return c.adjustSeats(ctx, id, "decrease", seats)
}

func (c *TravelClient) adjustSeats(ctx context.Context, id uuid.UUID, direction string, seats int) (*travel.Travel, error) {
	body := struct {
		Seats int `json:"seats"`
	}{Seats: seats}

	var t travel.Travel
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/travels/%s/seats/%s", id, direction), body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *TravelClient) SeatHistory(ctx context.Context, id uuid.UUID, limit int) ([]travel.SeatAdjustment, error) {
	var history []travel.SeatAdjustment
	path := fmt.Sprintf("/travels/%s/seats/history?limit=%d", id, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (c *TravelClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// statusError maps a failed response back onto the travel error taxonomy.
func statusError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	json.NewDecoder(resp.Body).Decode(&payload)
	msg := payload.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", travel.ErrNotFound, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", travel.ErrInvalidArgument, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", travel.ErrInsufficientSeats, msg)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", travel.ErrStoreUnavailable, msg)
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("unexpected status code: %d: %s", resp.StatusCode, msg)
	}
}
