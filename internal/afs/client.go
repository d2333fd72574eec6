// Package afs talks to the external flight API.
package afs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/domain"
)

const apiKeyHeader = "x-api-key"

type SearchParams struct {
	Origin      string
	Destination string
	Date        string
}

type Passenger struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(cfg config.FlightAPIConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Client) Search(ctx context.Context, params SearchParams) ([]domain.Flight, error) {
	q := url.Values{}
	if params.Origin != "" {
		q.Set("origin", params.Origin)
	}
	if params.Destination != "" {
		q.Set("destination", params.Destination)
	}
	if params.Date != "" {
		q.Set("date", params.Date)
	}

	body, err := c.do(ctx, http.MethodGet, "/flights?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	raws, err := decodeFlightList(body)
	if err != nil {
		return nil, domain.Wrap(domain.ErrUpstream, err)
	}
	flights := make([]domain.Flight, 0, len(raws))
	for _, raw := range raws {
		flight := raw.toDomain()
		// search listings only carry bookable offers
		if flight.Status == "" {
			flight.Status = domain.FlightScheduled
		}
		flights = append(flights, flight)
	}
	return flights, nil
}

func (c *Client) GetFlight(ctx context.Context, id string) (*domain.Flight, error) {
	body, err := c.do(ctx, http.MethodGet, "/flights/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	raw, err := decodeFlight(body)
	if err != nil {
		return nil, domain.Wrap(domain.ErrUpstream, err)
	}
	flight := raw.toDomain()
	if flight.ID == "" {
		flight.ID = id
	}
	return &flight, nil
}

// CreateBooking reserves a seat and returns the provider's booking reference.
func (c *Client) CreateBooking(ctx context.Context, flightID string, passenger Passenger) (string, error) {
	payload, err := json.Marshal(struct {
		FlightID  string    `json:"flightId"`
		Passenger Passenger `json:"passenger"`
	}{flightID, passenger})
	if err != nil {
		return "", err
	}

	body, err := c.do(ctx, http.MethodPost, "/bookings", payload)
	if err != nil {
		return "", err
	}

	var resp struct {
		ID        json.RawMessage `json:"id"`
		BookingID json.RawMessage `json:"bookingId"`
		Reference string          `json:"reference"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", domain.Wrap(domain.ErrUpstream, fmt.Errorf("decode booking: %w", err))
	}
	switch {
	case resp.Reference != "":
		return resp.Reference, nil
	case len(resp.BookingID) > 0:
		return rawID(resp.BookingID), nil
	default:
		return rawID(resp.ID), nil
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.Wrap(domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, domain.Wrap(domain.ErrUpstream, err)
	}

	if resp.StatusCode == http.StatusNotFound && method == http.MethodGet && strings.HasPrefix(path, "/flights/") {
		return nil, domain.ErrFlightNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.Wrap(domain.ErrUpstream, fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode))
	}
	return body, nil
}

type rawFlight struct {
	ID             json.RawMessage `json:"id"`
	FlightID       json.RawMessage `json:"flightId"`
	Airline        string          `json:"airline"`
	FlightNumber   string          `json:"flightNumber"`
	Origin         string          `json:"origin"`
	Destination    string          `json:"destination"`
	DepartureTime  time.Time       `json:"departureTime"`
	ArrivalTime    time.Time       `json:"arrivalTime"`
	Price          float64         `json:"price"`
	AvailableSeats int             `json:"availableSeats"`
	Status         string          `json:"status"`
}

func (r rawFlight) toDomain() domain.Flight {
	id := rawID(r.ID)
	if id == "" {
		id = rawID(r.FlightID)
	}
	return domain.Flight{
		ID:             id,
		Airline:        r.Airline,
		FlightNumber:   r.FlightNumber,
		Origin:         r.Origin,
		Destination:    r.Destination,
		DepartureTime:  r.DepartureTime,
		ArrivalTime:    r.ArrivalTime,
		PriceCents:     int64(math.Round(r.Price * 100)),
		AvailableSeats: r.AvailableSeats,
		Status:         strings.ToUpper(strings.TrimSpace(r.Status)),
	}
}

// rawID accepts both string and numeric identifiers.
func rawID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func decodeFlightList(body []byte) ([]rawFlight, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty response")
	}
	if trimmed[0] == '[' {
		var list []rawFlight
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode flights: %w", err)
		}
		return list, nil
	}

	var wrapped struct {
		Results []rawFlight `json:"results"`
		Flights []rawFlight `json:"flights"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode flights: %w", err)
	}
	if wrapped.Results != nil {
		return wrapped.Results, nil
	}
	if wrapped.Flights != nil {
		return wrapped.Flights, nil
	}
	return []rawFlight{}, nil
}

func decodeFlight(body []byte) (rawFlight, error) {
	var wrapped struct {
		Flight *rawFlight `json:"flight"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Flight != nil {
		return *wrapped.Flight, nil
	}
	var flight rawFlight
	if err := json.Unmarshal(body, &flight); err != nil {
		return rawFlight{}, fmt.Errorf("decode flight: %w", err)
	}
	return flight, nil
}
