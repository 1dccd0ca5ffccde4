package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"swagportal/entity"
	"swagportal/lib/sl"
	"time"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// ErrInvalidPlace is returned when Google does not resolve the place id
var ErrInvalidPlace = errors.New("place not resolved")

type component struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type detailsResponse struct {
	Result struct {
		FormattedAddress  string      `json:"formatted_address"`
		AddressComponents []component `json:"address_components"`
	} `json:"result"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// Client resolves autocomplete place ids through the Place Details API
type Client struct {
	hc      *http.Client
	baseURL string
	apiKey  string
	log     *slog.Logger
}

func NewClient(apiKey string, log *slog.Logger) *Client {
	return &Client{
		hc:      &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		log:     log.With(sl.Module("places")),
	}
}

func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// Resolve fetches the place and reports which shipping components it lacks
func (c *Client) Resolve(ctx context.Context, placeId string) (*entity.AddressCheck, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("places api key not configured")
	}
	log := c.log.With(slog.String("place_id", placeId))

	var err error
	status := "ERROR"
	t1 := time.Now()
	defer func() {
		log.Debug("places request completed",
			slog.String("duration", fmt.Sprintf("%.3fms", float64(time.Since(t1))/float64(time.Millisecond))),
			slog.String("status", status))
	}()

	q := url.Values{}
	q.Set("place_id", placeId)
	q.Set("fields", "formatted_address,address_components")
	q.Set("key", c.apiKey)
	endpoint := fmt.Sprintf("%s/details/json?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		log.Error("request failed", sl.Err(err))
		return nil, fmt.Errorf("places request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	status = resp.Status
	if resp.StatusCode >= 300 {
		log.Error("places api returned error",
			slog.String("status", resp.Status),
			slog.String("body", string(body)))
		return nil, fmt.Errorf("places %s", resp.Status)
	}

	var details detailsResponse
	if err = json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("decode place details: %w", err)
	}
	status = details.Status
	switch details.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND", "INVALID_REQUEST":
		return nil, fmt.Errorf("%w: %s", ErrInvalidPlace, details.Status)
	default:
		return nil, fmt.Errorf("places status %s: %s", details.Status, details.ErrorMessage)
	}

	return entity.CheckAddress(details.Result.FormattedAddress, addressOf(details.Result.AddressComponents)), nil
}

func addressOf(components []component) entity.Address {
	var address entity.Address
	var number, route string
	for _, c := range components {
		switch {
		case has(c.Types, "street_number"):
			number = c.LongName
		case has(c.Types, "route"):
			route = c.LongName
		case has(c.Types, "locality"), has(c.Types, "sublocality"):
			if address.City == "" || has(c.Types, "locality") {
				address.City = c.LongName
			}
		case has(c.Types, "administrative_area_level_1"):
			address.State = c.LongName
		case has(c.Types, "administrative_area_level_2"):
			if address.State == "" {
				address.State = c.LongName
			}
		case has(c.Types, "postal_code"):
			address.ZipCode = c.LongName
		case has(c.Types, "country"):
			address.Country = c.ShortName
		}
	}
	address.Address1 = strings.TrimSpace(number + " " + route)
	return address
}

func has(types []string, t string) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}
