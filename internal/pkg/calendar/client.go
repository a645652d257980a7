package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/holiday"
	"golang.org/x/sync/singleflight"
)

// Client reads public holidays from a Nager.Date compatible API
// (GET {base}/api/v3/PublicHolidays/{year}/{country}). Successful lookups are
// cached per country and year; concurrent misses share one request.
type Client struct {
	baseURL    string
	httpClient *http.Client

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string][]holiday.Holiday
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      make(map[string][]holiday.Holiday),
	}
}

type publicHoliday struct {
	Date        string `json:"date"`
	LocalName   string `json:"localName"`
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
}

// Holidays implements holiday.Calendar. Any failure is logged and yields no
// holidays; failures are not cached.
func (c *Client) Holidays(ctx context.Context, countryCode string, year int) []holiday.Holiday {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if countryCode == "" || c.baseURL == "" {
		return nil
	}
	key := fmt.Sprintf("%s/%d", countryCode, year)

	c.mu.RLock()
	cached, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		list, err := c.fetch(ctx, countryCode, year)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[key] = list
		c.mu.Unlock()
		return list, nil
	})
	if err != nil {
		slog.WarnContext(ctx, "holiday lookup failed, assuming none", "country", countryCode, "year", year, "error", err)
		return nil
	}
	return v.([]holiday.Holiday)
}

func (c *Client) fetch(ctx context.Context, countryCode string, year int) ([]holiday.Holiday, error) {
	url := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", c.baseURL, year, countryCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("holiday api: status=%s body=%s", resp.Status, string(b))
	}

	var raw []publicHoliday
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([]holiday.Holiday, 0, len(raw))
	for _, h := range raw {
		d, err := time.Parse("2006-01-02", h.Date)
		if err != nil {
			continue
		}
		name := h.LocalName
		if name == "" {
			name = h.Name
		}
		out = append(out, holiday.Holiday{Date: d, Name: name, CountryCode: countryCode})
	}
	return out, nil
}
