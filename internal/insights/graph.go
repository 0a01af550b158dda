package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"campaigndash/internal/config"
)

var ErrNotConfigured = errors.New("missing FB access token or ad account ID")

const maxPages = 50

// GraphError is an error reported by the Graph API.
type GraphError struct {
	Status  int
	Message string
	Type    string
	Code    int
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph api %d: %s", e.Status, e.Message)
}

// Row is one insights row as the Graph API returns it; numbers arrive as strings.
type Row struct {
	CampaignName      string `json:"campaign_name"`
	PublisherPlatform string `json:"publisher_platform"`
	DateStart         string `json:"date_start"`
	DateStop          string `json:"date_stop"`
	Clicks            string `json:"clicks"`
	Impressions       string `json:"impressions"`
	CPC               string `json:"cpc"`
	CTR               string `json:"ctr"`
	Spend             string `json:"spend"`
}

// Field returns the numeric value of the named metric; missing or malformed values are zero.
func (r Row) Field(name string) float64 {
	var raw string
	switch name {
	case "clicks":
		raw = r.Clicks
	case "impressions":
		raw = r.Impressions
	case "cpc":
		raw = r.CPC
	case "ctr":
		raw = r.CTR
	case "spend":
		raw = r.Spend
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

type page struct {
	Data   []Row `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Query describes one insights request.
type Query struct {
	Since         string
	Until         string
	DatePreset    string
	Level         string
	Breakdowns    []string
	TimeIncrement int
	Limit         int
}

type GraphClient struct {
	http        *http.Client
	baseURL     string
	version     string
	accessToken string
	accountID   string
}

func NewGraphClient(cfg config.FacebookConfig, httpClient *http.Client) *GraphClient {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &GraphClient{
		http:        httpClient,
		baseURL:     strings.TrimSuffix(cfg.GraphURL, "/"),
		version:     cfg.Version,
		accessToken: cfg.AccessToken,
		accountID:   strings.TrimPrefix(cfg.AdAccountID, "act_"),
	}
}

func (c *GraphClient) Configured() bool {
	return c.accessToken != "" && c.accountID != ""
}

var insightFields = []string{"campaign_name", "clicks", "impressions", "cpc", "ctr", "spend"}

// Insights fetches every page of the query.
func (c *GraphClient) Insights(ctx context.Context, q Query) ([]Row, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	next := c.insightsURL(q)
	var rows []Row
	for i := 0; next != "" && i < maxPages; i++ {
		p, err := c.fetch(ctx, next)
		if err != nil {
			return nil, err
		}
		rows = append(rows, p.Data...)
		if q.Limit > 0 && len(rows) >= q.Limit {
			return rows[:q.Limit], nil
		}
		next = p.Paging.Next
	}
	return rows, nil
}

func (c *GraphClient) insightsURL(q Query) string {
	params := url.Values{}
	params.Set("access_token", c.accessToken)
	params.Set("fields", strings.Join(insightFields, ","))
	if q.Level != "" {
		params.Set("level", q.Level)
	}
	if q.Since != "" && q.Until != "" {
		params.Set("time_range", fmt.Sprintf(`{"since":%q,"until":%q}`, q.Since, q.Until))
	} else if q.DatePreset != "" {
		params.Set("date_preset", q.DatePreset)
	}
	if q.TimeIncrement > 0 {
		params.Set("time_increment", strconv.Itoa(q.TimeIncrement))
	}
	if len(q.Breakdowns) > 0 {
		params.Set("breakdowns", strings.Join(q.Breakdowns, ","))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	return fmt.Sprintf("%s/%s/act_%s/insights?%s", c.baseURL, c.version, c.accountID, params.Encode())
}

func (c *GraphClient) fetch(ctx context.Context, rawURL string) (page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return page{}, fmt.Errorf("build graph request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return page{}, fmt.Errorf("graph request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return page{}, fmt.Errorf("read graph response: %w", err)
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		if resp.StatusCode != http.StatusOK {
			return page{}, &GraphError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		}
		return page{}, fmt.Errorf("decode graph response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || p.Error != nil {
		gerr := &GraphError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if p.Error != nil {
			gerr.Message = p.Error.Message
			gerr.Type = p.Error.Type
			gerr.Code = p.Error.Code
		}
		return page{}, gerr
	}
	return p, nil
}
