package insights

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaigndash/internal/config"
	"campaigndash/internal/metrics"
	"campaigndash/internal/models"
)

func TestGraphClientFollowsPaging(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v17.0/act_123/insights", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))

		if r.URL.Query().Get("after") == "" {
			assert.Equal(t, `{"since":"2024-02-01","until":"2024-02-29"}`, r.URL.Query().Get("time_range"))
			assert.Equal(t, "publisher_platform", r.URL.Query().Get("breakdowns"))
			json.NewEncoder(w).Encode(map[string]any{
				"data":   []map[string]string{{"campaign_name": "A", "clicks": "3", "date_start": "2024-02-01"}},
				"paging": map[string]string{"next": srv.URL + "/v17.0/act_123/insights?access_token=tok&after=x"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"campaign_name": "B", "clicks": "4", "date_start": "2024-02-02"}},
		})
	}))
	defer srv.Close()

	client := NewGraphClient(config.FacebookConfig{GraphURL: srv.URL, Version: "v17.0", AccessToken: "tok", AdAccountID: "act_123"}, srv.Client())

	rows, err := client.Insights(context.Background(), Query{
		Since: "2024-02-01", Until: "2024-02-29", Level: "campaign",
		Breakdowns: []string{"publisher_platform"}, TimeIncrement: 1,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 4.0, rows[1].Field("clicks"))
}

func TestGraphClientReportsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`))
	}))
	defer srv.Close()

	client := NewGraphClient(config.FacebookConfig{GraphURL: srv.URL, Version: "v17.0", AccessToken: "tok", AdAccountID: "1"}, srv.Client())
	_, err := client.Insights(context.Background(), Query{DatePreset: "maximum"})

	var gerr *GraphError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusBadRequest, gerr.Status)
	assert.Equal(t, 190, gerr.Code)
	assert.Equal(t, "Invalid OAuth access token.", gerr.Message)
}

func TestGraphClientNotConfigured(t *testing.T) {
	client := NewGraphClient(config.FacebookConfig{}, nil)
	_, err := client.Insights(context.Background(), Query{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

type fakeSource struct {
	rows  []Row
	calls atomic.Int32
	last  Query
}

func (f *fakeSource) Insights(ctx context.Context, q Query) ([]Row, error) {
	f.calls.Add(1)
	f.last = q
	return f.rows, nil
}

type mapCache map[string][]byte

func (m mapCache) Get(ctx context.Context, key string, out any) (bool, error) {
	raw, ok := m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (m mapCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	m[key] = raw
	return err
}

func TestServiceMonthlyMapsAndCaches(t *testing.T) {
	src := &fakeSource{rows: []Row{
		{CampaignName: "A", PublisherPlatform: "facebook", DateStart: "2024-02-01", CTR: "1.25"},
		{CampaignName: "B", PublisherPlatform: "instagram", DateStart: "2024-02-02", CTR: ""},
	}}
	svc := NewService(src, mapCache{}, time.Minute, zerolog.Nop())

	samples, err := svc.Monthly(context.Background(), "2024-02-01", "2024-02-29", metrics.CTR)
	require.NoError(t, err)
	assert.Equal(t, []models.MetricSample{
		{Date: "2024-02-01", Campaign: "A", Platform: "facebook", MetricValue: 1.25},
		{Date: "2024-02-02", Campaign: "B", Platform: "instagram", MetricValue: 0},
	}, samples)

	_, err = svc.Monthly(context.Background(), "2024-02-01", "2024-02-29", metrics.CTR)
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.calls.Load())
}

func TestServiceMonthlyValidatesRange(t *testing.T) {
	svc := NewService(&fakeSource{}, nil, 0, zerolog.Nop())

	_, err := svc.Monthly(context.Background(), "2024-03-01", "2024-02-01", metrics.Clicks)
	var qerr *InvalidQueryError
	require.ErrorAs(t, err, &qerr)

	_, err = svc.Monthly(context.Background(), "02/01/2024", "2024-02-29", metrics.Clicks)
	require.ErrorAs(t, err, &qerr)
}

func TestServiceAllTime(t *testing.T) {
	src := &fakeSource{rows: []Row{{CampaignName: "A", Clicks: "10", Impressions: "200", CPC: "0.5", CTR: "5"}}}
	svc := NewService(src, nil, 0, zerolog.Nop())

	rows, err := svc.AllTime(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []models.CampaignRow{{Campaign: "A", Clicks: 10, Impressions: 200, CPC: 0.5, CTR: 5}}, rows)
	assert.Equal(t, DefaultLimit, src.last.Limit)
	assert.Equal(t, "maximum", src.last.DatePreset)

	_, err = svc.AllTime(context.Background(), MaxLimit+1)
	assert.Error(t, err)
}
