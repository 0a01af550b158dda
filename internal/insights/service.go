package insights

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"campaigndash/internal/metrics"
	"campaigndash/internal/models"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Source is the upstream insights API.
type Source interface {
	Insights(ctx context.Context, q Query) ([]Row, error)
}

// Cache is an optional response cache.
type Cache interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Service struct {
	source Source
	cache  Cache
	ttl    time.Duration
	log    zerolog.Logger
}

func NewService(source Source, cache Cache, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{source: source, cache: cache, ttl: ttl, log: log}
}

// InvalidQueryError reports bad query parameters.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string { return e.Reason }

// ValidateRange checks since/until are YYYY-MM-DD and ordered.
func ValidateRange(since, until string) error {
	s, err := time.Parse(metrics.DateLayout, since)
	if err != nil {
		return &InvalidQueryError{Reason: "since must be a YYYY-MM-DD date"}
	}
	u, err := time.Parse(metrics.DateLayout, until)
	if err != nil {
		return &InvalidQueryError{Reason: "until must be a YYYY-MM-DD date"}
	}
	if u.Before(s) {
		return &InvalidQueryError{Reason: "until must not be before since"}
	}
	return nil
}

// Monthly returns one sample per day, campaign and platform for the metric.
func (s *Service) Monthly(ctx context.Context, since, until string, kind metrics.Kind) ([]models.MetricSample, error) {
	if err := ValidateRange(since, until); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("monthly:%s:%s:%s", since, until, kind)
	var cached []models.MetricSample
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}

	rows, err := s.source.Insights(ctx, Query{
		Since:         since,
		Until:         until,
		Level:         "campaign",
		Breakdowns:    []string{"publisher_platform"},
		TimeIncrement: 1,
	})
	if err != nil {
		return nil, err
	}

	samples := make([]models.MetricSample, 0, len(rows))
	for _, row := range rows {
		samples = append(samples, models.MetricSample{
			Date:        row.DateStart,
			Campaign:    row.CampaignName,
			Platform:    row.PublisherPlatform,
			MetricValue: row.Field(string(kind)),
		})
	}

	s.store(ctx, key, samples)
	return samples, nil
}

// AllTime returns per-campaign totals over the account lifetime.
func (s *Service) AllTime(ctx context.Context, limit int) ([]models.CampaignRow, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		return nil, &InvalidQueryError{Reason: "limit must be at most " + strconv.Itoa(MaxLimit)}
	}

	key := fmt.Sprintf("alltime:%d", limit)
	var cached []models.CampaignRow
	if s.lookup(ctx, key, &cached) {
		return cached, nil
	}

	rows, err := s.source.Insights(ctx, Query{
		DatePreset: "maximum",
		Level:      "campaign",
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.CampaignRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.CampaignRow{
			Campaign:    row.CampaignName,
			Clicks:      row.Field("clicks"),
			Impressions: row.Field("impressions"),
			CPC:         row.Field("cpc"),
			CTR:         row.Field("ctr"),
		})
	}

	s.store(ctx, key, out)
	return out, nil
}

func (s *Service) lookup(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, out)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("insights cache read failed")
		return false
	}
	return found
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("insights cache write failed")
	}
}
