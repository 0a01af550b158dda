package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"campaigndash/internal/insights"
	"campaigndash/internal/mailer"
	"campaigndash/internal/metrics"
	"campaigndash/internal/models"
	"campaigndash/internal/queue"
	"campaigndash/internal/security"
)

// Insights is the slice of the insights service snapshots read from.
type Insights interface {
	Monthly(ctx context.Context, since, until string, kind metrics.Kind) ([]models.MetricSample, error)
	AllTime(ctx context.Context, limit int) ([]models.CampaignRow, error)
}

// Archive stores snapshot documents.
type Archive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// SessionCleaner purges expired refresh sessions.
type SessionCleaner interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Dependencies struct {
	Mailer       mailer.Provider
	VerifySecret string
	VerifyTTL    time.Duration
	FrontendURL  string
	Insights     Insights
	Archive      Archive
	Sessions     SessionCleaner
}

type Processor struct {
	deps   Dependencies
	logger zerolog.Logger
	now    func() time.Time
}

func NewProcessor(deps Dependencies, logger zerolog.Logger) *Processor {
	return &Processor{
		deps:   deps,
		logger: logger,
		now:    time.Now,
	}
}

func (p *Processor) Handle(ctx context.Context, task queue.Task) error {
	switch task.Type {
	case queue.TaskVerifyEmail:
		return p.handleVerifyEmail(ctx, task)
	case queue.TaskSnapshot:
		return p.handleSnapshot(ctx, task)
	case queue.TaskCleanup:
		return p.handleCleanup(ctx)
	default:
		p.logger.Warn().Str("task", string(task.Type)).Msg("unknown task type")
		return nil
	}
}

func (p *Processor) handleVerifyEmail(ctx context.Context, task queue.Task) error {
	email := task.Data["email"]
	if email == "" {
		p.logger.Warn().Msg("verify_email task without email")
		return nil
	}

	token, err := security.GenerateVerificationToken(p.deps.VerifySecret, email, p.deps.VerifyTTL)
	if err != nil {
		return fmt.Errorf("mint verification token: %w", err)
	}
	link := mailer.VerificationLink(p.deps.FrontendURL, token)
	msg, err := mailer.Verification(email, task.Data["name"], link, p.deps.VerifyTTL.String())
	if err != nil {
		return fmt.Errorf("render verification mail: %w", err)
	}
	if err := p.deps.Mailer.Send(ctx, msg); err != nil {
		return err
	}

	p.logger.Info().Str("task", string(task.Type)).Str("email", email).Msg("verification mail sent")
	return nil
}

// Snapshot is the archived document for one run.
type Snapshot struct {
	TakenAt     time.Time            `json:"taken_at"`
	Year        int                  `json:"year"`
	Month       int                  `json:"month"`
	Campaigns   []models.CampaignRow `json:"campaigns"`
	DailyClicks []metrics.Point      `json:"daily_clicks"`
}

// SnapshotKey files a snapshot under the month it covers, named by when it was taken.
func SnapshotKey(year, month int, takenAt time.Time) string {
	return fmt.Sprintf("snapshots/%04d/%02d/%s.json", year, month, takenAt.UTC().Format("20060102T150405Z"))
}

func (p *Processor) handleSnapshot(ctx context.Context, task queue.Task) error {
	if p.deps.Insights == nil || p.deps.Archive == nil {
		p.logger.Warn().Msg("snapshot task skipped: insights or archive not configured")
		return nil
	}

	now := p.now()
	year, month := now.Year(), int(now.Month())
	if period := task.Data["period"]; period != "" {
		t, err := time.Parse("2006-01", period)
		if err != nil {
			p.logger.Warn().Str("period", period).Msg("snapshot task with bad period")
			return nil
		}
		year, month = t.Year(), int(t.Month())
	}

	since, until, err := metrics.MonthRange(year, month)
	if err != nil {
		return err
	}

	campaigns, err := p.deps.Insights.AllTime(ctx, insights.DefaultLimit)
	if err != nil {
		return p.insightsError(err)
	}
	samples, err := p.deps.Insights.Monthly(ctx, since, until, metrics.Clicks)
	if err != nil {
		return p.insightsError(err)
	}

	doc, err := json.Marshal(Snapshot{
		TakenAt:     now.UTC(),
		Year:        year,
		Month:       month,
		Campaigns:   campaigns,
		DailyClicks: metrics.FillDaily(samples, year, month, metrics.Clicks),
	})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	key := SnapshotKey(year, month, now)
	if err := p.deps.Archive.Put(ctx, key, doc, "application/json"); err != nil {
		return err
	}
	p.logger.Info().Str("task", string(task.Type)).Str("key", key).Int("campaigns", len(campaigns)).Msg("snapshot stored")
	return nil
}

// insightsError acks tasks that can never succeed until the account is configured.
func (p *Processor) insightsError(err error) error {
	if errors.Is(err, insights.ErrNotConfigured) {
		p.logger.Warn().Err(err).Msg("snapshot task skipped")
		return nil
	}
	return err
}

func (p *Processor) handleCleanup(ctx context.Context) error {
	if p.deps.Sessions == nil {
		return nil
	}
	removed, err := p.deps.Sessions.DeleteExpired(ctx, p.now())
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	p.logger.Info().Str("task", string(queue.TaskCleanup)).Int64("removed", removed).Msg("expired sessions removed")
	return nil
}
