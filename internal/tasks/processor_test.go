package tasks

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaigndash/internal/insights"
	"campaigndash/internal/mailer"
	"campaigndash/internal/metrics"
	"campaigndash/internal/models"
	"campaigndash/internal/queue"
	"campaigndash/internal/security"
)

type recordingMailer struct{ sent []mailer.Message }

func (m *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type fakeInsights struct {
	err   error
	since string
}

func (f *fakeInsights) Monthly(ctx context.Context, since, until string, kind metrics.Kind) ([]models.MetricSample, error) {
	f.since = since
	return []models.MetricSample{{Date: since, Campaign: "A", MetricValue: 4}}, f.err
}

func (f *fakeInsights) AllTime(ctx context.Context, limit int) ([]models.CampaignRow, error) {
	return []models.CampaignRow{{Campaign: "A", Clicks: 4}}, f.err
}

type memArchive map[string][]byte

func (m memArchive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m[key] = data
	return nil
}

type fakeCleaner struct{ called bool }

func (f *fakeCleaner) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.called = true
	return 3, nil
}

func TestVerifyEmailTaskSendsLink(t *testing.T) {
	mail := &recordingMailer{}
	p := NewProcessor(Dependencies{
		Mailer: mail, VerifySecret: "secret", VerifyTTL: time.Hour, FrontendURL: "http://localhost:3000",
	}, zerolog.Nop())

	err := p.Handle(context.Background(), queue.Task{Type: queue.TaskVerifyEmail, Data: map[string]string{"email": "ann@example.com", "name": "Ann"}})
	require.NoError(t, err)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "ann@example.com", mail.sent[0].To)

	body := mail.sent[0].Body
	start := strings.Index(body, "http://localhost:3000/verify-email?token=")
	require.GreaterOrEqual(t, start, 0)
	link, err := url.Parse(strings.Fields(body[start:])[0])
	require.NoError(t, err)

	email, err := security.ParseVerificationToken(link.Query().Get("token"), "secret")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", email)
}

func TestSnapshotTaskArchivesMonth(t *testing.T) {
	archive := memArchive{}
	src := &fakeInsights{}
	p := NewProcessor(Dependencies{Insights: src, Archive: archive}, zerolog.Nop())
	p.now = func() time.Time { return time.Date(2024, 2, 10, 4, 0, 0, 0, time.UTC) }

	require.NoError(t, p.Handle(context.Background(), queue.Task{Type: queue.TaskSnapshot}))
	assert.Equal(t, "2024-02-01", src.since)

	raw, ok := archive["snapshots/2024/02/20240210T040000Z.json"]
	require.True(t, ok)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Len(t, snap.DailyClicks, 29)
	assert.Equal(t, 4.0, snap.DailyClicks[0].Value)
	assert.Equal(t, "A", snap.Campaigns[0].Campaign)
}

func TestSnapshotTaskFilesBackfillUnderItsPeriod(t *testing.T) {
	archive := memArchive{}
	src := &fakeInsights{}
	p := NewProcessor(Dependencies{Insights: src, Archive: archive}, zerolog.Nop())
	p.now = func() time.Time { return time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC) }

	task := queue.Task{Type: queue.TaskSnapshot, Data: map[string]string{"period": "2024-03"}}
	require.NoError(t, p.Handle(context.Background(), task))
	assert.Equal(t, "2024-03-01", src.since)

	raw, ok := archive["snapshots/2024/03/20240502T093000Z.json"]
	require.True(t, ok, "keys: %v", archive)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, 3, snap.Month)
	assert.Len(t, snap.DailyClicks, 31)
}

func TestSnapshotTaskAcksWhenNotConfigured(t *testing.T) {
	archive := memArchive{}
	p := NewProcessor(Dependencies{Insights: &fakeInsights{err: insights.ErrNotConfigured}, Archive: archive}, zerolog.Nop())

	require.NoError(t, p.Handle(context.Background(), queue.Task{Type: queue.TaskSnapshot, Data: map[string]string{"period": "2023-11"}}))
	assert.Empty(t, archive)
}

func TestCleanupAndUnknownTasks(t *testing.T) {
	cleaner := &fakeCleaner{}
	p := NewProcessor(Dependencies{Sessions: cleaner}, zerolog.Nop())

	require.NoError(t, p.Handle(context.Background(), queue.Task{Type: queue.TaskCleanup}))
	assert.True(t, cleaner.called)
	assert.NoError(t, p.Handle(context.Background(), queue.Task{Type: "resize"}))
}
