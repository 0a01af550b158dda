package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campaigndash/internal/authclient"
	"campaigndash/internal/metrics"
	"campaigndash/internal/models"
)

type fakeAPI struct {
	token   string
	user    authclient.User
	meErr   error
	samples map[string][]models.MetricSample
	failOn  string
	rows    []models.CampaignRow
	users   []authclient.User
	delErr  error

	mu      sync.Mutex
	ranges  []string
	deleted []string
	logins  int
	signups []authclient.SignUp
}

func (f *fakeAPI) AccessToken() (string, error) { return f.token, nil }

func (f *fakeAPI) Me(context.Context) (authclient.User, error) { return f.user, f.meErr }

func (f *fakeAPI) Monthly(_ context.Context, since, until, metric string) ([]models.MetricSample, error) {
	f.mu.Lock()
	f.ranges = append(f.ranges, metric+":"+since+".."+until)
	f.mu.Unlock()
	if metric == f.failOn {
		return nil, &authclient.APIError{Status: 502, Detail: "graph unavailable"}
	}
	return f.samples[metric], nil
}

func (f *fakeAPI) AllTime(context.Context, int) ([]models.CampaignRow, error) { return f.rows, nil }

func (f *fakeAPI) Users(context.Context) ([]authclient.User, error) { return f.users, nil }

func (f *fakeAPI) DeleteUser(_ context.Context, email string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, email)
	return nil
}

func (f *fakeAPI) Login(context.Context, string, string, bool) (string, error) {
	f.logins++
	return "/dashboard", nil
}

func (f *fakeAPI) Register(_ context.Context, form authclient.SignUp) (string, error) {
	f.signups = append(f.signups, form)
	return "Registration successful. Please check your email to verify.", nil
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	admin := authclient.User{Email: "root@example.com", Role: "admin"}
	member := authclient.User{Email: "ann@example.com", Role: "user"}

	cases := []struct {
		name string
		api  *fakeAPI
		page Route
		want Route
	}{
		{"no token", &fakeAPI{user: admin}, RouteDashboard, RouteSignIn},
		{"me fails", &fakeAPI{token: "t", meErr: authclient.ErrSessionExpired}, RouteDashboard, RouteSignIn},
		{"member on dashboard", &fakeAPI{token: "t", user: member}, RouteDashboard, RouteDashboard},
		{"member on admin", &fakeAPI{token: "t", user: member}, RouteAdmin, RouteUnauthorized},
		{"member on admin subpage", &fakeAPI{token: "t", user: member}, "/admin/users", RouteUnauthorized},
		{"admin on admin", &fakeAPI{token: "t", user: admin}, RouteAdmin, RouteAdmin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, route := Bootstrap(ctx, tc.api, tc.api, tc.page)
			assert.Equal(t, tc.want, route)
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Contains(t, Message(authclient.ErrSessionExpired), "sign in")
	assert.Equal(t, "Invalid password", Message(&authclient.APIError{Status: 401, Detail: "Invalid password"}))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}

func TestYearAndMonthOptions(t *testing.T) {
	now := time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []int{2025, 2024, 2023, 2022, 2021}, YearOptions(now))
	assert.Equal(t, Selection{Year: 2025, Month: 3}, CurrentSelection(now))

	months := MonthOptions()
	require.Len(t, months, 12)
	assert.Equal(t, "January", months[0])
	assert.Equal(t, "December", months[11])
}

func TestDailyViewIsDense(t *testing.T) {
	api := &fakeAPI{samples: map[string][]models.MetricSample{
		"clicks": {{Date: "2024-02-10", MetricValue: 4}},
	}}
	view := MetricView{Kind: metrics.Clicks, Shape: ShapeDaily}

	data, err := view.Load(context.Background(), api, Selection{Year: 2024, Month: 2})
	require.NoError(t, err)
	require.Len(t, data.Daily, 29)
	assert.Equal(t, 4.0, data.Daily[9].Value)
	assert.Nil(t, data.Groups)
	assert.Equal(t, []string{"clicks:2024-02-01..2024-02-29"}, api.ranges)

	out := RenderView(data)
	assert.Contains(t, out, "Daily Clicks")
	assert.Contains(t, out, "February 2024")
}

func TestGroupedViews(t *testing.T) {
	api := &fakeAPI{samples: map[string][]models.MetricSample{
		"ctr": {
			{Campaign: "Spring", Platform: "facebook", MetricValue: 1},
			{Campaign: "Spring", Platform: "instagram", MetricValue: 3},
		},
	}}
	sel := Selection{Year: 2024, Month: 5}

	byCampaign, err := MetricView{Kind: metrics.CTR, Shape: ShapeCampaign}.Load(context.Background(), api, sel)
	require.NoError(t, err)
	assert.Equal(t, []metrics.Group{{Key: "Spring", Value: 2}}, byCampaign.Groups)

	byPlatform, err := MetricView{Kind: metrics.CTR, Shape: ShapePlatform}.Load(context.Background(), api, sel)
	require.NoError(t, err)
	assert.Len(t, byPlatform.Groups, 2)
	assert.Contains(t, RenderView(byPlatform), "instagram")
}

func TestViewLoadErrors(t *testing.T) {
	api := &fakeAPI{failOn: "clicks"}

	_, err := MetricView{Kind: metrics.Clicks, Shape: ShapeDaily}.Load(context.Background(), api, Selection{Year: 2024, Month: 1})
	require.Error(t, err)
	assert.Equal(t, "graph unavailable", Message(err))

	_, err = MetricView{Kind: metrics.Impressions, Shape: ShapeDaily}.Load(context.Background(), api, Selection{Year: 2024, Month: 13})
	assert.Error(t, err)

	_, err = MetricView{Kind: metrics.Impressions, Shape: "country"}.Load(context.Background(), api, Selection{Year: 2024, Month: 1})
	assert.Error(t, err)
}

func TestLoadStatsFetchesEveryMetric(t *testing.T) {
	api := &fakeAPI{samples: map[string][]models.MetricSample{
		"clicks":      {{MetricValue: 10}, {MetricValue: 5}},
		"impressions": {{MetricValue: 1000}},
		"cpc":         {{MetricValue: 1}, {MetricValue: 3}},
	}}

	stats, err := LoadStats(context.Background(), api, Selection{Year: 2023, Month: 4})
	require.NoError(t, err)
	assert.Equal(t, 15.0, stats[metrics.Clicks])
	assert.Equal(t, 1000.0, stats[metrics.Impressions])
	assert.Equal(t, 2.0, stats[metrics.CPC])
	assert.Equal(t, 0.0, stats[metrics.CTR])
	assert.Len(t, api.ranges, 4)

	out := RenderStats(stats)
	assert.Contains(t, out, "Average CPC")
	assert.Contains(t, out, "₹2.00")

	api.failOn = "ctr"
	_, err = LoadStats(context.Background(), api, Selection{Year: 2023, Month: 4})
	assert.Error(t, err)
}

func TestCampaignTable(t *testing.T) {
	api := &fakeAPI{rows: []models.CampaignRow{
		{Campaign: "b", Clicks: 1},
		{Campaign: "a", Clicks: 9},
	}}
	table := NewCampaignTable()
	require.NoError(t, table.Load(context.Background(), api, 100))

	assert.Equal(t, "a", table.Rows()[0].Campaign)
	assert.Contains(t, RenderCampaigns(table.Rows(), table.Sort), "Clicks ↓")

	table.Toggle(metrics.ColumnCampaign)
	assert.Equal(t, metrics.SortState{Column: metrics.ColumnCampaign, Direction: metrics.Ascending}, table.Sort)
	assert.Equal(t, "a", table.Rows()[0].Campaign)

	table.Toggle(metrics.ColumnCampaign)
	assert.Equal(t, "b", table.Rows()[0].Campaign)
	assert.Contains(t, RenderCampaigns(table.Rows(), table.Sort), "Campaign ↓")
}

func TestAdminPanel(t *testing.T) {
	api := &fakeAPI{users: []authclient.User{
		{Email: "a@example.com", Name: "A"},
		{Email: "b@example.com", Name: "B"},
	}}
	panel := NewAdminPanel(api)
	ctx := context.Background()

	require.NoError(t, panel.Load(ctx))
	assert.Len(t, panel.Users, 2)
	assert.ErrorIs(t, panel.Confirm(ctx), ErrNoPendingDelete)

	panel.RequestDelete("a@example.com")
	panel.Cancel()
	assert.Empty(t, panel.Pending)
	assert.ErrorIs(t, panel.Confirm(ctx), ErrNoPendingDelete)

	panel.RequestDelete("a@example.com")
	require.NoError(t, panel.Confirm(ctx))
	assert.Equal(t, []string{"a@example.com"}, api.deleted)
	assert.Equal(t, []authclient.User{{Email: "b@example.com", Name: "B"}}, panel.Users)
	assert.Contains(t, panel.Notice, "a@example.com")
	assert.Contains(t, RenderUsers(panel.Users), "b@example.com")

	api.delErr = &authclient.APIError{Status: 400, Detail: "You cannot delete your own account"}
	panel.RequestDelete("b@example.com")
	require.Error(t, panel.Confirm(ctx))
	assert.Equal(t, "You cannot delete your own account", panel.Error)
	assert.Len(t, panel.Users, 1)
}

func TestAuthFormValidate(t *testing.T) {
	signIn := AuthForm{Mode: ModeSignIn}
	errs := signIn.Validate()
	assert.Equal(t, "Email is required", errs["email"])
	assert.Equal(t, "Password is required", errs["password"])

	signIn = AuthForm{Mode: ModeSignIn, Email: "not-an-email", Password: "x"}
	assert.Contains(t, signIn.Validate(), "email")
	signIn.Email = "a@b"
	assert.Contains(t, signIn.Validate(), "email")

	signIn.Email = "ann@example.com"
	assert.Nil(t, signIn.Validate())

	signUp := AuthForm{Mode: ModeSignUp, Email: "ann@example.com", Password: "weak", ConfirmPassword: "other"}
	errs = signUp.Validate()
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "agree")
	assert.Equal(t, "Passwords do not match", errs["confirm_password"])
	assert.True(t, strings.HasPrefix(errs["password"], "Password needs "))
	assert.Contains(t, RenderChecklist(signUp), "✗ one number")

	signUp = AuthForm{Mode: ModeSignUp, Name: "Ann", Email: "ann@example.com", Password: "Str0ng!pw", ConfirmPassword: "Str0ng!pw", Agree: true}
	assert.Nil(t, signUp.Validate())
}

func TestAuthFormSubmit(t *testing.T) {
	api := &fakeAPI{}
	ctx := context.Background()

	_, err := AuthForm{Mode: ModeSignIn}.Submit(ctx, api)
	var apiErr *authclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Fields, "email")
	assert.Zero(t, api.logins)

	res, err := AuthForm{Mode: ModeSignIn, Email: "Ann@Example.com", Password: "pw"}.Submit(ctx, api)
	require.NoError(t, err)
	assert.Equal(t, RouteDashboard, res.Redirect)

	res, err = AuthForm{Mode: ModeSignUp, Name: " Ann ", Email: "Ann@Example.com", Password: "Str0ng!pw", ConfirmPassword: "Str0ng!pw", Agree: true}.Submit(ctx, api)
	require.NoError(t, err)
	assert.Equal(t, RouteSignIn, res.Redirect)
	assert.Contains(t, res.Message, "verify")
	require.Len(t, api.signups, 1)
	assert.Equal(t, "ann@example.com", api.signups[0].Email)
	assert.Equal(t, "Ann", api.signups[0].Name)
}
