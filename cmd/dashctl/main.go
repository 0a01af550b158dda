package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"campaigndash/internal/authclient"
	"campaigndash/internal/config"
	"campaigndash/internal/dashboard"
	"campaigndash/internal/log"
)

var (
	baseURL string
	verbose bool

	cfg    *config.ClientConfig
	logger zerolog.Logger
	store  *authclient.FileTokenStore
	client *authclient.Client
)

var rootCmd = &cobra.Command{
	Use:   "dashctl",
	Short: "Campaign dashboard from the terminal",
	Long: `dashctl signs in to the campaign dashboard API and renders the monthly
metric charts, the all-time campaign table and the admin user list.

The session is kept in the token file (see DASHCTL_TOKENFILE) and refreshed
automatically when the access token expires.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadClient()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger = log.NewWithLevel(os.Stderr, level)

		store = authclient.NewFileTokenStore(cfg.TokenFile)
		client = authclient.New(cfg.BaseURL, store, &http.Client{Timeout: cfg.Timeout}, logger)
		logger.Debug().Str("base_url", cfg.BaseURL).Str("token_file", store.Path()).Msg("client ready")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(signinCmd, signupCmd, verifyCmd, googleCmd, signoutCmd, whoamiCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(adminCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, dashboard.RenderError(dashboard.Message(err)))
		if errors.Is(err, authclient.ErrSessionExpired) || errors.Is(err, errSignedOut) {
			fmt.Fprintln(os.Stderr, "Run `dashctl signin` to continue.")
		}
		os.Exit(1)
	}
}

var errSignedOut = errors.New("not signed in")

// requirePage runs the session bootstrap and turns a redirect into an error.
func requirePage(ctx context.Context, page dashboard.Route) (authclient.User, error) {
	user, route := dashboard.Bootstrap(ctx, client.Session(), client, page)
	switch route {
	case dashboard.RouteSignIn:
		return user, errSignedOut
	case dashboard.RouteUnauthorized:
		return user, errors.New("admin access required")
	}
	return user, nil
}
