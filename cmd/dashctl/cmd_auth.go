package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"campaigndash/internal/authclient"
	"campaigndash/internal/dashboard"
)

var (
	formEmail    string
	formName     string
	formPassword string
	formRemember bool
	formAgree    bool
)

var signinCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in with email and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		form := dashboard.AuthForm{
			Mode:     dashboard.ModeSignIn,
			Email:    formEmail,
			Remember: formRemember,
		}
		var err error
		if form.Password, err = password("Password: "); err != nil {
			return err
		}

		res, err := form.Submit(cmd.Context(), client)
		if err != nil {
			return formError(err)
		}
		fmt.Printf("Signed in. Next: %s\n", res.Redirect)
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Long: `Create an account. A verification link is mailed to the address; open it
or pass its token to 'dashctl verify' to finish signing up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		form := dashboard.AuthForm{
			Mode:  dashboard.ModeSignUp,
			Name:  formName,
			Email: formEmail,
			Agree: formAgree,
		}
		var err error
		if form.Password, err = password("Password: "); err != nil {
			return err
		}
		if formPassword != "" {
			form.ConfirmPassword = form.Password
		} else if form.ConfirmPassword, err = password("Confirm password: "); err != nil {
			return err
		}

		if errs := form.Validate(); errs != nil && errs["password"] != "" {
			fmt.Println(dashboard.RenderChecklist(form))
		}
		res, err := form.Submit(cmd.Context(), client)
		if err != nil {
			return formError(err)
		}
		fmt.Println(res.Message)
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <token>",
	Short: "Verify an email address and sign in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := client.VerifyEmail(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Email verified. You are signed in.")
		return nil
	},
}

var googleCmd = &cobra.Command{
	Use:   "google <id-token>",
	Short: "Sign in with a Google ID token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := client.GoogleLogin(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Signed in with Google.")
		return nil
	},
}

var signoutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out and forget the local session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.Logout(cmd.Context()); err != nil {
			logger.Warn().Err(err).Msg("server logout failed; local session cleared")
		}
		fmt.Println("Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requirePage(cmd.Context(), dashboard.RouteDashboard)
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s> role=%s\n", user.Name, user.Email, user.Role)
		return nil
	},
}

var resendCmd = &cobra.Command{
	Use:   "resend-verification",
	Short: "Mail the verification link again",
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := client.ResendVerification(cmd.Context(), formEmail)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{signinCmd, signupCmd, resendCmd} {
		c.Flags().StringVarP(&formEmail, "email", "e", "", "Account email")
		_ = c.MarkFlagRequired("email")
	}
	for _, c := range []*cobra.Command{signinCmd, signupCmd} {
		c.Flags().StringVar(&formPassword, "password", "", "Password (prompted when omitted)")
	}
	signinCmd.Flags().BoolVar(&formRemember, "remember", false, "Keep the session for the remember-me period")
	signupCmd.Flags().StringVarP(&formName, "name", "n", "", "Display name")
	signupCmd.Flags().BoolVar(&formAgree, "agree", false, "Accept the terms and conditions")
	signupCmd.AddCommand(resendCmd)
}

var stdin = bufio.NewReader(os.Stdin)

// password returns --password or prompts without echo on a terminal.
func password(prompt string) (string, error) {
	if formPassword != "" {
		return formPassword, nil
	}
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return string(raw), err
	}
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// formError prints per-field messages before returning the summary.
func formError(err error) error {
	var apiErr *authclient.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Fields) == 0 {
		return err
	}
	fields := make([]string, 0, len(apiErr.Fields))
	for f := range apiErr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", f, apiErr.Fields[f])
	}
	return err
}
