package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"campaigndash/internal/dashboard"
)

var assumeYes bool

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage user accounts (admin role required)",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List every account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requirePage(cmd.Context(), dashboard.RouteAdmin); err != nil {
			return err
		}
		p := dashboard.NewAdminPanel(client)
		if err := p.Load(cmd.Context()); err != nil {
			return err
		}
		fmt.Println(dashboard.RenderUsers(p.Users))
		return nil
	},
}

var adminDeleteCmd = &cobra.Command{
	Use:   "delete <email>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if _, err := requirePage(ctx, dashboard.RouteAdmin); err != nil {
			return err
		}

		p := dashboard.NewAdminPanel(client)
		p.RequestDelete(args[0])
		if !assumeYes && !confirm(fmt.Sprintf("Delete %s? This cannot be undone. [y/N] ", args[0])) {
			p.Cancel()
			fmt.Println("Cancelled.")
			return nil
		}
		if err := p.Confirm(ctx); err != nil {
			return err
		}
		fmt.Println(p.Notice)
		return nil
	},
}

func init() {
	adminDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
	adminCmd.AddCommand(adminUsersCmd, adminDeleteCmd)
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	line, _ := stdin.ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
