package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/levelup/internal/backend"
	"github.com/abhisek/levelup/internal/practice"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		signup, _ := cmd.Flags().GetBool("signup")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.requireBackend(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if signup {
			sess, err := e.client.Auth.SignUp(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("sign up: %s", backend.Message(err))
			}
			if sess == nil {
				fmt.Fprintln(out, "Check your email to confirm your account, then run levelup login.")
				return nil
			}
			fmt.Fprintln(out, "Account created. Signed in as", sess.User.Email)
			return nil
		}

		sess, err := e.client.Auth.SignInWithPassword(cmd.Context(), email, password)
		if err != nil {
			return fmt.Errorf("sign in: %s", backend.Message(err))
		}
		fmt.Fprintln(out, "Signed in as", sess.User.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.client.Auth.SignOut(cmd.Context()); err != nil {
			return fmt.Errorf("sign out: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		out := cmd.OutOrStdout()
		sess, err := e.client.Auth.GetSession(cmd.Context())
		if err != nil {
			return fmt.Errorf("check session: %w", err)
		}
		if sess == nil {
			fmt.Fprintln(out, "Not signed in.")
			return nil
		}

		fmt.Fprintln(out, "Email:   ", sess.User.Email)
		p, err := e.store.Profiles.Get(cmd.Context(), sess.User.ID)
		if errors.Is(err, backend.ErrNotFound) {
			fmt.Fprintln(out, "Profile:  not created yet")
			return nil
		}
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		sum := practice.SummaryOf(p)
		if name := p.Name(); name != "" {
			fmt.Fprintln(out, "Name:    ", name)
		}
		fmt.Fprintln(out, "Level:   ", p.Level())
		fmt.Fprintln(out, "Points:  ", sum.Points)
		fmt.Fprintln(out, "Solved:  ", sum.Solved)
		fmt.Fprintf(out, "Streak:   %d (best %d)\n", sum.Streak, sum.Longest)
		fmt.Fprintln(out, "Badge:   ", sum.Badge)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password")
	loginCmd.Flags().Bool("signup", false, "Create the account instead of signing in")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
}
