package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account and session commands",
	}

	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newVerifyCmd())

	return cmd
}

func newRegisterCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := client.Post("register", map[string]string{
				"username": user,
				"password": pass,
			})
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Registered %s", user))
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newLoginCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.Post("login", map[string]string{
				"username": user,
				"password": pass,
			})
			// A 400 carrying a token means a session already exists for
			// this account; adopt it.
			var replyErr *ReplyError
			if errors.As(err, &replyErr) && replyErr.Status == 400 {
				if token, ok := replyErr.Fields["token"].(string); ok && token != "" {
					reply = &Reply{Status: replyErr.Status, Details: replyErr.Details, Fields: replyErr.Fields}
					err = nil
				}
			}
			if err != nil {
				return err
			}

			token := reply.Str("token")
			if err := cfg.SaveSession(user, token); err != nil {
				return fmt.Errorf("saving session: %w", err)
			}
			client.SetSession(user, token)

			out := NewOutput(cfg.Output)
			out.Print(Session{
				Username:      user,
				Token:         token,
				MulticastIP:   reply.Str("multicastIp"),
				MulticastPort: reply.Int("multicastPort"),
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := client.Post("logout", nil); err != nil {
				return err
			}
			if err := cfg.ClearSession(); err != nil {
				return fmt.Errorf("clearing session: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Logged out")
			return nil
		},
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check and renew the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.Post("verify", nil)
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(reply.Details)
			return nil
		},
	}
}
