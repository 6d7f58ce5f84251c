package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/synergysphere/sphere/internal/api"
	"golang.org/x/term"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			in := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				if email, err = prompt(cmd, in, "Email: ", false); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(cmd, in, "Password: ", true); err != nil {
					return err
				}
			}

			res, err := e.client.Login(cmd.Context(), api.LoginRequest{Email: strings.TrimSpace(email), Password: password})
			if err != nil {
				e.logger.Info("login failed", "email", email, "error", err)
				return err
			}
			if err := e.sessions.Save(res.Token, res.User); err != nil {
				return err
			}
			e.logger.Info("logged in", "user_id", res.User.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", res.User.DisplayName(), res.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	return cmd
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			in := bufio.NewReader(cmd.InOrStdin())
			if password == "" {
				if password, err = prompt(cmd, in, "Password: ", true); err != nil {
					return err
				}
			}

			res, err := e.client.Register(cmd.Context(), api.RegisterRequest{
				Name:     strings.TrimSpace(name),
				Email:    strings.TrimSpace(email),
				Password: password,
			})
			if err != nil {
				return err
			}
			msg := res.Message
			if msg == "" {
				msg = "User registered"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s. Run 'sphere login --email %s' to sign in.\n", msg, strings.TrimSpace(email))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted when omitted)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.sessions.Logout(); err != nil {
				return err
			}
			e.logger.Info("logged out")
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd, opts)
			if err != nil {
				return err
			}
			defer e.Close()

			s, err := e.requireSession()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:  %s\n", s.User.DisplayName())
			fmt.Fprintf(out, "Email: %s\n", s.User.Email)
			if s.User.Role != "" {
				fmt.Fprintf(out, "Role:  %s\n", s.User.Role)
			}
			fmt.Fprintf(out, "API:   %s\n", e.cfg.APIURL)
			return nil
		},
	}
}

// prompt reads one line of input. Secrets are read without echo when stdin
// is a terminal.
func prompt(cmd *cobra.Command, in *bufio.Reader, label string, secret bool) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	if secret && cmd.InOrStdin() == os.Stdin && term.IsTerminal(int(os.Stdin.Fd())) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(b), err
	}
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
