package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"docportal/internal/model"
)

// readSecret returns flagValue, or the first line of in when it is empty.
func readSecret(in io.Reader, out io.Writer, prompt, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLoginCommand(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ", password)
			if err != nil {
				return err
			}
			sess, err := a.session.Login(cmd.Context(), model.LoginRequest{Username: username, Password: pw})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", sess.Username, sess.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when omitted)")
	return cmd
}

func newRegisterCommand(a *app) *cobra.Command {
	var req model.RegisterRequest
	var role string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if req.Username != "" {
				ok, err := a.client.UsernameAvailable(ctx, req.Username)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("username %q is already taken", req.Username)
				}
			}
			if req.Email != "" {
				ok, err := a.client.EmailAvailable(ctx, req.Email)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("email %q is already registered", req.Email)
				}
			}
			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}
			req.Role = model.Role(strings.ToUpper(role))

			sess, err := a.session.Register(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in as %s (%s)\n", sess.Username, sess.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "Username (3-50 characters)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Password (at least 6 characters)")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm-password", "", "Password confirmation (defaults to --password)")
	cmd.Flags().StringVar(&role, "role", "", "Role: USER or ADMIN (default USER)")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		Short:   "Show the signed-in user",
		PreRunE: a.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := a.session.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> %s\n", sess.Username, sess.Email, sess.Role)
			return nil
		},
	}
}
