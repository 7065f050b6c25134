package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/services"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	isTerminalFunc   = term.IsTerminal

	errPasswordRequired = errors.New("password is required: pass --password or run from a terminal")
)

type createAdminOptions struct {
	email    string
	name     string
	password string
}

func newCreateAdminCommand() *cobra.Command {
	var opts createAdminOptions

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or promote an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			// Account setup never needs a long-lived token
			tokens, err := auth.NewTokenManager(a.cfg.JWT.Secret, a.cfg.JWT.Expiry)
			if err != nil {
				return err
			}
			sm := services.NewServiceManager(services.ServiceManagerConfig{
				Repo:   a.repoManager.GetRepository(),
				Tokens: tokens,
				Logger: a.slog,
			})
			if err := sm.Initialize(cmd.Context()); err != nil {
				return err
			}

			return runCreateAdmin(cmd.Context(), cmd.OutOrStdout(), sm.Auth(), opts, int(os.Stdin.Fd()))
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "admin email (required)")
	cmd.Flags().StringVar(&opts.name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&opts.password, "password", "", "password; prompted when omitted")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runCreateAdmin(ctx context.Context, out io.Writer, authService services.AuthService, opts createAdminOptions, stdinFd int) error {
	if strings.TrimSpace(opts.email) == "" {
		return errors.New("--email is required")
	}

	password := opts.password
	if password == "" {
		if !isTerminalFunc(stdinFd) {
			return errPasswordRequired
		}
		fmt.Fprint(out, "Enter password: ")
		pwd, err := readPasswordFunc(stdinFd)
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(pwd)
	}

	user, created, err := authService.EnsureAdmin(ctx, opts.name, opts.email, password)
	if err != nil {
		return err
	}

	if created {
		fmt.Fprintf(out, "Created admin %s (%s)\n", user.Email, user.ID)
	} else {
		fmt.Fprintf(out, "Promoted %s (%s) to admin\n", user.Email, user.ID)
	}
	return nil
}
