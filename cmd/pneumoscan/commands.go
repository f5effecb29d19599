package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tahmid/pneumoscan/internal/auth"
	"github.com/tahmid/pneumoscan/internal/dashboard"
	"github.com/tahmid/pneumoscan/internal/display"
	"github.com/tahmid/pneumoscan/internal/history"
	"github.com/tahmid/pneumoscan/internal/upload"
	"github.com/tahmid/pneumoscan/internal/workflow"
)

var errNotLoggedIn = errors.New("not logged in: run 'pneumoscan login' first")

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func newLoginCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session cookie",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			client, _, _, err := app.wire()
			if err != nil {
				return err
			}

			message, err := client.Login(ctx, email, password)
			if err != nil {
				return fmt.Errorf("login failed")
			}
			fmt.Fprintln(app.Out, message)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd(app *App) *cobra.Command {
	var username, email, password, confirm string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(_ *cobra.Command, _ []string) error {
			// Local validation never reaches the network layer.
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}

			ctx, cancel := commandContext()
			defer cancel()

			client, _, _, err := app.wire()
			if err != nil {
				return err
			}

			message, err := client.Register(ctx, username, email, password, confirm)
			if err != nil {
				return fmt.Errorf("registration failed")
			}
			fmt.Fprintln(app.Out, message)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "password confirmation")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	cmd.MarkFlagRequired("confirm")
	return cmd
}

func newVerifyEmailCmd(app *App) *cobra.Command {
	var email, token string

	cmd := &cobra.Command{
		Use:   "verify-email",
		Short: "Verify an account email with the mailed token",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			client, _, _, err := app.wire()
			if err != nil {
				return err
			}

			message, err := client.VerifyEmail(ctx, email, token)
			if err != nil {
				return fmt.Errorf("verification failed")
			}
			fmt.Fprintln(app.Out, message)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&token, "token", "", "verification token")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("token")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			client, _, _, err := app.wire()
			if err != nil {
				return err
			}

			if err := client.Logout(ctx); err != nil {
				return fmt.Errorf("logout failed")
			}
			fmt.Fprintln(app.Out, "Logged out successfully!")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			client, _, _, err := app.wire()
			if err != nil {
				return err
			}

			state, user := auth.NewGuard(client).Check(ctx)
			if state != auth.Authenticated {
				return errNotLoggedIn
			}
			display.New(app.Out).User(user)
			return nil
		},
	}
}

func newAnalyzeCmd(app *App) *cobra.Command {
	var guest bool

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze a chest X-ray scan",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			client, cfg, sink, err := app.wire()
			if err != nil {
				return err
			}

			staging := upload.NewStaging(cfg.PreviewDir())
			renderer := display.New(app.Out)

			if guest {
				flow := workflow.NewGuest(staging, client, sink)
				flow.Enter()
				defer flow.CloseModal()

				if err := flow.Stage(args...); err != nil {
					return fmt.Errorf("staging failed")
				}
				if err := flow.Analyze(ctx); err != nil {
					return fmt.Errorf("analysis failed")
				}
				renderer.Result(flow.Result())
				return nil
			}

			state, _ := auth.NewGuard(client).Check(ctx)
			if state != auth.Authenticated {
				return errNotLoggedIn
			}

			cache, err := history.OpenCache(cfg.CachePath())
			if err != nil {
				return err
			}
			defer cache.Close()

			aggregator := history.NewAggregator(client, cache, nil)
			flow := workflow.NewAuthenticated(staging, client, client, aggregator, sink)
			defer flow.Reset()

			if err := flow.Stage(args...); err != nil {
				return fmt.Errorf("staging failed")
			}
			if err := flow.Analyze(ctx); err != nil {
				return fmt.Errorf("analysis failed")
			}
			renderer.Result(flow.Result())
			return nil
		},
	}

	cmd.Flags().BoolVar(&guest, "guest", false, "analyze anonymously; the result is not saved")
	return cmd
}

func newHistoryCmd(app *App) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show your analysis history grouped by date",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			client, cfg, _, err := app.wire()
			if err != nil {
				return err
			}

			cache, err := history.OpenCache(cfg.CachePath())
			if err != nil {
				return err
			}
			defer cache.Close()

			aggregator := history.NewAggregator(client, cache, nil)

			var groups history.Groups
			if offline {
				groups, err = aggregator.Offline(ctx)
			} else {
				groups, err = aggregator.Refresh(ctx)
			}
			if err != nil {
				return fmt.Errorf("history fetch failed")
			}

			display.New(app.Out).History(groups)
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "render the last fetched snapshot without a request")
	return cmd
}

func newDashboardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Interactive authenticated session",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			client, cfg, sink, err := app.wire()
			if err != nil {
				return err
			}

			cache, err := history.OpenCache(cfg.CachePath())
			if err != nil {
				return err
			}
			defer cache.Close()

			staging := upload.NewStaging(cfg.PreviewDir())
			aggregator := history.NewAggregator(client, cache, nil)
			flow := workflow.NewAuthenticated(staging, client, client, aggregator, sink)
			defer flow.Reset()

			dash := dashboard.New(&dashboard.Config{
				In:       app.In,
				Out:      app.Out,
				Err:      app.Err,
				Flow:     flow,
				Renderer: display.New(app.Out),
				Logout:   client.Logout,
			})
			return dash.Run(ctx)
		},
	}
}
