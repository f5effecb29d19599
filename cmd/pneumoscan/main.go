package main

import (
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tahmid/pneumoscan/internal/api"
	"github.com/tahmid/pneumoscan/internal/config"
	"github.com/tahmid/pneumoscan/internal/cookies"
	"github.com/tahmid/pneumoscan/internal/notify"
	"github.com/tahmid/pneumoscan/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
)

var flagVerbose bool

// App carries the process-wide collaborators so commands stay testable.
type App struct {
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	LoadConfig func() (*config.Config, error)
	NewLogger  func() (*zap.Logger, error)
}

func DefaultApp() *App {
	return &App{
		In:         os.Stdin,
		Out:        os.Stdout,
		Err:        os.Stderr,
		LoadConfig: config.Load,
		NewLogger:  logger.New,
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := DefaultApp()
	return newRootCmd(app).Execute()
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pneumoscan",
		Short: "Terminal client for the PneumoDetect chest X-ray analysis service",
		Long: `pneumoscan is a terminal client for the PneumoDetect service: upload a
chest X-ray scan, get a diagnostic prediction with a confidence score,
and browse your analysis history.

Examples:
  pneumoscan login --email me@example.com --password secret
  pneumoscan analyze scan.png
  pneumoscan analyze --guest scan.png
  pneumoscan history
  pneumoscan dashboard`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log requests")

	cmd.AddCommand(
		newLoginCmd(app),
		newRegisterCmd(app),
		newVerifyEmailCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newAnalyzeCmd(app),
		newHistoryCmd(app),
		newDashboardCmd(app),
	)

	return cmd
}

// wire builds the gateway client plus the pieces every command shares.
func (app *App) wire() (*api.Client, *config.Config, notify.Sink, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}

	jar, err := cookies.Open(cfg.CookiePath(), base)
	if err != nil {
		return nil, nil, nil, err
	}

	log := zap.NewNop()
	if flagVerbose {
		if log, err = app.NewLogger(); err != nil {
			return nil, nil, nil, err
		}
	}

	sink := notify.NewConsole(app.Out)
	client, err := api.New(api.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Jar:     jar,
		Signals: sink,
		Logger:  log,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return client, cfg, sink, nil
}
