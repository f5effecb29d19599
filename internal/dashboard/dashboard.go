// Package dashboard is the interactive authenticated session: one
// process run is one browser-tab equivalent.
package dashboard

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tahmid/pneumoscan/internal/display"
	"github.com/tahmid/pneumoscan/internal/workflow"
)

type Dashboard struct {
	in       io.Reader
	out      io.Writer
	err      io.Writer
	flow     *workflow.Authenticated
	renderer *display.Renderer
	logout   func(ctx context.Context) error
	running  bool
}

type Config struct {
	In       io.Reader
	Out      io.Writer
	Err      io.Writer
	Flow     *workflow.Authenticated
	Renderer *display.Renderer
	Logout   func(ctx context.Context) error
}

func New(cfg *Config) *Dashboard {
	return &Dashboard{
		in:       cfg.In,
		out:      cfg.Out,
		err:      cfg.Err,
		flow:     cfg.Flow,
		renderer: cfg.Renderer,
		logout:   cfg.Logout,
	}
}

// Run enters the protected view and then loops over commands. If the
// entry fails, nothing protected is ever printed.
func (d *Dashboard) Run(ctx context.Context) error {
	if err := d.flow.Enter(ctx); err != nil {
		return fmt.Errorf("session check failed, please log in: %w", err)
	}

	d.running = true
	d.printWelcome()

	scanner := bufio.NewScanner(d.in)
	for d.running {
		d.printPrompt()
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := d.execute(ctx, line); err != nil {
			fmt.Fprintf(d.err, "Error: %v\n", err)
		}
	}

	return scanner.Err()
}

func (d *Dashboard) execute(ctx context.Context, line string) error {
	parts := parseCommand(line)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		d.printHelp()
		return nil
	case "user":
		d.renderer.User(d.flow.User())
		return nil
	case "stage":
		return d.stage(args)
	case "analyze":
		return d.analyze(ctx)
	case "history":
		d.renderer.History(d.flow.Groups())
		return nil
	case "select":
		return d.selectEntry(args)
	case "reset":
		d.flow.Reset()
		fmt.Fprintln(d.out, "Ready for a new scan.")
		return nil
	case "logout":
		return d.handleLogout(ctx)
	case "quit", "exit":
		d.running = false
		return nil
	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

func (d *Dashboard) stage(args []string) error {
	if err := d.flow.Stage(args...); err != nil {
		// The workflow already emitted the user-facing signal.
		return nil
	}
	staged := d.flow.StagedFile()
	fmt.Fprintf(d.out, "Staged %s (preview: %s)\n", staged.Name, staged.PreviewPath)
	return nil
}

func (d *Dashboard) analyze(ctx context.Context) error {
	if err := d.flow.Analyze(ctx); err != nil {
		return nil
	}
	if result := d.flow.Result(); result != nil {
		d.renderer.Result(result)
	}
	return nil
}

func (d *Dashboard) selectEntry(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: select <number>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("usage: select <number>")
	}

	entries := d.flow.Groups().Flatten()
	if n < 1 || n > len(entries) {
		return fmt.Errorf("no history entry %d", n)
	}

	d.flow.SelectHistory(entries[n-1])
	d.renderer.Result(d.flow.Result())
	return nil
}

func (d *Dashboard) handleLogout(ctx context.Context) error {
	if err := d.logout(ctx); err != nil {
		return nil
	}
	d.flow.Logout()
	fmt.Fprintln(d.out, "Logged out successfully!")
	d.running = false
	return nil
}

func (d *Dashboard) printWelcome() {
	user := d.flow.User()
	fmt.Fprintf(d.out, "Welcome, %s.\n", user.Username)
	fmt.Fprintln(d.out, "Type 'help' for available commands, 'quit' to exit.")
	fmt.Fprintln(d.out)
	d.renderer.History(d.flow.Groups())
}

func (d *Dashboard) printPrompt() {
	fmt.Fprintf(d.out, "pneumoscan (%s)> ", d.flow.State())
}

func (d *Dashboard) printHelp() {
	fmt.Fprintln(d.out, "Commands:")
	fmt.Fprintln(d.out, "  stage <file>     stage a chest X-ray scan (png or jpeg)")
	fmt.Fprintln(d.out, "  analyze          submit the staged scan for analysis")
	fmt.Fprintln(d.out, "  history          show your grouped analysis history")
	fmt.Fprintln(d.out, "  select <number>  show a past result from the history listing")
	fmt.Fprintln(d.out, "  reset            clear the staged scan and displayed result")
	fmt.Fprintln(d.out, "  user             show the logged-in account")
	fmt.Fprintln(d.out, "  logout           end the session")
	fmt.Fprintln(d.out, "  quit             leave the dashboard")
}

func parseCommand(line string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, ch := range line {
		switch {
		case ch == '"' || ch == '\'':
			if inQuotes && ch == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else if !inQuotes {
				inQuotes = true
				quoteChar = ch
			} else {
				current.WriteRune(ch)
			}
		case ch == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
