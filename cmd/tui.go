package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/riff/internal/shared"
	"github.com/desertthunder/riff/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI opens the current draft in the interactive editor.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	draft, err := r.loadDraft(cmd.String("id"))
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, draft, r.drafts, engine)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithInput(r.input), tea.WithOutput(r.output))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
