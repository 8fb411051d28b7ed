package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lbx/internal/formatter"
	"github.com/desertthunder/lbx/internal/shared"
	"github.com/desertthunder/lbx/internal/tasks"
	"github.com/desertthunder/lbx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal catalog browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	svc, err := r.open()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, svc, r.engine, tasks.BulkExportOpts{Format: format, Unshelved: true})
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
