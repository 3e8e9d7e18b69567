package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/marksheet/internal/shared"
	"github.com/desertthunder/marksheet/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogPath = "./tmp/marksheet-tui.log"

// TUI launches the interactive status browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, f, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer f.Close()
	r.SetLogger(fileLogger)

	publisher, err := r.openPublisher()
	if err != nil {
		return err
	}

	p := tea.NewProgram(ui.NewModel(ctx, publisher), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
