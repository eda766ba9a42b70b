// Package app wires configuration, logging and the engine together for the
// command layer and runs the interactive ui.
package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"toomuchleft/internal/config"
	"toomuchleft/internal/logging"
	"toomuchleft/internal/services"
	"toomuchleft/internal/state"
	"toomuchleft/internal/ui"
)

type Options struct {
	Config config.Config
	// ConfigPath receives preference changes made in the ui; empty skips saving.
	ConfigPath string
	Request    services.ScanRequest
	Logger     *zap.Logger
	Status     string
}

// Settings derives engine settings from cfg. The scan roots are protected
// so a scan root can never be deleted as a result of its own scan.
func Settings(cfg config.Config, roots ...string) services.Settings {
	protected := append([]string{}, cfg.Protected...)
	for _, root := range roots {
		if root != "" {
			protected = append(protected, root)
		}
	}
	return services.Settings{
		Workers:   cfg.Workers,
		SafeMode:  cfg.SafeMode,
		Protected: protected,
	}
}

// LoggingOptions maps cfg onto logger options. An interactive session owns
// the terminal, so console output is redirected to the log file.
func LoggingOptions(cfg config.Config, interactive bool) logging.Options {
	output := cfg.Log.Output
	if interactive && output != logging.OutputFile {
		output = logging.OutputFile
	}
	return logging.Options{
		Level:  cfg.Log.Level,
		Output: output,
		Dir:    cfg.Log.Dir,
	}
}

func Run(opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	initialState := state.NewState(opts.Config)
	engine := services.NewEngine(logger, Settings(opts.Config, opts.Request.RootPath))

	model := ui.NewModel(initialState, engine, opts.Request).WithStatus(opts.Status)
	program := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	provider, ok := finalModel.(ui.ConfigProvider)
	if !ok || opts.ConfigPath == "" {
		return nil
	}
	snapshot := provider.ConfigSnapshot(opts.Config)
	if snapshot.SortMode == opts.Config.SortMode {
		return nil
	}
	if err := config.Save(opts.ConfigPath, snapshot); err != nil {
		logger.Warn("saving preferences failed", zap.String("path", opts.ConfigPath), zap.Error(err))
		return err
	}
	return nil
}
