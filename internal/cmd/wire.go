package cmd

import (
	"fmt"

	"github.com/adforge/adforge/internal/backend"
	"github.com/adforge/adforge/internal/config"
	"github.com/adforge/adforge/internal/coordinator"
	"github.com/adforge/adforge/internal/errors"
	"github.com/adforge/adforge/internal/logging"
	"github.com/adforge/adforge/internal/realtime"
	"github.com/adforge/adforge/internal/sessionlock"
	"github.com/adforge/adforge/internal/store"
	"github.com/adforge/adforge/internal/tui"
)

// acquireStateLock claims the state directory so two adforge processes
// cannot clobber the same saved session.
func acquireStateLock(cfg *config.Config) (*sessionlock.Guard, error) {
	guard, err := sessionlock.Acquire(cfg.Paths.ResolveStateDir())
	if err != nil {
		if errors.Is(err, sessionlock.ErrLocked) {
			return nil, fmt.Errorf("%w. Quit that process first, or delete the lock file if it crashed", err)
		}
		return nil, err
	}
	return guard, nil
}

// buildCoordinator assembles a coordinator and its collaborators from
// the loaded configuration.
func buildCoordinator(cfg *config.Config) (*coordinator.Coordinator, *logging.Logger, error) {
	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		l, err := logging.NewLoggerWithRotation(cfg.Paths.ResolveStateDir(), cfg.Logging.Level, logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger = l
	}

	client := backend.NewHTTPClient(cfg.Backend.URL, cfg.Backend.Timeout(), logger)

	transport := &realtime.WebsocketTransport{HandshakeTimeout: cfg.Realtime.DialTimeout()}
	wsBase := cfg.Realtime.ResolveURL(cfg.Backend.URL)
	factory := func(sessionID string) coordinator.Channel {
		return realtime.NewChannel(realtime.ChannelConfig{
			BaseURL:         wsBase,
			SessionID:       sessionID,
			ReconnectBudget: cfg.Realtime.ReconnectBudget,
			Transport:       transport,
			Logger:          logger,
		})
	}

	coord := coordinator.New(coordinator.Config{
		Client:         client,
		ChannelFactory: factory,
		Snapshot:       store.NewSnapshot(cfg.Paths.ResolveStateDir()),
		PollInterval:   cfg.Poll.Interval(),
		Logger:         logger,
	})
	return coord, logger, nil
}

// runTUI launches the terminal UI over a prepared coordinator and tears
// everything down when it exits.
func runTUI(coord *coordinator.Coordinator, logger *logging.Logger, cfg *config.Config) error {
	defer func() {
		coord.Close()
		_ = logger.Close()
	}()

	app := tui.New(coord, cfg.TUI)
	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
