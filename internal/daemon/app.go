// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anirelay/anirelay/internal/api"
	"github.com/anirelay/anirelay/internal/config"
	"github.com/anirelay/anirelay/internal/log"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultShutdownTimeout bounds graceful shutdown. Streams still running
// after it are cut.
const DefaultShutdownTimeout = 15 * time.Second

// App owns the long-lived runtime lifecycle: the HTTP server, the config
// watcher and reload wiring.
type App struct {
	logger          zerolog.Logger
	runtime         *Runtime
	holder          *config.Holder
	server          *http.Server
	shutdownTimeout time.Duration
	reloadSignal    os.Signal
}

// NewApp creates an App serving rt on holder's listen address.
func NewApp(holder *config.Holder, rt *Runtime) (*App, error) {
	if rt == nil || rt.Handler == nil {
		return nil, ErrMissingRuntime
	}
	return &App{
		logger:          log.WithComponent("daemon"),
		runtime:         rt,
		holder:          holder,
		server:          api.NewHTTPServer(holder.Get().ListenAddr, rt.Handler),
		shutdownTimeout: DefaultShutdownTimeout,
		reloadSignal:    syscall.SIGHUP,
	}, nil
}

// Run listens on the configured address and blocks until ctx is cancelled
// or the server fails.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the App on ln. The listener is closed on return.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	if err := a.runtime.Health.StartupCheck(ctx); err != nil {
		_ = ln.Close()
		_ = a.runtime.Close(context.Background())
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	// Best-effort: a missing watcher only disables hot reload.
	if err := a.holder.StartWatcher(ctx); err != nil {
		a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
	}

	updates := make(chan config.AppConfig, 1)
	a.holder.RegisterListener(updates)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case cfg := <-updates:
				a.applyReload(cfg)
			}
		}
	})

	if a.reloadSignal != nil {
		g.Go(func() error {
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, a.reloadSignal)
			defer signal.Stop(hup)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hup:
					a.logger.Info().
						Str(log.FieldEvent, "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")
					if err := a.holder.Reload(ctx); err != nil {
						a.logger.Warn().Err(err).Str(log.FieldEvent, "config.reload_failed").Msg("config reload failed")
					}
				}
			}
		})
	}

	g.Go(func() error {
		a.logger.Info().
			Str(log.FieldEvent, "server.listening").
			Str("addr", ln.Addr().String()).
			Msg("HTTP server listening")
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return a.shutdown()
	})

	return g.Wait()
}

// applyReload applies the settings that can change without a restart.
func (a *App) applyReload(cfg config.AppConfig) {
	if err := log.SetLevel(cfg.LogLevel); err != nil {
		a.logger.Warn().Err(err).Str("level", cfg.LogLevel).Msg("ignoring invalid log level")
		return
	}
	a.logger.Info().Str("level", cfg.LogLevel).Msg("log level applied")
}

func (a *App) shutdown() error {
	a.logger.Info().Str(log.FieldEvent, "server.shutdown").Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.runtime.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	a.logger.Info().Msg("daemon stopped")
	return errors.Join(errs...)
}
