package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"avito-watch/internal/config"
	"avito-watch/internal/services/watching"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Config   *config.Config
	Notifier watching.Notifier
	Watcher  *watching.Service
	Server   *http.Server
}

// Run blocks until ctx is done or the status server fails.
func (a *App) Run(ctx context.Context) error {
	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.Watcher.Run(gctx)
	})

	if a.Server != nil {
		group.Go(func() error {
			log.Info().Str("addr", a.Server.Addr).Msg("status server listening")
			if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		group.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return a.Server.Shutdown(shutdownCtx)
		})
	}

	return group.Wait()
}
