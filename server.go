package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alterngenius/chatview/internal/middleware"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func withMiddleware(log *slog.Logger, h http.Handler) http.Handler {
	h = middleware.Recoverer(log)(h)
	h = middleware.RequestID()(h)
	h = middleware.AccessLog(log)(h)
	h = middleware.VersionHeader()(h)
	return h
}

func newHTTPServer(addr string, h http.Handler, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}

// serveHTTP runs every server until ctx ends or one of them fails, then
// shuts all of them down gracefully.
func serveHTTP(ctx context.Context, log *slog.Logger, servers ...*http.Server) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			log.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shCtx); err != nil {
				log.Error("graceful shutdown failed", "addr", srv.Addr, "err", err)
				return err
			}
			log.Info("server stopped", "addr", srv.Addr)
			return nil
		})
	}
	return g.Wait()
}
