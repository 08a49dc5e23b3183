package main

import (
	"context"
	"net/http"
	"time"

	"github.com/alterngenius/chatview/internal/api"
	"github.com/alterngenius/chatview/internal/chat"
	"github.com/alterngenius/chatview/internal/endpoint"
	"github.com/alterngenius/chatview/internal/metrics"
	"github.com/alterngenius/chatview/internal/session"
	"github.com/alterngenius/chatview/internal/ui"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr     string
		withStub bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat page, the JSON API and /metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Chat.Addr = addr
			}
			return a.serve(cmd.Context(), withStub)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address for the chat page (env CHAT_ADDR, default :3000)")
	cmd.Flags().BoolVar(&withStub, "with-stub", false, "also run the development chat endpoint (see `chatview stub`)")
	return cmd
}

// router wires the chat page, the JSON API and metrics around one session store.
func (a *app) router(reg *prometheus.Registry) (http.Handler, error) {
	m := metrics.New(reg)
	client := endpoint.NewClient(a.cfg.Chat.EndpointURL, a.log)
	opts := chat.Options{
		Greeting:    a.cfg.Chat.Greeting,
		ErrorPrefix: a.cfg.Chat.ErrorPrefix,
		Timeout:     a.cfg.Chat.RequestTimeout,
		Observer:    m,
	}
	store := session.NewMemoryStore(func() *chat.View {
		return chat.NewView(a.log, client, opts)
	})

	uih, err := ui.New(a.log, store)
	if err != nil {
		return nil, err
	}

	mux := chi.NewRouter()
	ui.RegisterRoutes(mux, uih)
	api.RegisterRoutes(mux, api.NewHandlers(a.log, store, a.cfg.Chat.EndpointURL))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return withMiddleware(a.log, mux), nil
}

func (a *app) serve(ctx context.Context, withStub bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler, err := a.router(reg)
	if err != nil {
		return err
	}
	a.log.Info("chat view starting", "addr", a.cfg.Chat.Addr, "endpoint", a.cfg.Chat.EndpointURL, "timeout", a.cfg.Chat.RequestTimeout.String())

	// a chat post holds the response open until the endpoint answers
	servers := []*http.Server{newHTTPServer(a.cfg.Chat.Addr, handler, a.cfg.Chat.RequestTimeout+30*time.Second)}
	if withStub {
		stubSrv, err := a.stubServer(ctx, false)
		if err != nil {
			return err
		}
		servers = append(servers, stubSrv)
	}
	return serveHTTP(ctx, a.log, servers...)
}
