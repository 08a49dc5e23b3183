package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/alterngenius/chatview/internal/models"
	"github.com/alterngenius/chatview/internal/ollama"
	"github.com/alterngenius/chatview/internal/stub"
	"github.com/spf13/cobra"
)

func newStubCmd(a *app) *cobra.Command {
	var (
		addr        string
		engine      string
		wait        bool
		waitTimeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a development chat endpoint (POST /chat) backed by an echo or Ollama engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Stub.Addr = addr
			}
			if cmd.Flags().Changed("engine") {
				a.cfg.Stub.Engine = engine
			}
			ctx := cmd.Context()
			if wait && a.cfg.Stub.Engine == "ollama" {
				oc := ollama.NewClient(a.cfg.Ollama.BaseURL, a.log)
				a.log.Info("waiting for Ollama", "timeout", waitTimeout.String(), "model", a.cfg.Ollama.Model)
				ctxWait, cancel := context.WithTimeout(ctx, waitTimeout)
				err := stub.WaitForOllama(ctxWait, oc, []string{a.cfg.Ollama.Model}, 2*time.Second, a.log)
				cancel()
				if err != nil {
					a.log.Warn("Ollama wait timed out; continuing", "err", err.Error())
				}
			}
			srv, err := a.stubServer(ctx, true)
			if err != nil {
				return err
			}
			return serveHTTP(ctx, a.log, srv)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (env STUB_ADDR, default 127.0.0.1:8000)")
	cmd.Flags().StringVar(&engine, "engine", "", "echo or ollama (env STUB_ENGINE)")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for Ollama and the configured model before serving")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", 180*time.Second, "how long --wait keeps polling")
	return cmd
}

// stubServer prefers Ollama when asked for and reachable, else falls back to echo.
func (a *app) stubServer(ctx context.Context, accessLog bool) (*http.Server, error) {
	var (
		eng   stub.Engine
		mgr   models.Manager
		model string
	)

	if strings.EqualFold(a.cfg.Stub.Engine, "ollama") {
		oc := ollama.NewClient(a.cfg.Ollama.BaseURL, a.log)
		om := models.NewOllamaManager(oc)
		if err := om.Healthy(ctx, a.cfg.Ollama.Model); err == nil {
			a.log.Info("ollama reachable: enabling ollama engine", "model", a.cfg.Ollama.Model)
			eng, mgr, model = stub.NewOllamaEngine(oc, ""), om, a.cfg.Ollama.Model
		} else {
			a.log.Warn("ollama model not available; falling back to echo engine", "model", a.cfg.Ollama.Model, "err", err)
		}
	}
	if eng == nil {
		eng, mgr, model = stub.NewEchoEngine(a.cfg.Stub.MinLatency), models.NewStaticManager("echo"), "echo"
	}

	s := stub.NewServer(a.log, eng, mgr, model)
	var h http.Handler = s.Routes()
	if accessLog {
		h = withMiddleware(a.log, h)
	}
	a.log.Info("chat endpoint stub", "addr", a.cfg.Stub.Addr, "engine", model)
	return newHTTPServer(a.cfg.Stub.Addr, h, 5*time.Minute), nil
}
