package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alterngenius/chatview/internal/buildinfo"
	"github.com/alterngenius/chatview/internal/config"
	"github.com/alterngenius/chatview/internal/logging"
	"github.com/spf13/cobra"
)

type app struct {
	cfg *config.Config
	log *slog.Logger

	logOut io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(&app{logOut: os.Stdout}).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "chatview",
		Short:        "AlternGenius chat view: a web and terminal chat front end for a single HTTP endpoint",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("env-file", ".env", "optional dotenv file read before the environment")
	pf.String("endpoint", "", "chat endpoint URL (env CHAT_ENDPOINT_URL, default "+config.DefaultEndpointURL+")")
	pf.Duration("timeout", 0, "per-request timeout for the chat endpoint (env CHAT_REQUEST_TIMEOUT)")
	pf.String("log-level", "", "log level: debug|info|warn|error (env LOG_LEVEL)")
	pf.Bool("log-json", false, "log as JSON (env LOG_JSON)")

	root.AddCommand(
		newServeCmd(a),
		newTUICmd(a),
		newStubCmd(a),
		newVersionCmd(),
	)
	return root
}

// init loads env configuration and lets explicitly set flags override it.
func (a *app) init(cmd *cobra.Command) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile, cmd.Flags().Changed("env-file"))
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Chat.EndpointURL, _ = flags.GetString("endpoint")
	}
	if flags.Changed("timeout") {
		cfg.Chat.RequestTimeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") {
		cfg.Log.JSON, _ = flags.GetBool("log-json")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logging.New(cfg.Log.Level, cfg.Log.JSON, a.logOut)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chatview %s (commit %s, built %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuiltAt)
		},
	}
}
