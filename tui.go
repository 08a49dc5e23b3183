package main

import (
	"os"

	"github.com/alterngenius/chatview/internal/chat"
	"github.com/alterngenius/chatview/internal/endpoint"
	"github.com/alterngenius/chatview/internal/logging"
	"github.com/alterngenius/chatview/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newTUICmd(a *app) *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Chat with the endpoint from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// the terminal belongs to the UI; logs go to a file or nowhere
			log := logging.Discard()
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return errors.Wrap(err, "open log file")
				}
				defer f.Close()
				log = logging.New(a.cfg.Log.Level, a.cfg.Log.JSON, f)
			}

			client := endpoint.NewClient(a.cfg.Chat.EndpointURL, log)
			view := chat.NewView(log, client, chat.Options{
				Greeting:    a.cfg.Chat.Greeting,
				ErrorPrefix: a.cfg.Chat.ErrorPrefix,
				Timeout:     a.cfg.Chat.RequestTimeout,
			})

			p := tea.NewProgram(tui.NewModel(cmd.Context(), view, a.cfg.Chat.EndpointURL), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return errors.Wrap(err, "run tui")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while the TUI runs")
	return cmd
}
