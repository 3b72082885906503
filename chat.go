package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"persona-chat/internal/logging"
	"persona-chat/internal/ui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat (default)",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := setupApp()
	if err != nil {
		return err
	}
	defer a.Close()

	chunks, err := a.store.CountChunks(cmd.Context())
	if err != nil {
		return err
	}
	if chunks == 0 {
		logging.Info("knowledge base is empty, answers will have no context")
	}

	info := ui.ChatInfo{
		LLMModel:   a.cfg.Completion.Model,
		EmbedModel: a.cfg.Embedding.Model,
		TopK:       a.cfg.Retrieval.TopK,
		Chunks:     chunks,
	}

	p := tea.NewProgram(ui.NewChatViewModel(a.newController(), info, 80, 24), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
