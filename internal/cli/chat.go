package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/claude/repbot/internal/catalog"
	"github.com/claude/repbot/internal/config"
	"github.com/claude/repbot/internal/conversation"
	"github.com/claude/repbot/internal/extract"
	"github.com/spf13/cobra"
)

const quitCommand = "/salir"

func newChatCommand(root *rootOptions) *cobra.Command {
	cfg := config.Default()
	var user string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long:  "Reads one message per line and prints the bot's reply. Type " + quitCommand + " or send EOF to leave.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return fmt.Errorf("--user is required")
			}
			log := root.logger(cmd.ErrOrStderr())

			store, err := root.open()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if cfg.Extractor.APIKey == "" {
				cfg.Extractor.APIKey = os.Getenv("REPBOT_OPENAI_API_KEY")
			}
			ex, err := extract.New(cfg.Extractor.Backend, extract.OpenAIConfig{
				APIKey:  cfg.Extractor.APIKey,
				BaseURL: cfg.Extractor.BaseURL,
				Model:   cfg.Extractor.Model,
				Timeout: cfg.Extractor.Timeout,
			}, cfg.Extractor.FallbackToRules, log)
			if err != nil {
				return err
			}

			conv := cfg.Conversation
			engine, err := conversation.NewEngine(store, catalog.New(store, log), ex, nil, nil, conversation.Options{
				IntentConfidence:    conv.IntentConfidence,
				AskForNotes:         conv.AskForNotes,
				AutoCreateExercises: conv.AutoCreateExercises,
				UseBuiltinCatalog:   conv.UseBuiltinCatalog,
				Phrases:             conversation.Phrases(conv.Phrases),
			}, log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			in := bufio.NewScanner(cmd.InOrStdin())
			fmt.Fprint(out, "> ")
			for in.Scan() {
				line := strings.TrimSpace(in.Text())
				if line == quitCommand {
					break
				}
				if line != "" {
					reply, err := engine.Handle(cmd.Context(), user, line)
					fmt.Fprintln(out, reply.Text)
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "turn not stored: %v\n", err)
					}
				}
				fmt.Fprint(out, "> ")
			}
			fmt.Fprintln(out)
			return in.Err()
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user identifier for the session")
	cmd.Flags().StringVar(&cfg.Extractor.Backend, "backend", cfg.Extractor.Backend, "extractor backend (rules, openai)")
	cmd.Flags().StringVar(&cfg.Extractor.Model, "model", cfg.Extractor.Model, "model for the openai backend")
	cmd.Flags().StringVar(&cfg.Extractor.BaseURL, "base-url", "", "OpenAI-compatible API base URL")
	cmd.Flags().BoolVar(&cfg.Conversation.AskForNotes, "notes", false, "ask for a comment before saving")
	cmd.Flags().BoolVar(&cfg.Conversation.AutoCreateExercises, "auto-create", false, "create unknown exercises without asking")
	return cmd
}
