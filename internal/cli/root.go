// Package cli implements the repbot-chat command: a local chat REPL against
// a SQLite store, plus catalog and history listings.
package cli

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/claude/repbot/internal/localstore"
	"github.com/spf13/cobra"
)

// Version is set by the main package.
var Version = "dev"

type rootOptions struct {
	dbPath   string
	logLevel string
}

// NewRootCommand builds the repbot-chat command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "repbot-chat",
		Short: "Log workouts by chatting with RepBot from the terminal",
		Long: `repbot-chat runs the RepBot conversation locally against a SQLite file.

Start a session:
  repbot-chat chat --user ana

Then type sets the way you would on WhatsApp:
  Sentadilla 100kg 5 reps 3 series RIR 2`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", defaultDBPath(), "path to the SQLite database")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newChatCommand(opts))
	root.AddCommand(newExercisesCommand(opts))
	root.AddCommand(newHistoryCommand(opts))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "repbot.db"
	}
	return filepath.Join(dir, "repbot", "repbot.db")
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *rootOptions) open() (*localstore.Store, error) {
	return localstore.Open(o.dbPath)
}
