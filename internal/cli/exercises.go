package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/claude/repbot/internal/catalog"
	"github.com/claude/repbot/internal/models"
	"github.com/spf13/cobra"
)

func newExercisesCommand(root *rootOptions) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "exercises",
		Short: "List the built-in catalog and a user's custom exercises",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := root.logger(cmd.ErrOrStderr())
			store, err := root.open()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat := catalog.New(store, log)
			out := cmd.OutOrStdout()
			printGroups(out, catalog.ByMuscleGroup(cat.Builtins()))

			if user == "" {
				return nil
			}
			custom, err := cat.ListCustom(cmd.Context(), user)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nPersonalizados de %s:\n", user)
			if len(custom) == 0 {
				fmt.Fprintln(out, "  (ninguno)")
				return nil
			}
			printGroups(out, catalog.ByMuscleGroup(custom))
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "also list this user's custom exercises")
	return cmd
}

func printGroups(w io.Writer, groups []catalog.Group) {
	for _, g := range groups {
		fmt.Fprintln(w, strings.ToUpper(g.Name))
		for _, ex := range g.Exercises {
			fmt.Fprintf(w, "  - %s [%s]\n", ex.Name, typeList(ex))
		}
	}
}

func typeList(ex models.Exercise) string {
	types := ex.AllowedTypes
	if len(types) == 0 {
		types = []models.ExerciseType{ex.ExerciseType}
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
