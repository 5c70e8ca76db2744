package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/claude/repbot/internal/models"
	"github.com/claude/repbot/internal/storage"
	"github.com/spf13/cobra"
)

func newHistoryCommand(root *rootOptions) *cobra.Command {
	var (
		user     string
		exercise string
		days     int
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a user's logged sets, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" {
				return fmt.Errorf("--user is required")
			}
			store, err := root.open()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			f := storage.RecordFilter{Exercise: exercise, Limit: limit}
			if days > 0 {
				f.Start = time.Now().AddDate(0, 0, -days)
			}
			records, err := store.QueryWorkoutRecords(cmd.Context(), user, f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "Sin registros.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FECHA\tEJERCICIO\tSERIE\tDETALLE\tNOTAS")
			for _, r := range records {
				notes := ""
				if r.Notes != nil {
					notes = *r.Notes
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04"), r.ExerciseName, r.SetNumber, describe(r), notes)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user identifier")
	cmd.Flags().StringVar(&exercise, "exercise", "", "filter by exercise name (partial match)")
	cmd.Flags().IntVar(&days, "days", 30, "only sets from the last N days (0 for all)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum sets to show")
	return cmd
}

// describe renders the measured fields of one set.
func describe(r models.WorkoutRecordRow) string {
	var parts []string
	switch {
	case r.WeightKg != nil && r.Reps != nil:
		parts = append(parts, num(*r.WeightKg)+"kg x "+num(*r.Reps))
	case r.Reps != nil:
		parts = append(parts, num(*r.Reps)+" reps")
	}
	if r.RIR != nil {
		parts = append(parts, "RIR "+num(*r.RIR))
	}
	if r.DistanceKm != nil {
		parts = append(parts, num(*r.DistanceKm)+"km")
	}
	if r.DurationSeconds != nil {
		parts = append(parts, duration(*r.DurationSeconds))
	}
	if r.Calories != nil {
		parts = append(parts, num(*r.Calories)+"kcal")
	}
	return strings.Join(parts, " ")
}

func num(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func duration(seconds float64) string {
	if seconds < 60 {
		return num(seconds) + "s"
	}
	return (time.Duration(seconds) * time.Second).String()
}
