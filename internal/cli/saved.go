package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tripweaver/tripweaver/internal/trip"
)

func resumeCmd(p *printer, run runner) *cobra.Command {
	return &cobra.Command{
		Use:     "resume",
		Short:   "Describe the saved trip",
		Args:    cobra.NoArgs,
		GroupID: "saved",
		RunE: run(func(ctx context.Context, cmd *cobra.Command, b *Backend, _ []string) error {
			snap, err := b.Planner.SavedTrip(ctx, SessionID)
			if err != nil {
				return failure(trip.OpGenerate, err)
			}
			state, err := b.Planner.Resume(ctx, SessionID)
			if err != nil {
				return failure(trip.OpGenerate, err)
			}

			out := cmd.OutOrStdout()
			if p.json() {
				return writeJSON(out, map[string]any{
					"savedAt":     snap.SavedAt,
					"preferences": state.Preferences,
					"days":        len(state.Plan.Itinerary),
					"activities":  state.Plan.ActivityCount(),
				})
			}
			printSection(out, "Saved trip")
			printLabelValue(out, "Destination", state.Preferences.Destination)
			printLabelValue(out, "Dates", fmt.Sprintf("%s, %d days", state.Preferences.StartDate, state.Preferences.Duration))
			printLabelValue(out, "Activities", fmt.Sprintf("%d", state.Plan.ActivityCount()))
			printLabelValue(out, "Saved", snap.SavedAt.Local().Format("2006-01-02 15:04"))
			_, _ = fmt.Fprintln(out)
			_, _ = dimColor.Fprintln(out, "Run `tripweaver show` for the full itinerary or `tripweaver dismiss` to discard it.")
			return nil
		}),
	}
}

func dismissCmd(_ *printer, run runner) *cobra.Command {
	return &cobra.Command{
		Use:     "dismiss",
		Short:   "Discard the saved trip",
		Args:    cobra.NoArgs,
		GroupID: "saved",
		RunE: run(func(ctx context.Context, cmd *cobra.Command, b *Backend, _ []string) error {
			if err := b.Planner.Dismiss(ctx, SessionID); err != nil {
				return failure(trip.OpGenerate, err)
			}
			printSuccess(cmd.OutOrStdout(), "Saved trip discarded")
			return nil
		}),
	}
}

func resetCmd(_ *printer, run runner) *cobra.Command {
	return &cobra.Command{
		Use:     "reset",
		Short:   "Start over, removing the current and saved trip",
		Args:    cobra.NoArgs,
		GroupID: "saved",
		RunE: run(func(ctx context.Context, cmd *cobra.Command, b *Backend, _ []string) error {
			commit := b.Planner.Reset(ctx, SessionID)
			if commit.PersistErr != nil {
				printWarning(cmd.OutOrStdout(), "The saved trip could not be removed.")
				return nil
			}
			printSuccess(cmd.OutOrStdout(), "Trip reset")
			return nil
		}),
	}
}
