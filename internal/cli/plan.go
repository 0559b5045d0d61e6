package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/tripweaver/tripweaver/internal/planner"
	"github.com/tripweaver/tripweaver/internal/trip"
)

func validateCmd(p *printer, run runner) *cobra.Command {
	var (
		watch bool
		quiet time.Duration
	)
	cmd := &cobra.Command{
		Use:   "validate [destination]",
		Short: "Check a destination name",
		Long: `Check a destination name.

With --watch, destination text is read line by line from stdin as it is
typed. A check starts once the text has been stable for the quiet period, and
results for text that has since changed are dropped.`,
		Args:    cobra.ArbitraryArgs,
		GroupID: "planning",
		RunE: run(func(ctx context.Context, cmd *cobra.Command, b *Backend, args []string) error {
			if watch {
				return watchDestinations(ctx, cmd, p, b, quiet)
			}
			if len(args) == 0 {
				return errors.New("a destination is required unless --watch is set")
			}
			input := strings.TrimSpace(strings.Join(args, " "))
			res := b.Planner.Validate(ctx, input)
			if p.json() {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			if !res.IsValid {
				return failure(trip.OpValidate, trip.ErrInvalidDestination)
			}
			if res.CorrectedName != "" && !strings.EqualFold(res.CorrectedName, input) {
				printSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s (did you mean %s?)", input, res.CorrectedName))
				return nil
			}
			printSuccess(cmd.OutOrStdout(), input)
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Read destination text from stdin and validate as it changes")
	cmd.Flags().DurationVar(&quiet, "quiet-period", planner.DefaultQuietPeriod, "How long text must be stable before it is checked")
	return cmd
}

// watchDestinations feeds stdin lines to a debounced validator and prints
// every state change. At end of input it waits for the last check.
func watchDestinations(ctx context.Context, cmd *cobra.Command, p *printer, b *Backend, quiet time.Duration) error {
	out := cmd.OutOrStdout()

	var (
		mu      sync.Mutex
		last    planner.ValidationStatus
		settled = make(chan struct{}, 1)
	)
	v := planner.NewDestinationValidator(planner.ValidatorConfig{
		Checker:     b.Planner,
		QuietPeriod: quiet,
		OnChange: func(s planner.ValidationStatus) {
			mu.Lock()
			last = s
			if p.json() {
				_ = writeJSON(out, s)
			} else {
				printValidation(out, s)
			}
			mu.Unlock()
			if s.State != planner.StateLoading {
				select {
				case settled <- struct{}{}:
				default:
				}
			}
		},
	})
	defer v.Stop()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		v.Input(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading destinations: %w", err)
	}

	pending := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return last.State == planner.StateLoading
	}
	for pending() {
		select {
		case <-settled:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func printValidation(w io.Writer, s planner.ValidationStatus) {
	input := strings.TrimSpace(s.Input)
	switch s.State {
	case planner.StateLoading:
		_, _ = dimColor.Fprintf(w, "… checking %s\n", input)
	case planner.StateValid:
		if s.CorrectedName != "" {
			printSuccess(w, fmt.Sprintf("%s (did you mean %s?)", input, s.CorrectedName))
			return
		}
		printSuccess(w, input)
	case planner.StateInvalid:
		printWarning(w, fmt.Sprintf("%s: %s", input, trip.MsgInvalidDestination))
	}
}

func planCmd(p *printer, run runner) *cobra.Command {
	var (
		prefs     trip.Preferences
		companion string
		budget    string
		pace      string
		interests []string
	)

	cmd := &cobra.Command{
		Use:   "plan <destination>",
		Short: "Generate a new itinerary",
		Long: `Generate a new itinerary and save it, replacing any saved trip.

Interests: ` + strings.Join(lo.Map(trip.ActivityTypes, func(a trip.ActivityType, _ int) string { return string(a) }), ", "),
		Args:    cobra.MinimumNArgs(1),
		GroupID: "planning",
		RunE: run(func(ctx context.Context, cmd *cobra.Command, b *Backend, args []string) error {
			prefs.Destination = strings.TrimSpace(strings.Join(args, " "))
			prefs.Companion = trip.Companion(matchOption(companion, trip.Companions))
			prefs.Budget = trip.Budget(matchOption(budget, trip.Budgets))
			prefs.Pace = trip.Pace(matchOption(pace, trip.Paces))
			prefs.Activities = lo.Map(interests, func(s string, _ int) trip.ActivityType {
				return trip.ActivityType(matchOption(s, trip.ActivityTypes))
			})

			result, err := b.Planner.Generate(ctx, SessionID, prefs)
			if err != nil {
				return failure(trip.OpGenerate, err)
			}

			out := cmd.OutOrStdout()
			if p.json() {
				return writeJSON(out, result.State)
			}
			if result.Destination != "" && result.Destination != prefs.Destination {
				printWarning(out, "Planning for "+result.Destination)
			}
			printPlan(out, result.State.Plan, result.State.Preferences)
			_, _ = fmt.Fprintln(out)
			if result.Images.Requested > 0 {
				printLabelValue(out, "Images", fmt.Sprintf("%d of %d", result.Images.Succeeded, result.Images.Requested))
			}
			if result.Commit.PersistErr != nil {
				printWarning(out, "The trip could not be saved. Later commands will not see it.")
				return nil
			}
			printSuccess(out, "Trip saved")
			return nil
		}),
	}

	f := cmd.Flags()
	f.StringVar(&prefs.StartDate, "start", time.Now().AddDate(0, 0, 14).Format(trip.DateLayout), "Start date (YYYY-MM-DD)")
	f.IntVarP(&prefs.Duration, "days", "d", 3, "Trip length in days")
	f.StringVar(&companion, "with", string(trip.CompanionSolo), "Who is travelling: solo, couple, family, friends")
	f.StringVar(&budget, "budget", string(trip.BudgetMidRange), "Budget: budget-friendly, mid-range, luxury")
	f.StringVar(&pace, "pace", string(trip.PaceBalanced), "Pace: relaxed, balanced, action-packed")
	f.StringSliceVarP(&interests, "interest", "i", []string{string(trip.ActivityCity)}, "Interest tag, repeatable")
	return cmd
}

// matchOption maps case-insensitive input, or a unique prefix of it, onto
// one of the options. Unmatched input is returned as given so preference
// validation can reject it.
func matchOption[T ~string](input string, options []T) string {
	input = strings.TrimSpace(input)
	var prefixed []T
	for _, o := range options {
		if strings.EqualFold(string(o), input) {
			return string(o)
		}
		if input != "" && strings.HasPrefix(strings.ToLower(string(o)), strings.ToLower(input)) {
			prefixed = append(prefixed, o)
		}
	}
	if len(prefixed) == 1 {
		return string(prefixed[0])
	}
	return input
}

func showCmd(p *printer, run runner) *cobra.Command {
	return &cobra.Command{
		Use:     "show",
		Short:   "Print the saved itinerary",
		Args:    cobra.NoArgs,
		GroupID: "planning",
		RunE: run(func(ctx context.Context, cmd *cobra.Command, b *Backend, _ []string) error {
			state, err := resumed(ctx, b)
			if err != nil {
				return err
			}
			if p.json() {
				return writeJSON(cmd.OutOrStdout(), state)
			}
			printPlan(cmd.OutOrStdout(), state.Plan, state.Preferences)
			return nil
		}),
	}
}

func swapCmd(p *printer, run runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap <activity-id | day.slot>",
		Short: "Replace one activity with a new suggestion",
		Long: `Replace one activity with a new suggestion.

Address the activity by the id printed with the itinerary, or by position as
day.slot counting from 1 (2.3 is the third activity of day two).`,
		Args:    cobra.ExactArgs(1),
		GroupID: "planning",
		RunE: run(func(ctx context.Context, cmd *cobra.Command, b *Backend, args []string) error {
			req, err := parseTarget(args[0])
			if err != nil {
				return err
			}
			if _, err := resumed(ctx, b); err != nil {
				return err
			}

			result, err := b.Planner.Swap(ctx, SessionID, req)
			if err != nil {
				return failure(trip.OpSwap, err)
			}

			out := cmd.OutOrStdout()
			if p.json() {
				return writeJSON(out, result.Activity)
			}
			printActivity(out, result.Activity)
			if result.Commit.PersistErr != nil {
				printWarning(out, "The change could not be saved.")
				return nil
			}
			printSuccess(out, "Activity swapped")
			return nil
		}),
	}
	return cmd
}

// parseTarget reads "day.slot" (1-based) or an activity ID.
func parseTarget(arg string) (planner.SwapRequest, error) {
	arg = strings.TrimSpace(arg)
	dayPart, slotPart, ok := strings.Cut(arg, ".")
	if !ok {
		return planner.SwapRequest{ActivityID: arg}, nil
	}
	day, dayErr := strconv.Atoi(dayPart)
	slot, slotErr := strconv.Atoi(slotPart)
	if dayErr != nil || slotErr != nil {
		return planner.SwapRequest{ActivityID: arg}, nil
	}
	if day < 1 || slot < 1 {
		return planner.SwapRequest{}, fmt.Errorf("invalid position %q: day and slot count from 1", arg)
	}
	return planner.SwapRequest{DayIndex: day - 1, ActivityIndex: slot - 1}, nil
}
