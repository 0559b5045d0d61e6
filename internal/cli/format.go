package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tripweaver/tripweaver/internal/trip"
)

var (
	// fatih/color disables these when output is not a TTY
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	dimColor     = color.New(color.FgHiBlack)

	groupTitleColor   = color.New(color.FgCyan, color.Bold)
	sectionTitleColor = color.New(color.FgBlue, color.Bold)
)

// printer writes human output, or JSON when --json is set.
type printer struct {
	flags *GlobalFlags
}

func (p *printer) json() bool { return p.flags.JSON }

func printSuccess(w io.Writer, msg string) {
	_, _ = successColor.Fprintf(w, "✓ %s\n", msg)
}

func printWarning(w io.Writer, msg string) {
	_, _ = warningColor.Fprintf(w, "⚠ %s\n", msg)
}

func printError(w io.Writer, err error) {
	msg := err.Error()
	var uerr *userError
	if !errors.As(err, &uerr) {
		msg = "Error: " + msg
	}
	_, _ = errorColor.Fprintf(w, "✗ %s\n", msg)
}

func printSection(w io.Writer, title string) {
	_, _ = fmt.Fprintln(w)
	_, _ = headerColor.Fprintf(w, "▸ %s\n", title)
}

func printLabelValue(w io.Writer, label, value string) {
	_, _ = labelColor.Fprintf(w, "  %s: ", label)
	_, _ = fmt.Fprintln(w, value)
}

// printPlan renders the itinerary with activity IDs for later swaps.
func printPlan(w io.Writer, plan *trip.Plan, prefs trip.Preferences) {
	printSection(w, fmt.Sprintf("%s, %d days from %s", prefs.Destination, prefs.Duration, prefs.StartDate))
	if plan.BestTimeToVisit != "" {
		printLabelValue(w, "Best time to visit", plan.BestTimeToVisit)
	}
	if plan.LocalCurrencyCode != "" {
		printLabelValue(w, "Local currency", plan.LocalCurrencyCode)
	}

	for _, day := range plan.Itinerary {
		printSection(w, fmt.Sprintf("Day %d: %s", day.Day, day.Title))
		for _, a := range day.Activities {
			printActivity(w, a)
		}
	}

	if len(plan.HotelSuggestions) > 0 {
		printSection(w, "Hotels")
		for _, h := range plan.HotelSuggestions {
			_, _ = fmt.Fprintf(w, "  Day %d  %s (%s)\n", h.Day, h.Name, h.PriceRange)
		}
	}
}

func printActivity(w io.Writer, a trip.Activity) {
	_, _ = labelColor.Fprintf(w, "  %-10s", a.Time)
	_, _ = fmt.Fprintf(w, " %s", a.Description)
	if a.EstimatedCost != "" {
		_, _ = fmt.Fprintf(w, " [%s]", a.EstimatedCost)
	}
	_, _ = fmt.Fprintln(w)

	var detail []string
	if a.Location != "" {
		detail = append(detail, a.Location)
	}
	if a.Transport != "" {
		detail = append(detail, "by "+a.Transport)
	}
	if a.ID != "" {
		detail = append(detail, "id "+a.ID)
	}
	if len(detail) > 0 {
		_, _ = dimColor.Fprintf(w, "             %s\n", strings.Join(detail, " · "))
	}
}

// helpFunc colors group titles in help output.
func helpFunc(cmd *cobra.Command, _ []string) {
	var help strings.Builder

	if cmd.Long != "" {
		help.WriteString(cmd.Long)
		help.WriteString("\n\n")
	} else if cmd.Short != "" {
		help.WriteString(cmd.Short)
		help.WriteString("\n\n")
	}

	help.WriteString(sectionTitleColor.Sprint("Usage:"))
	help.WriteString("\n")
	fmt.Fprintf(&help, "  %s\n\n", cmd.UseLine())

	for _, group := range cmd.Groups() {
		help.WriteString(groupTitleColor.Sprint(group.Title))
		help.WriteString("\n")
		for _, c := range cmd.Commands() {
			if c.GroupID == group.ID && !c.Hidden {
				fmt.Fprintf(&help, "  %-9s %s\n", c.Name(), c.Short)
			}
		}
		help.WriteString("\n")
	}

	if cmd.HasAvailableLocalFlags() || cmd.HasAvailableInheritedFlags() {
		help.WriteString(sectionTitleColor.Sprint("Flags:"))
		help.WriteString("\n")
		help.WriteString(cmd.LocalFlags().FlagUsages())
		help.WriteString(cmd.InheritedFlags().FlagUsages())
		help.WriteString("\n")
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(&help, "Use \"%s [command] --help\" for more information about a command.\n", cmd.CommandPath())
	}
	fmt.Fprint(cmd.OutOrStdout(), help.String())
}
