// Package cli implements the tripweaver terminal client. Each invocation
// resumes the saved trip from the local snapshot directory, so a plan made
// by one command can be shown, swapped and exported by the next.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tripweaver/tripweaver/internal/planner"
	"github.com/tripweaver/tripweaver/internal/planstate"
	"github.com/tripweaver/tripweaver/internal/trip"
)

// SessionID is the single planning session the CLI works in.
const SessionID = "cli"

// Planner is the planning surface the commands drive.
// *planner.Service implements it.
type Planner interface {
	Validate(ctx context.Context, destination string) trip.DestinationResult
	Generate(ctx context.Context, sessionID string, prefs trip.Preferences) (*planner.GenerateResult, error)
	Swap(ctx context.Context, sessionID string, req planner.SwapRequest) (*planner.SwapResult, error)
	Current(sessionID string) (planstate.State, error)
	SavedTrip(ctx context.Context, sessionID string) (*trip.Snapshot, error)
	Resume(ctx context.Context, sessionID string) (planstate.State, error)
	Dismiss(ctx context.Context, sessionID string) error
	Reset(ctx context.Context, sessionID string) planstate.Commit
}

// RateSource supplies price reference rates for converted exports.
type RateSource interface {
	Rates(ctx context.Context, base string) (map[string]float64, error)
}

// Backend is what one command invocation runs against.
type Backend struct {
	Planner Planner
	Rates   RateSource

	// Close releases connections. Optional.
	Close func()
}

// GlobalFlags are the persistent flags shared by every command.
type GlobalFlags struct {
	Dir     string
	Verbose bool
	JSON    bool
	Images  bool
}

// Options configures the root command.
type Options struct {
	Version string

	// Open builds the backend for one invocation. Defaults to OpenBackend.
	Open func(ctx context.Context, flags GlobalFlags, stderr io.Writer) (*Backend, error)
}

// userError carries the traveller-facing text for a planner failure.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

func failure(op trip.Operation, err error) error {
	return &userError{msg: trip.UserMessage(op, err), err: err}
}

// NewRootCommand builds the command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Open == nil {
		opts.Open = OpenBackend
	}
	flags := &GlobalFlags{}

	root := &cobra.Command{
		Use:     "tripweaver",
		Version: opts.Version,
		Short:   "Plan trips from the terminal",
		Long: `tripweaver generates day-by-day travel itineraries with an AI model.

The latest plan is saved under the snapshot directory and picked up again by
every later command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")
	root.SetHelpFunc(helpFunc)

	root.PersistentFlags().StringVar(&flags.Dir, "dir", defaultDir(), "Snapshot directory")
	root.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Log planner activity to stderr")
	root.PersistentFlags().BoolVar(&flags.JSON, "json", false, "Output in JSON format")
	root.PersistentFlags().BoolVar(&flags.Images, "images", false, "Generate activity images")

	root.AddGroup(
		&cobra.Group{ID: "planning", Title: "Planning:"},
		&cobra.Group{ID: "saved", Title: "Saved Trip:"},
		&cobra.Group{ID: "sharing", Title: "Sharing:"},
	)

	run := func(fn func(ctx context.Context, cmd *cobra.Command, b *Backend, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			b, err := opts.Open(ctx, *flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if b.Close != nil {
				defer b.Close()
			}
			return fn(ctx, cmd, b, args)
		}
	}

	p := &printer{flags: flags}
	for _, cmd := range []*cobra.Command{
		validateCmd(p, run),
		planCmd(p, run),
		showCmd(p, run),
		swapCmd(p, run),
		resumeCmd(p, run),
		dismissCmd(p, run),
		resetCmd(p, run),
		exportCmd(p, run),
	} {
		root.AddCommand(cmd)
	}
	return root
}

// runner adapts a command body to cobra, opening the backend first.
type runner func(fn func(ctx context.Context, cmd *cobra.Command, b *Backend, args []string) error) func(*cobra.Command, []string) error

// Execute runs the CLI and reports failures on stderr.
func Execute(version string) int {
	root := NewRootCommand(Options{Version: version})
	if err := root.Execute(); err != nil {
		printError(root.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tripweaver"
	}
	return filepath.Join(home, ".tripweaver")
}

// resumed loads the saved trip into the session. A missing snapshot reads
// as "no plan yet".
func resumed(ctx context.Context, b *Backend) (planstate.State, error) {
	state, err := b.Planner.Resume(ctx, SessionID)
	if errors.Is(err, trip.ErrNoSnapshot) {
		return planstate.State{}, failure(trip.OpGenerate, trip.ErrNoPlan)
	}
	if err != nil {
		return planstate.State{}, failure(trip.OpGenerate, err)
	}
	return state, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
