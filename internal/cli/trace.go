package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldnet/internal/message"
	"github.com/roach88/fieldnet/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - defaults to the latest run
	Device   int    // optional - filter to one device
	All      bool   // every round instead of the latest per device
}

// TraceRound is one recorded round in trace output.
type TraceRound struct {
	Device    message.DeviceID   `json:"device"`
	Round     uint64             `json:"round"`
	Value     string             `json:"value"`
	Result    string             `json:"result,omitempty"`
	Neighbors []message.DeviceID `json:"neighbors"`
	Published bool               `json:"published"`
	Received  bool               `json:"received"`
	StartedAt time.Time          `json:"started_at"`
	Duration  string             `json:"duration"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunID  string       `json:"run_id"`
	Rounds []TraceRound `json:"rounds"`
}

func (r TraceResult) String() string {
	if len(r.Rounds) == 0 {
		if r.RunID == "" {
			return "No rounds recorded"
		}
		return fmt.Sprintf("No rounds recorded for run: %s", r.RunID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n\n", r.RunID)
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tROUND\tVALUE\tNEIGHBORS\tPUB\tRECV\tDURATION")
	for _, rd := range r.Rounds {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			rd.Device, rd.Round, rd.Value, formatNeighbors(rd.Neighbors),
			yesNo(rd.Published), yesNo(rd.Received), rd.Duration)
	}
	_ = tw.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show recorded rounds",
		Long: `Show the rounds recorded in a trace database.

By default the latest round of every device in the most recent run is
shown. Use --run to pick another run, --device to follow one device and
--all to list every round.

Examples:
  fieldnet trace --db ./fieldnet.db
  fieldnet trace --db ./fieldnet.db --device 3 --all
  fieldnet trace --db ./fieldnet.db --run 0190c1a2-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run to show (default: latest)")
	cmd.Flags().IntVar(&opts.Device, "device", 0, "only show this device")
	cmd.Flags().BoolVar(&opts.All, "all", false, "show every round, not just the latest per device")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.OpenExisting(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	runID := opts.RunID
	if runID == "" {
		runID, err = st.LatestRunID(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return formatter.Success(TraceResult{Rounds: []TraceRound{}})
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to find latest run", err)
		}
		formatter.VerboseLog("Using latest run %s", runID)
	}

	var device *message.DeviceID
	if cmd.Flags().Changed("device") {
		id := message.DeviceID(opts.Device)
		device = &id
	}

	var rounds []store.Round
	if opts.All {
		rounds, err = st.ReadRounds(ctx, store.Filter{RunID: runID, Device: device})
	} else {
		rounds, err = st.LatestRounds(ctx, runID)
		if err == nil && device != nil {
			rounds = filterDevice(rounds, *device)
		}
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read rounds", err)
	}

	result := TraceResult{RunID: runID, Rounds: make([]TraceRound, 0, len(rounds))}
	for _, r := range rounds {
		result.Rounds = append(result.Rounds, TraceRound{
			Device:    r.Device,
			Round:     r.Round,
			Value:     r.Value(),
			Result:    r.Result,
			Neighbors: r.Neighbors,
			Published: r.Published,
			Received:  r.Received,
			StartedAt: r.StartedAt,
			Duration:  r.Duration.String(),
		})
	}

	return formatter.SuccessWithRun(runID, result)
}

func filterDevice(rounds []store.Round, id message.DeviceID) []store.Round {
	out := rounds[:0]
	for _, r := range rounds {
		if r.Device == id {
			out = append(out, r)
		}
	}
	return out
}

func formatNeighbors(ids []message.DeviceID) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
