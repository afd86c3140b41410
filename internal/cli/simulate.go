package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldnet/internal/mailbox"
	"github.com/roach88/fieldnet/internal/message"
	"github.com/roach88/fieldnet/internal/platform"
	"github.com/roach88/fieldnet/internal/sim"
	"github.com/roach88/fieldnet/internal/store"
	"github.com/roach88/fieldnet/internal/topology"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Devices     int
	Sources     []int
	Rounds      int
	Policy      string
	IncludeSelf bool
	Database    string

	// RunIDGenerator overrides run identity (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDGenerator platform.RunIDGenerator
}

// DeviceValue is the final value of one simulated device.
type DeviceValue struct {
	Device message.DeviceID `json:"device"`
	Value  string           `json:"value"`
}

// SimulateResult is the output of the simulate command.
type SimulateResult struct {
	RunID   string        `json:"run_id"`
	Devices int           `json:"devices"`
	Rounds  int           `json:"rounds"`
	Policy  string        `json:"policy"`
	Values  []DeviceValue `json:"values"`
}

func (r SimulateResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d device(s), %d round(s), %s\n", r.RunID, r.Devices, r.Rounds, r.Policy)
	for _, v := range r.Values {
		fmt.Fprintf(&b, "  device %d → %s\n", v.Device, v.Value)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	return newSimulateCommand(&SimulateOptions{RootOptions: rootOpts})
}

func newSimulateCommand(opts *SimulateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate a line of devices in-process",
		Long: `Simulate a line of devices 1..N computing the gradient.

Every device runs its own platform attached to an in-process broker; all
devices are stepped in lock-step, in device order, for the given number of
rounds. The final distance of every device to the nearest source is printed.

Example:
  fieldnet simulate --devices 5 --source 3
  fieldnet simulate --devices 5 --source 1 --source 5 --rounds 30 --policy most-recent
  fieldnet simulate --devices 8 --source 1 --db ./fieldnet.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Devices, "devices", 5, "number of devices in the line")
	cmd.Flags().IntSliceVar(&opts.Sources, "source", nil, "source device id (repeatable)")
	cmd.Flags().IntVar(&opts.Rounds, "rounds", sim.DefaultRounds, "rounds per device")
	cmd.Flags().StringVar(&opts.Policy, "policy", mailbox.MemoryLess.String(), "mailbox policy (memoryless|most-recent|least-recent)")
	cmd.Flags().BoolVar(&opts.IncludeSelf, "include-self", false, "every device also subscribes to its own exports")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record rounds to this SQLite database")

	return cmd
}

func runSimulate(opts *SimulateOptions, cmd *cobra.Command) error {
	setupLogging(opts.Verbose, cmd.ErrOrStderr())

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	topo, err := topology.Line(opts.Devices)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "invalid --devices", err)
	}
	policy, err := mailbox.ParsePolicy(opts.Policy)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "invalid --policy", err)
	}
	if opts.Rounds <= 0 {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric,
			fmt.Sprintf("invalid --rounds %d: must be positive", opts.Rounds), nil)
	}

	cfg := sim.Config{
		Topology:    topo,
		Rounds:      opts.Rounds,
		Policy:      policy,
		IncludeSelf: opts.IncludeSelf,
	}
	for _, s := range opts.Sources {
		if s < 1 || s > opts.Devices {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric,
				fmt.Sprintf("invalid --source %d: devices are numbered 1..%d", s, opts.Devices), nil)
		}
		cfg.Sources = append(cfg.Sources, message.DeviceID(s))
	}
	if opts.RunIDGenerator != nil {
		cfg.RunID = opts.RunIDGenerator.Generate()
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		cfg.Hooks = append(cfg.Hooks, st.Hook())
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	formatter.VerboseLog("Simulating %d device(s), sources %v, %d round(s), %s", opts.Devices, cfg.Sources, cfg.Rounds, policy)
	res, err := sim.Run(ctx, cfg)
	if err != nil {
		code := ErrCodeGeneric
		if platform.IsEvaluatorError(err) {
			code = ErrCodeEvaluator
		}
		return formatter.Fail(ExitFailure, code, "simulation failed", err)
	}

	out := SimulateResult{
		RunID:   res.RunID,
		Devices: len(res.Values),
		Rounds:  res.Rounds,
		Policy:  policy.String(),
		Values:  make([]DeviceValue, 0, len(res.Values)),
	}
	for _, id := range res.Devices() {
		out.Values = append(out.Values, DeviceValue{Device: id, Value: formatDistance(res.Values[id])})
	}

	return formatter.SuccessWithRun(out.RunID, out)
}
