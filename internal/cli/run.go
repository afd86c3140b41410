package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldnet/internal/config"
	"github.com/roach88/fieldnet/internal/export"
	"github.com/roach88/fieldnet/internal/gradient"
	"github.com/roach88/fieldnet/internal/mailbox"
	"github.com/roach88/fieldnet/internal/message"
	"github.com/roach88/fieldnet/internal/network"
	"github.com/roach88/fieldnet/internal/platform"
	"github.com/roach88/fieldnet/internal/store"
)

// Dialer opens the network described by cfg.
type Dialer func(ctx context.Context, cfg *config.Config) (network.Network, error)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath string
	Device     int
	Policy     string
	Interval   time.Duration
	Database   string
	Rounds     int // Stop after this many rounds; 0 runs until interrupted

	// Dialer overrides network construction (for testing).
	// If nil, defaults to DialNetwork.
	Dialer Dialer

	// RunIDGenerator overrides run identity (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDGenerator platform.RunIDGenerator
}

// RunSummary is printed when a device stops.
type RunSummary struct {
	RunID  string           `json:"run_id"`
	Device message.DeviceID `json:"device"`
	Rounds uint64           `json:"rounds"`
	Value  string           `json:"value"`
	Result string           `json:"result,omitempty"`
}

func (s RunSummary) String() string {
	return fmt.Sprintf("device %d stopped after %d round(s): value %s", s.Device, s.Rounds, s.Value)
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one device",
		Long: `Run a single device with the gradient program.

The device is described by a YAML or CUE configuration file. It connects to
its network (an MQTT broker, or an in-process broker for dry runs),
subscribes to its neighbors and executes rounds until interrupted.

Example:
  fieldnet run --config device.yaml
  fieldnet run --config device.cue --device 4 --policy most-recent
  fieldnet run --config device.yaml --db ./fieldnet.db --rounds 50`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevice(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to device configuration (.yaml, .yml or .cue) (required)")
	_ = cmd.MarkFlagRequired("config")
	cmd.Flags().IntVar(&opts.Device, "device", 0, "override the configured device id")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "override the mailbox policy (memoryless|most-recent|least-recent)")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "override the round interval")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record rounds to this SQLite database (overrides trace.db)")
	cmd.Flags().IntVar(&opts.Rounds, "rounds", 0, "stop after this many rounds (0 = until interrupted)")

	return cmd
}

func runDevice(opts *RunOptions, cmd *cobra.Command) error {
	setupLogging(opts.Verbose, cmd.ErrOrStderr())

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	if err := applyRunOverrides(cmd, opts, cfg); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid flags", err)
	}

	local, err := cfg.LocalSensors()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid sensors", err)
	}
	nbrSensors, err := cfg.NeighborSensors()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid sensors", err)
	}
	mb, err := mailbox.New(cfg.Policy)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid policy", err)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	dial := opts.Dialer
	if dial == nil {
		dial = DialNetwork
	}
	slog.Info("connecting", "device", cfg.Device, "network", cfg.Network.Kind, "broker", cfg.Network.Broker)
	nw, err := dial(ctx, cfg)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeTransport, "failed to connect", err)
	}

	var last platform.Report
	platformOpts := []platform.Option{
		platform.WithInterval(cfg.Interval.Std()),
		platform.WithLocalSensors(local),
		platform.WithNeighborSensors(nbrSensors),
		platform.WithNeighbors(cfg.Neighbors...),
	}
	if opts.RunIDGenerator != nil {
		platformOpts = append(platformOpts, platform.WithRunIDGenerator(opts.RunIDGenerator))
	}

	if dbPath := cfg.Trace.DB; dbPath != "" {
		slog.Info("opening database", "path", dbPath)
		st, err := store.Open(dbPath)
		if err != nil {
			_ = nw.Close()
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		platformOpts = append(platformOpts, platform.WithHook(st.Hook()))
	}

	// Registered last: hooks run in order, and every other hook must see
	// the final round before the context is cancelled.
	platformOpts = append(platformOpts, platform.WithHook(func(_ context.Context, r platform.Report) error {
		last = r
		if opts.Rounds > 0 && r.Round+1 >= uint64(opts.Rounds) {
			cancel()
		}
		return nil
	}))

	p := platform.New(cfg.Device, mb, nw, gradient.Evaluate, platformOpts...)
	defer func() {
		if closeErr := p.Close(); closeErr != nil && !errors.Is(closeErr, network.ErrClosed) {
			slog.Error("error closing network", "error", closeErr)
		}
	}()

	slog.Info("device starting", "device", cfg.Device, "run_id", p.RunID(), "policy", cfg.Policy, "interval", cfg.Interval)
	runErr := p.Run(ctx)

	summary := RunSummary{
		RunID:  p.RunID(),
		Device: cfg.Device,
		Rounds: p.Round(),
		Value:  rootValue(last.Export),
	}
	if last.Result != nil {
		summary.Result = fmt.Sprint(last.Result)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		code := ErrCodeTransport
		if platform.IsEvaluatorError(runErr) {
			code = ErrCodeEvaluator
		}
		return formatter.Fail(ExitFailure, code, "device stopped", runErr)
	}

	slog.Info("device stopped gracefully", "device", cfg.Device, "rounds", summary.Rounds)
	return formatter.SuccessWithRun(summary.RunID, summary)
}

// applyRunOverrides copies explicitly set flags over cfg and revalidates.
func applyRunOverrides(cmd *cobra.Command, opts *RunOptions, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Device = message.DeviceID(opts.Device)
	}
	if flags.Changed("policy") {
		p, err := mailbox.ParsePolicy(opts.Policy)
		if err != nil {
			return err
		}
		cfg.Policy = p
	}
	if flags.Changed("interval") {
		cfg.Interval = config.Duration(opts.Interval)
	}
	if flags.Changed("db") {
		cfg.Trace.DB = opts.Database
	}
	if opts.Rounds < 0 {
		return fmt.Errorf("--rounds must not be negative, got %d", opts.Rounds)
	}
	return cfg.Validate()
}

// DialNetwork opens the network named by cfg.Network.Kind.
func DialNetwork(ctx context.Context, cfg *config.Config) (network.Network, error) {
	switch cfg.Network.Kind {
	case config.NetworkMemory:
		broker := network.NewBroker(cfg.BrokerOptions()...)
		return broker.Connect(cfg.Device)
	case config.NetworkMQTT:
		return network.DialMQTT(ctx, cfg.MQTT())
	default:
		return nil, fmt.Errorf("unknown network kind %q", cfg.Network.Kind)
	}
}

func rootValue(e export.Export) string {
	v, _ := e.Root()
	return export.FormatValue(v)
}

func formatDistance(d float64) string {
	return export.FormatValue(export.Float(d))
}
