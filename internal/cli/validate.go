package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fieldnet/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool   `json:"valid"`
	Device    int32  `json:"device"`
	Neighbors int    `json:"neighbors"`
	Policy    string `json:"policy"`
	Network   string `json:"network"`
	Interval  string `json:"interval"`
}

func (r ValidationResult) String() string {
	return fmt.Sprintf("✓ Config valid: device %d, %d neighbor(s), %s, %s network, every %s",
		r.Device, r.Neighbors, r.Policy, r.Network, r.Interval)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Validate a device configuration",
		Long: `Load and validate a YAML or CUE device configuration without running it.

YAML files are decoded strictly; CUE files are unified with the built-in
#Config schema. All problems found are reported at once.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	formatter.VerboseLog("Loading %s", path)
	cfg, err := config.Load(path)
	if err != nil {
		// Unreadable or unsupported files are command errors; a file that
		// loads but fails validation is a validation failure.
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, config.ErrUnsupportedFormat) {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, "cannot load config", err)
		}
		if !formatter.IsJSON() {
			fmt.Fprintln(formatter.Writer, "✗ Validation failed")
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(formatter.Writer, "  %s\n", line)
			}
			return WrapExitError(ExitFailure, "validation failed", err)
		}
		return formatter.Fail(ExitFailure, ErrCodeConfig, "validation failed", err)
	}

	return formatter.Success(ValidationResult{
		Valid:     true,
		Device:    int32(cfg.Device),
		Neighbors: len(cfg.Neighbors),
		Policy:    cfg.Policy.String(),
		Network:   cfg.Network.Kind,
		Interval:  cfg.Interval.String(),
	})
}
