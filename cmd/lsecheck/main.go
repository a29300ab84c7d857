// Command lsecheck sweeps the log-domain routines against an
// arbitrary-precision reference and reports per-formula error series.
//
// Usage:
//
//	lsecheck log1mexp --start -17 --stop 3 --step 0.01 --format tsv > errs.tsv
//	lsecheck normalize --precision float32
//	lsecheck run --config sweeps.yaml
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ieee0824/stablelog/harness"
	"github.com/ieee0824/stablelog/internal/config"
	"github.com/ieee0824/stablelog/internal/reference"
)

type app struct {
	verbose   bool
	precision string
	refBits   uint
	format    string
	output    string

	// level gates every logger the app uses; the config and --verbose
	// move it after the logger is built.
	level  zap.AtomicLevel
	logger *zap.Logger
}

func main() {
	if err := newRootCmd(os.Stdout, nil).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. A nil logger is replaced by a zap
// production logger when a command runs. A given logger is filtered
// through the app's level.
func newRootCmd(stdout io.Writer, logger *zap.Logger) *cobra.Command {
	a := &app{level: zap.NewAtomicLevel()}
	if logger != nil {
		a.logger = logger.WithOptions(zap.IncreaseLevel(a.level))
	}
	root := &cobra.Command{
		Use:   "lsecheck",
		Short: "Measure numerical error of log-sum-exp style formulas",
		Long: `lsecheck evaluates several algebraically equivalent formulas over a sweep
of inputs, compares each against an arbitrary-precision reference and
reports the absolute error per formula and input.

NaN errors are reported as 1.0 so summaries stay finite.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.verbose {
				a.level.SetLevel(zapcore.DebugLevel)
			}
			if a.logger != nil {
				return nil
			}
			cfg := zap.NewProductionConfig()
			cfg.Level = a.level
			logger, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(stdout)

	pf := root.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log every sample at debug level")
	pf.StringVar(&a.precision, "precision", "float64", "candidate precision: float64 or float32")
	pf.UintVar(&a.refBits, "ref-bits", reference.DefaultPrec, "reference mantissa bits")
	pf.StringVarP(&a.format, "format", "f", harness.FormatText, "output format: text, tsv or yaml")
	pf.StringVarP(&a.output, "output", "o", "", "write the report to this file instead of stdout")

	for _, name := range harness.Names() {
		root.AddCommand(a.experimentCmd(name))
	}
	root.AddCommand(a.runCmd())
	return root
}

// experimentCmd runs one named experiment with sweep flags overriding
// its default sweep.
func (a *app) experimentCmd(name string) *cobra.Command {
	build, def, _ := harness.Lookup(name)
	var scale string
	sweep := def
	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Sweep the %s formulas", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sweep.Scale = harness.Scale(scale)
			// --num and --step are exclusive; whichever was given wins.
			if cmd.Flags().Changed("num") && !cmd.Flags().Changed("step") {
				sweep.Step = 0
			}
			if cmd.Flags().Changed("step") && !cmd.Flags().Changed("num") {
				sweep.Num = 0
			}
			prec, err := harness.ParsePrecision(a.precision)
			if err != nil {
				return err
			}
			e := build(harness.NewOracle(a.refBits), sweep)
			return a.report(cmd, prec, []harness.Experiment{e})
		},
	}
	f := cmd.Flags()
	f.StringVar(&scale, "scale", string(def.Scale), "sweep scale: linear or log10 (bounds are exponents)")
	f.Float64Var(&sweep.Start, "start", def.Start, "first sweep value")
	f.Float64Var(&sweep.Stop, "stop", def.Stop, "last sweep value (exclusive with --step)")
	f.IntVar(&sweep.Num, "num", def.Num, "number of evenly spaced points")
	f.Float64Var(&sweep.Step, "step", def.Step, "spacing between points")
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the experiments listed in a YAML config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if path != "" {
				var err error
				if cfg, err = config.Load(path); err != nil {
					return err
				}
			}
			// Flags given explicitly win over the file.
			pf := cmd.Flags()
			if pf.Changed("precision") {
				cfg.Precision = a.precision
			}
			if pf.Changed("ref-bits") {
				cfg.ReferenceBits = a.refBits
			}
			if pf.Changed("format") {
				cfg.Format = a.format
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.format = cfg.Format
			if !a.verbose && cfg.Logging.Level != "" {
				lvl, err := zapcore.ParseLevel(cfg.Logging.Level)
				if err != nil {
					return err
				}
				a.level.SetLevel(lvl)
			}
			prec, _ := harness.ParsePrecision(cfg.Precision)
			exps, err := cfg.Build(harness.NewOracle(cfg.ReferenceBits))
			if err != nil {
				return err
			}
			return a.report(cmd, prec, exps)
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "", "path to YAML config (defaults apply when empty)")
	return cmd
}

func (a *app) report(cmd *cobra.Command, prec harness.Precision, exps []harness.Experiment) (err error) {
	out := cmd.OutOrStdout()
	if a.output != "" {
		f, cerr := os.Create(a.output)
		if cerr != nil {
			return fmt.Errorf("failed to create output: %w", cerr)
		}
		defer closeOutput(f, &err)
		out = f
	}
	sink, err := harness.NewSink(a.format, out)
	if err != nil {
		return err
	}
	runner := harness.NewRunner(prec, a.logger)
	for _, e := range exps {
		a.logger.Info("Running experiment", zap.String("name", e.Name), zap.String("precision", string(prec)))
		res, err := runner.Run(e)
		if err != nil {
			return err
		}
		if err := sink.Write(res); err != nil {
			return fmt.Errorf("failed to write %s: %w", e.Name, err)
		}
	}
	return nil
}

// closeOutput closes c and reports its error through errp unless an
// earlier error is already set.
func closeOutput(c io.Closer, errp *error) {
	if err := c.Close(); err != nil && *errp == nil {
		*errp = fmt.Errorf("failed to close output: %w", err)
	}
}
