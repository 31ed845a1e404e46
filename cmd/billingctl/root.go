package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shehrozeikram/ERP-sub003/internal/billing"
	"github.com/shehrozeikram/ERP-sub003/internal/config"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "1.0.0"

const asOfLayout = "2006-01-02"

// globalOpts are the billing policy flags shared by every command.
type globalOpts struct {
	rate     float64
	grace    int
	timezone string
	logLevel string

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	opts := &globalOpts{}

	root := &cobra.Command{
		Use:   "billingctl",
		Short: "Compute invoice figures and documents offline",
		Long: `billingctl runs the invoice calculator on JSON exported from the
utilities backend, without starting the HTTP service.

Policy defaults come from the environment (LATE_SURCHARGE_RATE,
GRACE_PERIOD_DAYS, BILLING_TIMEZONE) and can be overridden per call.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = newCLILogger(opts.logLevel)
		},
	}

	pf := root.PersistentFlags()
	pf.Float64Var(&opts.rate, "rate", cfg.LateSurchargeRate, "Late payment surcharge rate")
	pf.IntVar(&opts.grace, "grace-days", cfg.GracePeriodDays, "Days after the due date before the surcharge applies")
	pf.StringVar(&opts.timezone, "tz", cfg.BillingTimezone, "Timezone calendar days are compared in")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newFiguresCmd(opts),
		newStatementCmd(opts),
		newCarryForwardCmd(opts),
		newInvoiceNumberCmd(opts),
	)
	return root
}

func newCLILogger(level string) *zap.Logger {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (o *globalOpts) calculator() (*billing.Calculator, error) {
	if o.rate < 0 || o.rate > 1 {
		return nil, fmt.Errorf("--rate must be between 0 and 1, got %v", o.rate)
	}
	loc := time.Local
	if o.timezone != "" {
		l, err := time.LoadLocation(o.timezone)
		if err != nil {
			return nil, fmt.Errorf("--tz %q: %w", o.timezone, err)
		}
		loc = l
	}
	return billing.NewCalculator(billing.Options{
		SurchargeRate: decimal.NewNullDecimal(decimal.NewFromFloat(o.rate)),
		GraceDays:     o.grace,
		Location:      loc,
	}), nil
}

// asOf parses --as-of in the calculator zone; empty means now.
func asOf(value string, calc *billing.Calculator) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation(asOfLayout, value, calc.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of, use YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// readJSON decodes a file, or stdin when path is "-".
func readJSON(cmd *cobra.Command, path string, v any) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
