package detector

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"adaptivealerting/aad/internal/domain"

	"github.com/spf13/cobra"
)

// printDetectorDetail prints a vertical key-value table of a detector.
func printDetectorDetail(cmd *cobra.Command, d *domain.Detector) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	if d.UUID != "" {
		fmt.Fprintf(w, "  UUID:\t%s\n", d.UUID)
	}
	fmt.Fprintf(w, "  Type:\t%s\n", d.Type)
	fmt.Fprintf(w, "  Enabled:\t%t\n", d.Enabled)
	fmt.Fprintf(w, "  Trusted:\t%t\n", d.Trusted)
	if d.CreatedBy != "" {
		fmt.Fprintf(w, "  Created by:\t%s\n", d.CreatedBy)
	}
	if d.LastUpdateTimestamp != "" {
		fmt.Fprintf(w, "  Last updated:\t%s\n", d.LastUpdateTimestamp)
	}

	if cfg, ok := d.ConstantThreshold(); ok {
		hp := cfg.Hyperparams
		if hp.Strategy != "" {
			fmt.Fprintf(w, "  Strategy:\t%s (weak ×%s, strong ×%s)\n", hp.Strategy, formatFloat(hp.WeakMultiplier), formatFloat(hp.StrongMultiplier))
		}
		if cfg.Params.Type != "" {
			fmt.Fprintf(w, "  Tails:\t%s\n", cfg.Params.Type)
		}
		t := cfg.Params.Thresholds
		fmt.Fprintf(w, "  Strong upper:\t%s\n", formatFloat(t.StrongUpper))
		fmt.Fprintf(w, "  Weak upper:\t%s\n", formatFloat(t.WeakUpper))
		fmt.Fprintf(w, "  Weak lower:\t%s\n", formatFloat(t.WeakLower))
		fmt.Fprintf(w, "  Strong lower:\t%s\n", formatFloat(t.StrongLower))
	}

	w.Flush()
}

// printDetectorTable prints one row per detector.
func printDetectorTable(cmd *cobra.Command, detectors []domain.Detector) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "UUID\tTYPE\tENABLED\tSTRATEGY\tWEAK\tSTRONG")
	fmt.Fprintln(w, "----\t----\t-------\t--------\t----\t------")
	for i := range detectors {
		d := &detectors[i]
		strategy, weak, strong := "-", "-", "-"
		if cfg, ok := d.ConstantThreshold(); ok {
			if cfg.Hyperparams.Strategy != "" {
				strategy = string(cfg.Hyperparams.Strategy)
			}
			t := cfg.Params.Thresholds
			weak = formatRange(t.WeakLower, t.WeakUpper)
			strong = formatRange(t.StrongLower, t.StrongUpper)
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\t%s\n", d.UUID, d.Type, d.Enabled, strategy, weak, strong)
	}
	w.Flush()
}

func formatRange(lower, upper float64) string {
	return "[" + formatFloat(lower) + ", " + formatFloat(upper) + "]"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
