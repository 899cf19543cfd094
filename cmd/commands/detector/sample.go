package detector

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"adaptivealerting/aad/internal/builder"
	"adaptivealerting/aad/internal/domain"

	"github.com/spf13/cobra"
)

// addBuildFlags registers the flags shared by build, create and update.
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().String("strategy", string(builder.DefaultStrategy), "Threshold strategy: sigma or quartile")
	cmd.Flags().Float64("weak", builder.DefaultWeakMultiplier, "Multiplier for the weak (warning) thresholds")
	cmd.Flags().Float64("strong", builder.DefaultStrongMultiplier, "Multiplier for the strong (critical) thresholds")
	cmd.Flags().Float64Slice("sample", nil, "Sample values, comma separated (e.g. 10,12,9.5)")
	cmd.Flags().String("sample-file", "", "Read sample values from a file ('-' for stdin)")
}

// buildRequest is the parsed form of the build flags.
type buildRequest struct {
	strategy domain.Strategy
	weak     float64
	strong   float64
	sample   []float64
}

func parseBuildFlags(cmd *cobra.Command) (buildRequest, error) {
	var req buildRequest

	name, _ := cmd.Flags().GetString("strategy")
	strategy, err := domain.ParseStrategy(name)
	if err != nil {
		return req, err
	}
	req.strategy = strategy
	req.weak, _ = cmd.Flags().GetFloat64("weak")
	req.strong, _ = cmd.Flags().GetFloat64("strong")

	inline, _ := cmd.Flags().GetFloat64Slice("sample")
	file, _ := cmd.Flags().GetString("sample-file")
	switch {
	case len(inline) > 0 && file != "":
		return req, fmt.Errorf("use either --sample or --sample-file, not both")
	case len(inline) > 0:
		req.sample = inline
	case file != "":
		req.sample, err = readSampleFile(file, cmd.InOrStdin())
		if err != nil {
			return req, err
		}
	default:
		return req, fmt.Errorf("a sample is required: pass --sample or --sample-file")
	}
	return req, nil
}

func readSampleFile(path string, stdin io.Reader) ([]float64, error) {
	if path == "-" {
		return parseSample(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample: %w", err)
	}
	defer f.Close()

	sample, err := parseSample(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sample, nil
}

// parseSample reads numbers separated by whitespace or commas. Lines
// starting with '#' are ignored.
func parseSample(r io.Reader) ([]float64, error) {
	var sample []float64
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid number %q", line, field)
			}
			sample = append(sample, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sample: %w", err)
	}
	if len(sample) == 0 {
		return nil, fmt.Errorf("sample is empty")
	}
	return sample, nil
}

// parseTags validates the --tag flag values.
func parseTags(cmd *cobra.Command, required bool) (map[string]string, error) {
	tags, _ := cmd.Flags().GetStringToString("tag")
	for k, v := range tags {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("invalid tag %q=%q: key and value must be non-empty", k, v)
		}
	}
	if required && len(tags) == 0 {
		return nil, fmt.Errorf("at least one --tag key=value is required")
	}
	return tags, nil
}
