package cli

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/fieldset/internal/harness"
	"github.com/roach88/fieldset/internal/metrics"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update  bool   // regenerate golden files
	Filter  string // scenario filter (glob pattern)
	Metrics bool   // print collected metrics after the run
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// MetricSample is one counter or histogram count gathered during the run.
type MetricSample struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
	Value  float64           `json:"value"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
	Metrics   []MetricSample   `json:"metrics,omitempty"`
}

// Golden comparison outcomes.
const (
	goldenMatched = "matched"
	goldenUpdated = "updated"
	goldenMissing = "missing"
)

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run edit-lifecycle scenarios",
		Long: `Run YAML scenarios against fresh entities and compare each trace with
its golden file in <scenarios-dir>/golden/<name>.golden.

Scenarios without a golden file are judged on their expectations and
assertions alone.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  fieldset test ./testdata/scenarios
  fieldset test ./testdata/scenarios --filter "edit_*"
  fieldset test ./testdata/scenarios --update
  fieldset test ./testdata/scenarios --metrics --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print history and state metrics after the run")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	log := opts.logger()

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		_ = f.Error(ErrCodeNotFound, fmt.Sprintf("scenarios directory not found: %s", dir), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	if len(files) == 0 {
		if f.IsJSON() {
			return f.Success(result)
		}
		fmt.Fprintln(f.Writer, "No scenarios found.")
		return nil
	}

	runOpts := []harness.Option{
		harness.WithLogger(log),
		harness.WithDefaultHistoryLimit(opts.settings().HistoryLimit),
	}
	var reg *prometheus.Registry
	if opts.Metrics || opts.settings().Metrics {
		reg = prometheus.NewRegistry()
		runOpts = append(runOpts, harness.WithObserver(metrics.NewRecorder(reg)))
	}

	for _, file := range files {
		sr := runScenario(file, opts, runOpts)
		log.Debug("scenario finished", "file", file, "pass", sr.Pass, "golden", sr.Golden)
		if !f.IsJSON() {
			writeScenarioText(f, sr)
		}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if reg != nil {
		samples, err := gatherSamples(reg)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to gather metrics", err)
		}
		result.Metrics = samples
	}

	if f.IsJSON() {
		if result.Failed > 0 {
			if err := f.Failure(ErrCodeTestFailed, fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.Total), result); err != nil {
				return err
			}
		} else if err := f.Success(result); err != nil {
			return err
		}
	} else {
		writeSummaryText(f, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// findScenarioFiles returns the .yaml and .yml files under dir whose base
// name matches filter. The golden directory is skipped.
func findScenarioFiles(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(d.Name(), ext)
			if ok, _ := filepath.Match(filter, name); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func runScenario(file string, opts *TestOptions, runOpts []harness.Option) ScenarioResult {
	s, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	res, err := harness.Run(s, runOpts...)
	if err != nil {
		return ScenarioResult{
			Name:   s.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	sr := ScenarioResult{Name: s.Name, Pass: res.Pass, Errors: res.Errors}

	snapshot := harness.TraceSnapshot{ScenarioName: s.Name, Trace: res.Trace}
	data, err := snapshot.Marshal()
	if err != nil {
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf("failed to marshal trace: %v", err))
		return sr
	}

	path := goldenFilePath(file)
	if opts.Update {
		if err := writeGolden(path, data); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, err.Error())
			return sr
		}
		sr.Golden = goldenUpdated
		return sr
	}

	want, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		sr.Golden = goldenMissing
	case err != nil:
		sr.Pass = false
		sr.Errors = append(sr.Errors, fmt.Sprintf("failed to read golden file: %v", err))
	case !bytes.Equal(want, data):
		sr.Pass = false
		sr.Errors = append(sr.Errors, "trace does not match golden file (run with --update to regenerate)")
	default:
		sr.Golden = goldenMatched
	}
	return sr
}

// goldenFilePath returns <dir>/golden/<name>.golden for a scenario file.
func goldenFilePath(file string) string {
	base := filepath.Base(file)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(file), "golden", name+".golden")
}

func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// gatherSamples flattens the registry into counter values and histogram
// sample counts, in the registry's sorted order.
func gatherSamples(reg *prometheus.Registry) ([]MetricSample, error) {
	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}

	var out []MetricSample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			sample := MetricSample{Name: mf.GetName()}
			if labels := m.GetLabel(); len(labels) > 0 {
				sample.Labels = make(map[string]string, len(labels))
				for _, lp := range labels {
					sample.Labels[lp.GetName()] = lp.GetValue()
				}
			}
			switch {
			case m.GetCounter() != nil:
				sample.Value = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				sample.Name += "_count"
				sample.Value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			out = append(out, sample)
		}
	}
	return out, nil
}

func writeScenarioText(f *OutputFormatter, sr ScenarioResult) {
	if !sr.Pass {
		fmt.Fprintf(f.Writer, "✗ %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(f.Writer, "  %s\n", e)
		}
		return
	}
	switch sr.Golden {
	case goldenUpdated:
		fmt.Fprintf(f.Writer, "✓ %s (golden updated)\n", sr.Name)
	case goldenMissing:
		fmt.Fprintf(f.Writer, "✓ %s (no golden file)\n", sr.Name)
	default:
		fmt.Fprintf(f.Writer, "✓ %s\n", sr.Name)
	}
}

func writeSummaryText(f *OutputFormatter, result TestResult) {
	fmt.Fprintln(f.Writer)
	fmt.Fprintf(f.Writer, "%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if len(result.Metrics) == 0 {
		return
	}
	fmt.Fprintln(f.Writer)
	fmt.Fprintln(f.Writer, "Metrics:")
	for _, s := range result.Metrics {
		fmt.Fprintf(f.Writer, "  %s%s %g\n", s.Name, formatLabels(s.Labels), s.Value)
	}
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%q", k, labels[k])
	}
	return "{" + strings.Join(parts, ",") + "}"
}
