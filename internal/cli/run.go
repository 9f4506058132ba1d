package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/siftql/sift/internal/harness"
)

// NewRunCommand creates the run command: execute edit-script scenarios.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario.yaml | dir>",
		Short: "Run edit-script scenarios",
		Long: `Execute one scenario file, or every *.yaml scenario in a directory,
and report expectation failures. Exit code 1 means at least one
scenario failed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(rootOpts, args[0], cmd)
		},
	}
}

// scenarioOutcome is one scenario's JSON payload entry.
type scenarioOutcome struct {
	Name     string   `json:"name"`
	Passed   bool     `json:"passed"`
	Failures []string `json:"failures,omitempty"`
}

func runScenarios(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	scenarios, err := collectScenarios(path)
	if err != nil {
		formatter.Error(ErrCodeScenario, err.Error(), nil)
		return NewExitError(ExitCommandError, "scenario load failed")
	}
	formatter.VerboseLog("running %d scenario(s)", len(scenarios))

	outcomes := make([]scenarioOutcome, 0, len(scenarios))
	var text strings.Builder
	failed := 0
	for i, scenario := range scenarios {
		result, err := harness.Run(scenario)
		if err != nil {
			formatter.Error(ErrCodeScenario, err.Error(), nil)
			return NewExitError(ExitCommandError, "scenario run failed")
		}

		outcome := scenarioOutcome{
			Name:     scenario.Name,
			Passed:   result.Passed(),
			Failures: result.Failures,
		}
		outcomes = append(outcomes, outcome)

		if i > 0 {
			text.WriteString("\n")
		}
		if outcome.Passed {
			fmt.Fprintf(&text, "PASS %s", scenario.Name)
		} else {
			failed++
			fmt.Fprintf(&text, "FAIL %s", scenario.Name)
			for _, failure := range result.Failures {
				fmt.Fprintf(&text, "\n     %s", failure)
			}
		}
	}
	fmt.Fprintf(&text, "\n%d/%d passed", len(scenarios)-failed, len(scenarios))

	if err := formatter.SuccessText(outcomes, text.String()); err != nil {
		return err
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", failed))
	}
	return nil
}

func collectScenarios(path string) ([]*harness.Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		scenarios, err := harness.LoadScenarioDir(path)
		if err != nil {
			return nil, err
		}
		if len(scenarios) == 0 {
			return nil, fmt.Errorf("no scenarios found in %s", path)
		}
		return scenarios, nil
	}
	s, err := harness.LoadScenario(path)
	if err != nil {
		return nil, err
	}
	return []*harness.Scenario{s}, nil
}
