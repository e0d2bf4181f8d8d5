// Package verdict holds the report produced by a single judged run.
package verdict

// TestOutcome is the resolved result of one test case.
// ActualOutput is nil exactly when Error is set.
type TestOutcome struct {
	Input          string  `json:"input"`
	ExpectedOutput string  `json:"expectedOutput"`
	ActualOutput   *string `json:"actualOutput"`
	Passed         bool    `json:"passed"`
	Explanation    string  `json:"explanation"`
	Error          *string `json:"error,omitempty"`
}

// Report is the terminal output of a run.
type Report struct {
	TotalTests  int           `json:"totalTests"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	TestResults []TestOutcome `json:"testResults"`
	BuildError  *string       `json:"buildError,omitempty"`
}

// NewReport starts an empty report for a corpus of totalTests cases.
func NewReport(totalTests int) Report {
	return Report{
		TotalTests:  totalTests,
		TestResults: make([]TestOutcome, 0, totalTests),
	}
}

// BuildFailure returns a report for a run that could not attempt any test.
func BuildFailure(totalTests int, diagnostic string) Report {
	return Report{
		TotalTests:  totalTests,
		TestResults: []TestOutcome{},
		BuildError:  &diagnostic,
	}
}

// Record appends an outcome and bumps the matching counter.
func (r *Report) Record(outcome TestOutcome) {
	r.TestResults = append(r.TestResults, outcome)
	if outcome.Passed {
		r.Passed++
		return
	}
	r.Failed++
}

func (r Report) HasBuildError() bool {
	return r.BuildError != nil
}

// Answered builds the outcome of a test whose entry point produced a value.
func Answered(input, expected, explanation, actual string) TestOutcome {
	return TestOutcome{
		Input:          input,
		ExpectedOutput: expected,
		ActualOutput:   &actual,
		Passed:         actual == expected,
		Explanation:    explanation,
	}
}

// Faulted builds the outcome of a test that failed before producing a value.
func Faulted(input, expected, explanation, fault string) TestOutcome {
	return TestOutcome{
		Input:          input,
		ExpectedOutput: expected,
		Passed:         false,
		Explanation:    explanation,
		Error:          &fault,
	}
}
