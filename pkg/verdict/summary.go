package verdict

import (
	"strconv"

	"github.com/mini-maxit/judge-harness/pkg/constants"
)

type SummaryDetail struct {
	Status   string  `json:"status"`
	Input    string  `json:"input"`
	Expected string  `json:"expected"`
	Actual   *string `json:"actual"`
	Error    *string `json:"error"`
}

// Summary is the condensed view of a report published next to it.
type Summary struct {
	Status     string          `json:"status"`
	Passed     int             `json:"passed"`
	Failed     int             `json:"failed"`
	TotalTests int             `json:"totalTests"`
	Percentage string          `json:"percentage"`
	Details    []SummaryDetail `json:"details"`
}

func NewSummary(r Report) Summary {
	s := Summary{
		Status:     constants.SummaryStatusAccepted,
		Passed:     r.Passed,
		Failed:     r.Failed,
		TotalTests: r.TotalTests,
		Percentage: percentage(r.Passed, r.TotalTests),
		Details:    make([]SummaryDetail, 0, len(r.TestResults)),
	}

	switch {
	case r.HasBuildError():
		s.Status = constants.SummaryStatusError
	case r.Failed > 0:
		s.Status = constants.SummaryStatusRejected
	}

	for _, outcome := range r.TestResults {
		status := constants.SummaryDetailFail
		if outcome.Passed {
			status = constants.SummaryDetailPass
		}
		s.Details = append(s.Details, SummaryDetail{
			Status:   status,
			Input:    outcome.Input,
			Expected: outcome.ExpectedOutput,
			Actual:   outcome.ActualOutput,
			Error:    outcome.Error,
		})
	}

	return s
}

func percentage(passed, total int) string {
	if total == 0 {
		return "0.00"
	}
	return strconv.FormatFloat(float64(passed)*100/float64(total), 'f', 2, 64)
}
