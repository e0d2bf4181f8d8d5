// Package judge runs a test corpus against a solution entry point and builds
// the verdict report.
package judge

import (
	"context"
	"fmt"

	"github.com/mini-maxit/judge-harness/internal/corpus"
	"github.com/mini-maxit/judge-harness/internal/entrypoint"
	"github.com/mini-maxit/judge-harness/internal/logger"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	"github.com/mini-maxit/judge-harness/pkg/verdict"
	"go.uber.org/zap"
)

type Engine interface {
	// Run judges every test case against entry.
	Run(ctx context.Context, cases []corpus.TestCase, entry entrypoint.EntryPoint) verdict.Report
	// Judge is Run with an upstream load or build failure. A non-nil buildErr
	// or a nil entry short-circuits to a report without test results.
	Judge(ctx context.Context, cases []corpus.TestCase, entry entrypoint.EntryPoint, buildErr error) verdict.Report
}

type engine struct {
	logger *zap.SugaredLogger
}

func NewEngine() Engine {
	return &engine{logger: logger.NewNamedLogger("engine")}
}

func (e *engine) Run(ctx context.Context, cases []corpus.TestCase, entry entrypoint.EntryPoint) verdict.Report {
	return e.Judge(ctx, cases, entry, nil)
}

func (e *engine) Judge(
	ctx context.Context,
	cases []corpus.TestCase,
	entry entrypoint.EntryPoint,
	buildErr error,
) verdict.Report {
	if buildErr != nil {
		e.logger.Infof("Entry point unavailable, skipping %d tests: %s", len(cases), buildErr)
		return verdict.BuildFailure(len(cases), buildErr.Error())
	}
	if entry == nil {
		return verdict.BuildFailure(len(cases), constants.TestFaultMessageUnavailable)
	}

	report := verdict.NewReport(len(cases))
	for i, tc := range cases {
		outcome := e.runOne(ctx, tc, entry)
		if outcome.Error != nil {
			e.logger.Debugf("Test %d faulted: %s", i, *outcome.Error)
		}
		report.Record(outcome)
	}

	e.logger.Infof("Judged %d tests: %d passed, %d failed", report.TotalTests, report.Passed, report.Failed)
	return report
}

// runOne is the per-test fault boundary: parse failures, invocation errors
// and panics all become a faulted outcome.
func (e *engine) runOne(ctx context.Context, tc corpus.TestCase, entry entrypoint.EntryPoint) (outcome verdict.TestOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = verdict.Faulted(tc.Input, tc.ExpectedOutput, tc.Explanation,
				fmt.Sprintf(constants.TestFaultMessagePanic, r))
		}
	}()

	codec := entry.Codec()
	args, err := codec.Parse(tc.Input)
	if err != nil {
		return verdict.Faulted(tc.Input, tc.ExpectedOutput, tc.Explanation, err.Error())
	}

	result, err := entry.Invoke(ctx, args)
	if err != nil {
		return verdict.Faulted(tc.Input, tc.ExpectedOutput, tc.Explanation, err.Error())
	}

	actual, err := codec.Format(result)
	if err != nil {
		return verdict.Faulted(tc.Input, tc.ExpectedOutput, tc.Explanation, err.Error())
	}

	return verdict.Answered(tc.Input, tc.ExpectedOutput, tc.Explanation, actual)
}
