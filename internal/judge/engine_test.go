package judge_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mini-maxit/judge-harness/internal/corpus"
	"github.com/mini-maxit/judge-harness/internal/entrypoint"
	. "github.com/mini-maxit/judge-harness/internal/judge"
	"github.com/mini-maxit/judge-harness/internal/signature"
	"github.com/mini-maxit/judge-harness/pkg/verdict"
)

func sumEntry() entrypoint.EntryPoint {
	return entrypoint.NewFunc(signature.Default(), func(_ context.Context, args []signature.Value) (signature.Value, error) {
		var total int64
		for _, n := range args[0].Ints {
			total += n
		}
		return signature.IntValue(total), nil
	})
}

func tc(input, expected string) corpus.TestCase {
	return corpus.TestCase{Input: input, ExpectedOutput: expected, Explanation: "case " + input}
}

// checkInvariants verifies the report properties that hold for every run.
func checkInvariants(t *testing.T, r verdict.Report, cases []corpus.TestCase) {
	t.Helper()

	if r.Passed+r.Failed != len(r.TestResults) {
		t.Fatalf("passed+failed=%d, results=%d", r.Passed+r.Failed, len(r.TestResults))
	}
	if len(r.TestResults) > r.TotalTests {
		t.Fatalf("more results than tests")
	}
	if r.BuildError != nil {
		if len(r.TestResults) != 0 || r.Passed != 0 || r.Failed != 0 {
			t.Fatalf("build error report carries results: %+v", r)
		}
		return
	}
	if len(r.TestResults) != len(cases) || r.TotalTests != len(cases) {
		t.Fatalf("expected %d results, got %d", len(cases), len(r.TestResults))
	}
	for i, o := range r.TestResults {
		if (o.ActualOutput == nil) != (o.Error != nil) {
			t.Fatalf("result %d: actualOutput and error must be exclusive: %+v", i, o)
		}
		if o.Input != cases[i].Input || o.ExpectedOutput != cases[i].ExpectedOutput ||
			o.Explanation != cases[i].Explanation {
			t.Fatalf("result %d does not match corpus entry %d", i, i)
		}
		if o.Error != nil && o.Passed {
			t.Fatalf("result %d: faulted outcome marked passed", i)
		}
	}
}

func TestRun_SumPasses(t *testing.T) {
	cases := []corpus.TestCase{tc("1,2", "3")}
	r := NewEngine().Run(context.Background(), cases, sumEntry())
	checkInvariants(t, r, cases)

	o := r.TestResults[0]
	if o.ActualOutput == nil || *o.ActualOutput != "3" || !o.Passed {
		t.Fatalf("expected passing outcome with 3, got %+v", o)
	}
	if r.Passed != 1 || r.Failed != 0 {
		t.Fatalf("unexpected counters %d/%d", r.Passed, r.Failed)
	}
}

func TestRun_WrongAnswerIsNotAFault(t *testing.T) {
	cases := []corpus.TestCase{tc("2,2", "5")}
	r := NewEngine().Run(context.Background(), cases, sumEntry())
	checkInvariants(t, r, cases)

	o := r.TestResults[0]
	if o.ActualOutput == nil || *o.ActualOutput != "4" || o.Passed || o.Error != nil {
		t.Fatalf("expected wrong answer 4 without error, got %+v", o)
	}
}

func TestRun_ParseFaultDoesNotStopRun(t *testing.T) {
	cases := []corpus.TestCase{tc("a,b", "0"), tc("1,2", "3")}
	r := NewEngine().Run(context.Background(), cases, sumEntry())
	checkInvariants(t, r, cases)

	first := r.TestResults[0]
	if first.ActualOutput != nil || first.Passed || first.Error == nil || *first.Error == "" {
		t.Fatalf("expected faulted first outcome, got %+v", first)
	}
	if !r.TestResults[1].Passed {
		t.Fatalf("expected second test to run and pass")
	}
	if r.Passed != 1 || r.Failed != 1 {
		t.Fatalf("unexpected counters %d/%d", r.Passed, r.Failed)
	}
}

func TestRun_PanicAndErrorAreIsolated(t *testing.T) {
	entry := entrypoint.NewFunc(signature.Default(), func(_ context.Context, args []signature.Value) (signature.Value, error) {
		switch args[0].Ints[0] {
		case 0:
			var m map[string]int
			m["boom"] = 1
		case 1:
			return signature.Value{}, errors.New("solution raised")
		case 2:
			return signature.BoolValue(true), nil
		}
		return signature.IntValue(args[0].Ints[0]), nil
	})

	cases := []corpus.TestCase{tc("0", "0"), tc("1", "1"), tc("2", "2"), tc("3", "3")}
	r := NewEngine().Run(context.Background(), cases, entry)
	checkInvariants(t, r, cases)

	for i := 0; i < 3; i++ {
		if r.TestResults[i].Error == nil {
			t.Fatalf("expected fault on test %d", i)
		}
	}
	if *r.TestResults[1].Error != "solution raised" {
		t.Fatalf("unexpected fault message %q", *r.TestResults[1].Error)
	}
	if !r.TestResults[3].Passed {
		t.Fatalf("expected last test to pass after faults")
	}
}

func TestJudge_BuildFailure(t *testing.T) {
	cases := []corpus.TestCase{tc("1,2", "3"), tc("2,2", "4")}
	r := NewEngine().Judge(context.Background(), cases, sumEntry(), errors.New("solution.cpp:1: error"))
	checkInvariants(t, r, cases)

	if r.BuildError == nil || *r.BuildError == "" {
		t.Fatalf("expected build error")
	}
	if r.TotalTests != 2 || len(r.TestResults) != 0 {
		t.Fatalf("unexpected report %+v", r)
	}
}

func TestJudge_CorpusFailure(t *testing.T) {
	_, loadErr := corpus.LoadBytes([]byte("{"))
	r := NewEngine().Judge(context.Background(), nil, nil, loadErr)
	checkInvariants(t, r, nil)

	if r.TotalTests != 0 || r.BuildError == nil {
		t.Fatalf("expected zero tests with build error, got %+v", r)
	}
}

func TestJudge_NilEntryIsUnavailable(t *testing.T) {
	r := NewEngine().Judge(context.Background(), []corpus.TestCase{tc("1", "1")}, nil, nil)
	if r.BuildError == nil {
		t.Fatalf("expected build error for missing entry point")
	}
}

func TestRun_EmptyCorpus(t *testing.T) {
	r := NewEngine().Run(context.Background(), []corpus.TestCase{}, sumEntry())
	checkInvariants(t, r, nil)

	if r.TotalTests != 0 || r.Passed != 0 || r.Failed != 0 || r.BuildError != nil {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.TestResults == nil {
		t.Fatalf("expected non-nil empty results")
	}
}

func TestRun_TypedSignature(t *testing.T) {
	sig := signature.Signature{
		ClassName:  "Solution",
		MethodName: "twoSum",
		Params: []signature.Param{
			{Name: "nums", Type: signature.KindIntArray},
			{Name: "target", Type: signature.KindInt},
		},
		ReturnType: signature.KindIntArray,
		Convention: signature.ConventionTyped,
	}
	entry := entrypoint.NewFunc(sig, func(_ context.Context, args []signature.Value) (signature.Value, error) {
		nums, target := args[0].Ints, args[1].Int
		seen := map[int64]int64{}
		for i, n := range nums {
			if j, ok := seen[target-n]; ok {
				return signature.IntsValue(j, int64(i)), nil
			}
			seen[n] = int64(i)
		}
		return signature.IntsValue(), nil
	})

	cases := []corpus.TestCase{
		tc("[2,7,11,15], 9", "[0,1]"),
		tc("[3,2,4], 6", "[1,2]"),
		tc("[3,3]", "[0,1]"),
	}
	r := NewEngine().Run(context.Background(), cases, entry)
	checkInvariants(t, r, cases)

	if r.Passed != 2 || r.Failed != 1 {
		t.Fatalf("unexpected counters %d/%d: %+v", r.Passed, r.Failed, r.TestResults)
	}
}

func TestRun_OrderPreservedForManyCases(t *testing.T) {
	cases := make([]corpus.TestCase, 50)
	for i := range cases {
		cases[i] = tc(fmt.Sprintf("%d,%d", i, i), fmt.Sprintf("%d", 2*i))
	}
	r := NewEngine().Run(context.Background(), cases, sumEntry())
	checkInvariants(t, r, cases)

	if r.Passed != len(cases) {
		t.Fatalf("expected all to pass, got %d", r.Passed)
	}
}
