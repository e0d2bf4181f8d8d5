// Package entrypoint provides the invocation boundary between the judge engine
// and a candidate solution.
package entrypoint

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mini-maxit/judge-harness/internal/signature"
	"github.com/mini-maxit/judge-harness/internal/stages/executor"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	"github.com/mini-maxit/judge-harness/utils"
)

// EntryPoint is a resolved solution that can be invoked once per test case.
type EntryPoint interface {
	Codec() signature.Codec
	Invoke(ctx context.Context, args []signature.Value) (signature.Value, error)
}

// SolutionFunc is an in-process solution.
type SolutionFunc func(ctx context.Context, args []signature.Value) (signature.Value, error)

// Func adapts a Go function to the EntryPoint interface.
type Func struct {
	sig signature.Signature
	fn  SolutionFunc
}

func NewFunc(sig signature.Signature, fn SolutionFunc) *Func {
	return &Func{sig: sig, fn: fn}
}

func (f *Func) Codec() signature.Codec { return f.sig.Codec() }

func (f *Func) Invoke(ctx context.Context, args []signature.Value) (signature.Value, error) {
	return f.fn(ctx, args)
}

// Process invokes a separately built driver through an executor, speaking the
// line protocol on stdin and stdout.
type Process struct {
	sig       signature.Signature
	executor  executor.Executor
	command   []string
	timeLimit time.Duration
}

func NewProcess(sig signature.Signature, exec executor.Executor, command []string, timeLimit time.Duration) *Process {
	return &Process{sig: sig, executor: exec, command: command, timeLimit: timeLimit}
}

func (p *Process) Codec() signature.Codec { return p.sig.Codec() }

func (p *Process) Invoke(ctx context.Context, args []signature.Value) (signature.Value, error) {
	var stdin bytes.Buffer
	if err := signature.EncodeArgs(&stdin, args); err != nil {
		return signature.Value{}, err
	}

	res, err := p.executor.ExecuteCommand(ctx, executor.Command{
		Args:      p.command,
		Stdin:     stdin.Bytes(),
		TimeLimit: p.timeLimit,
	})
	if err != nil {
		return signature.Value{}, err
	}

	if res.TimedOut {
		return signature.Value{}, fmt.Errorf(constants.TestFaultMessageTimeout, p.timeLimit.Milliseconds())
	}
	if res.Signal != "" {
		fault := fmt.Sprintf(constants.TestFaultMessageSignal, res.Signal)
		if msg := utils.TrimOutput(res.Stderr, constants.MaxCapturedStderr); msg != "" {
			fault += ": " + msg
		}
		return signature.Value{}, errors.New(fault)
	}
	if res.ExitCode != constants.ExitCodeSuccess {
		if msg := utils.TrimOutput(res.Stderr, constants.MaxCapturedStderr); msg != "" {
			return signature.Value{}, errors.New(msg)
		}
		return signature.Value{}, fmt.Errorf(constants.TestFaultMessageExitCode, res.ExitCode)
	}

	return signature.DecodeValue(bufio.NewReader(bytes.NewReader(res.Stdout)), p.sig.ReturnType)
}
