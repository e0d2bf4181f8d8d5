package compiler_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mini-maxit/judge-harness/internal/signature"
	. "github.com/mini-maxit/judge-harness/internal/stages/compiler"
	"github.com/mini-maxit/judge-harness/internal/stages/executor"
	customErr "github.com/mini-maxit/judge-harness/pkg/errors"
	"github.com/mini-maxit/judge-harness/pkg/languages"
	mocks "github.com/mini-maxit/judge-harness/tests/mocks"
	"go.uber.org/mock/gomock"
)

func typedSignature() signature.Signature {
	return signature.Signature{
		ClassName:  "Solution",
		MethodName: "twoSum",
		Params: []signature.Param{
			{Name: "nums", Type: signature.KindIntArray},
			{Name: "target", Type: signature.KindInt},
		},
		ReturnType: signature.KindIntArray,
		Convention: signature.ConventionTyped,
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestPrepareDriver_Cpp(t *testing.T) {
	dir := t.TempDir()
	c := NewCompiler(nil)

	if err := c.PrepareDriver(dir, languages.CPP, typedSignature()); err != nil {
		t.Fatalf("PrepareDriver failed: %v", err)
	}

	content := readFile(t, filepath.Join(dir, "driver.cpp"))
	for _, want := range []string{
		`#include "solution.cpp"`,
		"vector<int> arg0 = judge_driver::read_int_array();",
		"int arg1 = judge_driver::read_int();",
		"Solution instance;",
		"vector<int> result = instance.twoSum(arg0, arg1);",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("driver.cpp missing %q:\n%s", want, content)
		}
	}
}

func TestPrepareDriver_CppFreeFunction(t *testing.T) {
	dir := t.TempDir()
	c := NewCompiler(nil)

	if err := c.PrepareDriver(dir, languages.CPP, signature.Default()); err != nil {
		t.Fatalf("PrepareDriver failed: %v", err)
	}

	content := readFile(t, filepath.Join(dir, "driver.cpp"))
	if !strings.Contains(content, "int result = solution(arg0);") {
		t.Fatalf("expected free function call, got:\n%s", content)
	}
	if strings.Contains(content, "instance.") {
		t.Fatalf("did not expect class instance for free function:\n%s", content)
	}
}

func TestPrepareDriver_RedirectsSolutionOutputBeforeLoading(t *testing.T) {
	dir := t.TempDir()
	c := NewCompiler(nil)

	if err := c.PrepareDriver(dir, languages.CPP, signature.Default()); err != nil {
		t.Fatalf("PrepareDriver failed: %v", err)
	}
	cpp := readFile(t, filepath.Join(dir, "driver.cpp"))
	redirect := strings.Index(cpp, "dup2(STDERR_FILENO, STDOUT_FILENO)")
	include := strings.Index(cpp, `#include "solution.cpp"`)
	if redirect < 0 || redirect > include {
		t.Fatalf("expected stdout redirect before the solution include:\n%s", cpp)
	}
	if !strings.Contains(cpp, "judge_driver::send_reply(reply.str());") {
		t.Fatalf("expected reply on the saved descriptor:\n%s", cpp)
	}

	if err := c.PrepareDriver(dir, languages.PYTHON, signature.Default()); err != nil {
		t.Fatalf("PrepareDriver failed: %v", err)
	}
	py := readFile(t, filepath.Join(dir, "driver.py"))
	claim := strings.Index(py, "reply = _claim_reply_stream()")
	load := strings.Index(py, "namespace = _load()")
	if claim < 0 || load < 0 || claim > load {
		t.Fatalf("expected reply stream claimed before loading the solution:\n%s", py)
	}
}

func TestPrepareDriver_Python(t *testing.T) {
	dir := t.TempDir()
	c := NewCompiler(nil)

	if err := c.PrepareDriver(dir, languages.PYTHON, typedSignature()); err != nil {
		t.Fatalf("PrepareDriver failed: %v", err)
	}

	content := readFile(t, filepath.Join(dir, "driver.py"))
	for _, want := range []string{
		`CLASS_NAME = "Solution"`,
		`METHOD_NAME = "twoSum"`,
		`PARAM_KINDS = ["int[]", "int"]`,
		`RETURN_KIND = "int[]"`,
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("driver.py missing %q:\n%s", want, content)
		}
	}
}

func TestPrepareDriver_InvalidSignature(t *testing.T) {
	dir := t.TempDir()
	c := NewCompiler(nil)

	sig := typedSignature()
	sig.MethodName = "not valid"
	err := c.PrepareDriver(dir, languages.CPP, sig)
	if !errors.Is(err, customErr.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "driver.cpp")); !os.IsNotExist(statErr) {
		t.Fatalf("driver should not be written for an invalid signature")
	}
}

func TestBuild_CppSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockExec := mocks.NewMockExecutor(ctrl)
	mockExec.EXPECT().ExecuteCommand(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cmd executor.Command) (*executor.ExecutionResult, error) {
			want := "g++ -std=c++17 -O2 -o solution.bin driver.cpp"
			if got := strings.Join(cmd.Args, " "); got != want {
				t.Fatalf("unexpected compile command %q, want %q", got, want)
			}
			return &executor.ExecutionResult{ExitCode: 0}, nil
		},
	)

	c := NewCompiler([]string{"-O2"})
	artifact, err := c.Build(context.Background(), mockExec, languages.CPP, "17", "msg-1")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(artifact.Command) != 1 || artifact.Command[0] != "./solution.bin" {
		t.Fatalf("unexpected artifact command %v", artifact.Command)
	}
}

func TestBuild_CppCompilationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockExec := mocks.NewMockExecutor(ctrl)
	mockExec.EXPECT().ExecuteCommand(gomock.Any(), gomock.Any()).Return(&executor.ExecutionResult{
		ExitCode: 1,
		Stderr:   []byte("solution.cpp:3:1: error: expected ';'"),
	}, nil)

	c := NewCompiler(nil)
	_, err := c.Build(context.Background(), mockExec, languages.CPP, "17", "msg-1")

	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("expected *BuildError, got %v", err)
	}
	if !errors.Is(err, customErr.ErrCompilationFailed) {
		t.Fatalf("expected ErrCompilationFailed, got %v", err)
	}
	if !strings.Contains(buildErr.Output, "expected ';'") {
		t.Fatalf("expected compiler output in build error, got %q", buildErr.Output)
	}
}

func TestBuild_CppTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockExec := mocks.NewMockExecutor(ctrl)
	mockExec.EXPECT().ExecuteCommand(gomock.Any(), gomock.Any()).Return(&executor.ExecutionResult{
		ExitCode: 124,
		TimedOut: true,
	}, nil)

	c := NewCompiler(nil)
	_, err := c.Build(context.Background(), mockExec, languages.CPP, "17", "msg-1")
	if !errors.Is(err, customErr.ErrCompilationFailed) {
		t.Fatalf("expected ErrCompilationFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout in message, got %q", err.Error())
	}
}

func TestBuild_ExecutorFailureIsNotBuildError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockExec := mocks.NewMockExecutor(ctrl)
	mockExec.EXPECT().ExecuteCommand(gomock.Any(), gomock.Any()).Return(nil, errors.New("daemon gone"))

	c := NewCompiler(nil)
	_, err := c.Build(context.Background(), mockExec, languages.CPP, "17", "msg-1")

	var buildErr *BuildError
	if err == nil || errors.As(err, &buildErr) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}

func TestBuild_InvalidVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockExec := mocks.NewMockExecutor(ctrl)

	c := NewCompiler(nil)
	_, err := c.Build(context.Background(), mockExec, languages.CPP, "98", "msg-1")
	if !errors.Is(err, customErr.ErrInvalidVersion) {
		t.Fatalf("expected ErrInvalidVersion, got %v", err)
	}
}

func TestBuild_PythonSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockExec := mocks.NewMockExecutor(ctrl)
	gomock.InOrder(
		mockExec.EXPECT().ExecuteCommand(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, cmd executor.Command) (*executor.ExecutionResult, error) {
				if got := strings.Join(cmd.Args, " "); got != "python3 -m py_compile solution.py" {
					t.Fatalf("unexpected byte-compile command %q", got)
				}
				return &executor.ExecutionResult{}, nil
			},
		),
		mockExec.EXPECT().ExecuteCommand(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, cmd executor.Command) (*executor.ExecutionResult, error) {
				if got := strings.Join(cmd.Args, " "); got != "python3 driver.py --check" {
					t.Fatalf("unexpected check command %q", got)
				}
				return &executor.ExecutionResult{}, nil
			},
		),
	)

	c := NewCompiler(nil)
	artifact, err := c.Build(context.Background(), mockExec, languages.PYTHON, "3", "msg-1")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if strings.Join(artifact.Command, " ") != "python3 driver.py" {
		t.Fatalf("unexpected artifact command %v", artifact.Command)
	}
}

func TestBuild_PythonSyntaxError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockExec := mocks.NewMockExecutor(ctrl)
	mockExec.EXPECT().ExecuteCommand(gomock.Any(), gomock.Any()).Return(&executor.ExecutionResult{
		ExitCode: 1,
		Stderr:   []byte("SyntaxError: invalid syntax"),
	}, nil)

	c := NewCompiler(nil)
	_, err := c.Build(context.Background(), mockExec, languages.PYTHON, "3", "msg-1")
	if !errors.Is(err, customErr.ErrCompilationFailed) {
		t.Fatalf("expected ErrCompilationFailed, got %v", err)
	}
}

func TestBuild_PythonEntryPointMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockExec := mocks.NewMockExecutor(ctrl)
	gomock.InOrder(
		mockExec.EXPECT().ExecuteCommand(gomock.Any(), gomock.Any()).Return(&executor.ExecutionResult{}, nil),
		mockExec.EXPECT().ExecuteCommand(gomock.Any(), gomock.Any()).Return(&executor.ExecutionResult{
			ExitCode: 2,
			Stderr:   []byte("No function found in submitted code\n"),
		}, nil),
	)

	c := NewCompiler(nil)
	_, err := c.Build(context.Background(), mockExec, languages.PYTHON, "3", "msg-1")
	if !errors.Is(err, customErr.ErrEntryPointNotFound) {
		t.Fatalf("expected ErrEntryPointNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "No function found in submitted code") {
		t.Fatalf("expected driver diagnostic in error, got %q", err.Error())
	}
}

func TestBuildError_Message(t *testing.T) {
	err := &BuildError{Err: customErr.ErrCompilationFailed, Output: "boom"}
	if err.Error() != "compilation failed: boom" {
		t.Fatalf("unexpected message %q", err.Error())
	}

	bare := &BuildError{Err: customErr.ErrCompilationFailed}
	if bare.Error() != "compilation failed" {
		t.Fatalf("unexpected message %q", bare.Error())
	}
}
