package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mini-maxit/judge-harness/internal/corpus"
	"github.com/mini-maxit/judge-harness/internal/entrypoint"
	"github.com/mini-maxit/judge-harness/internal/judge"
	"github.com/mini-maxit/judge-harness/internal/logger"
	"github.com/mini-maxit/judge-harness/internal/rabbitmq/responder"
	"github.com/mini-maxit/judge-harness/internal/resultstore"
	"github.com/mini-maxit/judge-harness/internal/signature"
	"github.com/mini-maxit/judge-harness/internal/stages/compiler"
	"github.com/mini-maxit/judge-harness/internal/stages/executor"
	"github.com/mini-maxit/judge-harness/internal/stages/packager"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	customErr "github.com/mini-maxit/judge-harness/pkg/errors"
	"github.com/mini-maxit/judge-harness/pkg/languages"
	"github.com/mini-maxit/judge-harness/pkg/messages"
	"go.uber.org/zap"
)

const storeTimeout = 5 * time.Second

type Worker interface {
	ProcessTask(messageID, responseQueue string, task *messages.TaskQueueMessage)
	GetStatus() constants.WorkerStatus
	UpdateStatus(status constants.WorkerStatus)
	GetProcessingMessageID() string
	GetId() int
}

type WorkerState struct {
	Status              constants.WorkerStatus `json:"status"`
	ProcessingMessageID string                 `json:"processing_message_id"`
}

// Settings bound a single judge run.
type Settings struct {
	JudgeTimeout time.Duration
	// RunTimeLimit is the default per-invocation limit, zero for none.
	RunTimeLimit time.Duration
}

// Stages groups the collaborators a worker drives for every task.
type Stages struct {
	Compiler  compiler.Compiler
	Packager  packager.Packager
	Executors executor.Factory
	Engine    judge.Engine
	Responder responder.Responder
	// Store is optional.
	Store resultstore.Store
}

type worker struct {
	id       int
	mu       sync.RWMutex
	state    WorkerState
	settings Settings
	stages   Stages
	logger   *zap.SugaredLogger
}

func NewWorker(id int, settings Settings, stages Stages) Worker {
	logger := logger.NewNamedLogger(fmt.Sprintf("worker-%d", id))

	return &worker{
		id:       id,
		state:    WorkerState{Status: constants.WorkerStatusIdle},
		settings: settings,
		stages:   stages,
		logger:   logger,
	}
}

func (ws *worker) GetId() int {
	return ws.id
}

func (ws *worker) GetStatus() constants.WorkerStatus {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.state.Status
}

func (ws *worker) UpdateStatus(status constants.WorkerStatus) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.state.Status = status
}

func (ws *worker) GetProcessingMessageID() string {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.state.ProcessingMessageID
}

func (ws *worker) setProcessingMessageID(messageID string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.state.ProcessingMessageID = messageID
}

func (ws *worker) ProcessTask(messageID, responseQueue string, task *messages.TaskQueueMessage) {
	publishErr := func(err error) {
		ws.stages.Responder.PublishErrorToResponseQueue(constants.QueueMessageTypeTask, messageID, responseQueue, err)
	}

	defer func() {
		if r := recover(); r != nil {
			ws.logger.Errorf("Recovered from panic: %v [MsgID: %s]", r, messageID)
			publishErr(fmt.Errorf("internal error: %v", r))
		}
	}()

	ws.logger.Infof("Processing task [MsgID: %s]", messageID)
	ws.setProcessingMessageID(messageID)
	defer ws.setProcessingMessageID("")

	langType, err := languages.ParseLanguageType(task.LanguageType)
	if err != nil {
		ws.logger.Errorf("Invalid language type %s: %s [MsgID: %s]", task.LanguageType, err, messageID)
		publishErr(err)
		return
	}
	langVersion := task.LanguageVersion
	if langVersion == "" {
		langVersion = languages.DefaultVersion(langType)
	}

	workspace, err := ws.stages.Packager.PrepareWorkspace(task, langType, messageID)
	if err != nil {
		publishErr(err)
		return
	}
	defer func() {
		if err := workspace.Cleanup(); err != nil {
			ws.logger.Errorf("Failed to remove workspace: %s [MsgID: %s]", err, messageID)
		}
	}()

	sig, err := signature.Load(workspace.SignaturePath)
	if err != nil {
		ws.logger.Errorf("Invalid signature: %s [MsgID: %s]", err, messageID)
		publishErr(err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), ws.settings.JudgeTimeout)
	defer cancel()

	cases, loadErr := corpus.LoadFile(workspace.TestCasesPath)

	var entry entrypoint.EntryPoint
	if loadErr == nil {
		var exec executor.Executor
		exec, entry, err = ws.buildEntryPoint(ctx, workspace, langType, langVersion, sig, task, messageID)
		if exec != nil {
			defer func() {
				if err := exec.Close(); err != nil {
					ws.logger.Errorf("Failed to close executor: %s [MsgID: %s]", err, messageID)
				}
			}()
		}
		var buildErr *compiler.BuildError
		switch {
		case errors.As(err, &buildErr):
			loadErr = buildErr
		case err != nil:
			publishErr(ws.timeoutOr(ctx, err))
			return
		}
	}

	report := ws.stages.Engine.Judge(ctx, cases, entry, loadErr)
	if ctx.Err() != nil {
		ws.logger.Errorf("Judge run exceeded %s [MsgID: %s]", ws.settings.JudgeTimeout, messageID)
		publishErr(customErr.ErrJudgeTimeout)
		return
	}

	payload := messages.NewTaskResultPayload(report)
	ws.storeResult(messageID, payload)

	ws.stages.Responder.PublishPayloadTaskRespond(constants.QueueMessageTypeTask, messageID, responseQueue, payload)
	ws.logger.Infof("Finished processing task: %d/%d passed [MsgID: %s]", report.Passed, report.TotalTests, messageID)
}

// buildEntryPoint opens an executor on the workspace and builds the solution.
// A *compiler.BuildError means the submission is at fault; the returned
// executor must be closed by the caller whenever it is non-nil.
func (ws *worker) buildEntryPoint(
	ctx context.Context,
	workspace *packager.Workspace,
	langType languages.LanguageType,
	langVersion string,
	sig signature.Signature,
	task *messages.TaskQueueMessage,
	messageID string,
) (executor.Executor, entrypoint.EntryPoint, error) {
	if err := ws.stages.Compiler.PrepareDriver(workspace.DirPath, langType, sig); err != nil {
		return nil, nil, err
	}

	exec, err := ws.stages.Executors.NewExecutor(ctx, executor.SessionConfig{
		MessageID:       messageID,
		WorkspaceDir:    workspace.DirPath,
		LanguageType:    langType,
		LanguageVersion: langVersion,
	})
	if err != nil {
		return nil, nil, err
	}

	artifact, err := ws.stages.Compiler.Build(ctx, exec, langType, langVersion, messageID)
	if err != nil {
		return exec, nil, err
	}

	timeLimit := ws.settings.RunTimeLimit
	if task.TimeLimitMs > 0 {
		timeLimit = time.Duration(task.TimeLimitMs) * time.Millisecond
	}
	return exec, entrypoint.NewProcess(sig, exec, artifact.Command, timeLimit), nil
}

func (ws *worker) timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return customErr.ErrJudgeTimeout
	}
	return err
}

func (ws *worker) storeResult(messageID string, payload messages.TaskResultPayload) {
	if ws.stages.Store == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		ws.logger.Errorf("Failed to marshal result: %s [MsgID: %s]", err, messageID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := ws.stages.Store.Save(ctx, messageID, body); err != nil {
		ws.logger.Errorf("Failed to store result: %s [MsgID: %s]", err, messageID)
	}
}
