package messages

import (
	"encoding/json"

	"github.com/mini-maxit/judge-harness/pkg/constants"
	"github.com/mini-maxit/judge-harness/pkg/languages"
	"github.com/mini-maxit/judge-harness/pkg/verdict"
)

type QueueMessage struct {
	Type      string          `json:"type"`
	MessageID string          `json:"message_id"`
	Payload   json.RawMessage `json:"payload"`
}

// TaskQueueMessage carries one submission to judge.
// TestCases is the raw corpus document; Signature is optional problem
// metadata in JSON or YAML form.
type TaskQueueMessage struct {
	LanguageType    string          `json:"language_type"`
	LanguageVersion string          `json:"language_version"`
	SourceCode      string          `json:"source_code"`
	TestCases       json.RawMessage `json:"test_cases"`
	Signature       json.RawMessage `json:"signature,omitempty"`
	TimeLimitMs     int             `json:"time_limit_ms,omitempty"`
}

// ResultQueryMessage asks for the stored result of an earlier task.
type ResultQueryMessage struct {
	TaskMessageID string `json:"task_message_id"`
}

type ResponseQueueMessage struct {
	Type      string          `json:"type"`
	MessageID string          `json:"message_id"`
	Ok        bool            `json:"ok"`
	Payload   json.RawMessage `json:"payload"`
}

// TaskResultPayload is the success payload of a task response.
type TaskResultPayload struct {
	verdict.Report
	Summary verdict.Summary `json:"summary"`
}

func NewTaskResultPayload(report verdict.Report) TaskResultPayload {
	return TaskResultPayload{
		Report:  report,
		Summary: verdict.NewSummary(report),
	}
}

type WorkerStatus struct {
	WorkerID            int                    `json:"worker_id"`
	Status              constants.WorkerStatus `json:"status"`
	ProcessingMessageID string                 `json:"processing_message_id"`
}

type ResponseWorkerStatusPayload struct {
	BusyWorkers  int            `json:"busy_workers"`
	TotalWorkers int            `json:"total_workers"`
	WorkerStatus []WorkerStatus `json:"worker_status"`
}

type ResponseHandshakePayload struct {
	Languages []languages.LanguageSpec `json:"languages"`
}

type ResponseErrorPayload struct {
	Error string `json:"error"`
}
