package constants

import "fmt"

// Queue message types.
const (
	QueueMessageTypeTask      = "task"
	QueueMessageTypeHandshake = "handshake"
	QueueMessageTypeStatus    = "status"
	QueueMessageTypeResult    = "result"
)

// Summary statuses.
const (
	SummaryStatusAccepted = "accepted"
	SummaryStatusRejected = "rejected"
	SummaryStatusError    = "error"
	SummaryDetailPass     = "PASS"
	SummaryDetailFail     = "FAIL"
)

// Fault messages recorded on a single test outcome.
const (
	TestFaultMessagePanic       = "solution panicked: %v"
	TestFaultMessageExitCode    = "solution exited with code %d"
	TestFaultMessageSignal      = "solution killed by signal %s"
	TestFaultMessageTimeout     = "solution timed out after %d ms"
	TestFaultMessageArity       = "expected %d arguments, got %d"
	TestFaultMessageNotInteger  = "invalid integer %q"
	TestFaultMessageUnavailable = "solution entry point is unavailable"
)

// Worker specific constants.
type WorkerStatus int

const (
	WorkerStatusIdle WorkerStatus = iota
	WorkerStatusBusy
)

func (ws WorkerStatus) String() string {
	switch ws {
	case WorkerStatusIdle:
		return "idle"
	case WorkerStatusBusy:
		return "busy"
	default:
		return "unknown"
	}
}

func (ws WorkerStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + ws.String() + `"`), nil
}

func (ws *WorkerStatus) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"idle"`:
		*ws = WorkerStatusIdle
	case `"busy"`:
		*ws = WorkerStatusBusy
	default:
		return fmt.Errorf("unknown worker status %s", data)
	}
	return nil
}

// Exit codes.
const (
	ExitCodeSuccess           = 0
	ExitCodeEntryPointMissing = 2
	ExitCodeTimeLimitExceeded = 124
	ExitCodeSignalBase        = 128
)

// Configuration constants.
const (
	DefaultRabbitmqHost            = "localhost"
	DefaultRabbitmqUser            = "guest"
	DefaultRabbitmqPassword        = "guest"
	DefaultRabbitmqPort            = "5672"
	DefaultWorkerQueueName         = "judge_queue"
	DefaultRabbitmqPublishChanSize = 100
	DefaultMaxWorkers              = 4
	DefaultExecutionMode           = "host"
	DefaultJudgeTimeoutSec         = 30
	DefaultRunTimeLimitMs          = 0
	DefaultWorkspaceRoot           = "/tmp/judge"
	DefaultResultTTLSec            = 170
	DefaultRedisDB                 = 0
	DefaultLanguageType            = "cpp"
	DefaultCppCompileFlags         = "-O2"
	DefaultHarnessTestsFile        = "/app/testCases.json"
	DefaultHarnessSourceDir        = "/app"
)

// Execution modes.
const (
	ExecutionModeHost   = "host"
	ExecutionModeDocker = "docker"
)

// Workspace layout.
const (
	TestCasesFileName     = "testCases.json"
	SignatureFileName     = "signature.yaml"
	SolutionFileBaseName  = "solution"
	DriverFileBaseName    = "driver"
	ExecutableFileName    = "solution.bin"
	ContainerWorkDir      = "/sandbox"
	ContainerTmpfsOptions = "rw,exec,size=64m"
	ResultKeyPrefix       = "judge:result:"
)

// Docker execution constants.
const (
	ContainerMemoryBytes int64 = 512 * 1024 * 1024
	ContainerPidsLimit   int64 = 64
	ContainerCPUPeriod   int64 = 100_000
	ContainerCPUQuota    int64 = 50_000
	ContainerNamePrefix        = "judge-"
	MaxCapturedStderr          = 4 * 1024
)

// RabbitMQ specific constants.
const (
	RabbitMQReconnectTries  = 10
	RabbitMQMaxPriority     = 3
	RabbitMQRequeuePriority = 2
)
