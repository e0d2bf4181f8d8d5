package errors

import "errors"

// Error messages.
var (
	ErrInvalidLanguageType    = errors.New("invalid language type")
	ErrInvalidVersion         = errors.New("invalid version supplied")
	ErrFailedToGetFreeWorker  = errors.New("failed to get free worker")
	ErrUnknownMessageType     = errors.New("unknown message type")
	ErrCompilationFailed      = errors.New("compilation failed")
	ErrEntryPointNotFound     = errors.New("solution entry point not found")
	ErrCorpusLoadFailed       = errors.New("failed to load test cases")
	ErrInvalidSignature       = errors.New("invalid solution signature")
	ErrUnsupportedKind        = errors.New("unsupported value kind")
	ErrInvalidExecutionMode   = errors.New("invalid execution mode")
	ErrJudgeTimeout           = errors.New("judge run timed out")
	ErrEmptySourceCode        = errors.New("source code is empty")
	ErrResultNotFound         = errors.New("result not found or expired")
	ErrResultStoreUnavailable = errors.New("result store is not configured")
	ErrMalformedSolutionReply = errors.New("malformed solution reply")
	ErrResponderClosed        = errors.New("responder is closed")
	ErrInvalidConfig          = errors.New("invalid configuration")
)
