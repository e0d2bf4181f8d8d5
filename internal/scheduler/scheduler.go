package scheduler

import (
	"sort"
	"sync"

	"github.com/mini-maxit/judge-harness/internal/logger"
	"github.com/mini-maxit/judge-harness/internal/pipeline"
	"github.com/mini-maxit/judge-harness/pkg/constants"
	"github.com/mini-maxit/judge-harness/pkg/errors"
	"github.com/mini-maxit/judge-harness/pkg/messages"
	"go.uber.org/zap"
)

type Scheduler interface {
	GetWorkersStatus() messages.ResponseWorkerStatusPayload
	ProcessTask(responseQueueName, messageID string, task *messages.TaskQueueMessage) error
}

type scheduler struct {
	mu               sync.Mutex
	busyWorkersCount int
	workers          map[int]pipeline.Worker
	maxWorkers       int
	logger           *zap.SugaredLogger
}

func NewScheduler(maxWorkers int, settings pipeline.Settings, stages pipeline.Stages) Scheduler {
	workers := make(map[int]pipeline.Worker, maxWorkers)
	for i := 0; i < maxWorkers; i++ {
		workers[i] = pipeline.NewWorker(i, settings, stages)
	}

	return NewSchedulerWithWorkers(maxWorkers, workers)
}

// NewSchedulerWithWorkers builds a scheduler over an existing worker set.
func NewSchedulerWithWorkers(maxWorkers int, workers map[int]pipeline.Worker) Scheduler {
	return &scheduler{
		workers:    workers,
		maxWorkers: maxWorkers,
		logger:     logger.NewNamedLogger("scheduler"),
	}
}

func (s *scheduler) GetWorkersStatus() messages.ResponseWorkerStatusPayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]messages.WorkerStatus, 0, len(s.workers))
	for id, worker := range s.workers {
		status := messages.WorkerStatus{WorkerID: id, Status: worker.GetStatus()}
		if status.Status == constants.WorkerStatusBusy {
			status.ProcessingMessageID = worker.GetProcessingMessageID()
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].WorkerID < statuses[j].WorkerID })

	return messages.ResponseWorkerStatusPayload{
		BusyWorkers:  s.busyWorkersCount,
		TotalWorkers: s.maxWorkers,
		WorkerStatus: statuses,
	}
}

func (s *scheduler) getFreeWorker() (pipeline.Worker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, 0, len(s.workers))
	for id := range s.workers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		worker := s.workers[id]
		if worker.GetStatus() == constants.WorkerStatusIdle {
			worker.UpdateStatus(constants.WorkerStatusBusy)
			s.busyWorkersCount++
			return worker, nil
		}
	}

	return nil, errors.ErrFailedToGetFreeWorker
}

func (s *scheduler) ProcessTask(responseQueueName, messageID string, task *messages.TaskQueueMessage) error {
	s.logger.Infof("Processing task [MsgID: %s]", messageID)

	worker, err := s.getFreeWorker()
	if err != nil {
		s.logger.Infof("No available workers [MsgID: %s]", messageID)
		return err
	}

	go func(w pipeline.Worker) {
		defer s.markWorkerAsIdle(w)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Errorf("Worker %d panicked: %v [MsgID: %s]", w.GetId(), r, messageID)
			}
		}()

		w.ProcessTask(messageID, responseQueueName, task)
	}(worker)

	return nil
}

func (s *scheduler) markWorkerAsIdle(worker pipeline.Worker) {
	s.logger.Infof("Marking worker as idle [WorkerID: %d]", worker.GetId())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.busyWorkersCount--
	worker.UpdateStatus(constants.WorkerStatusIdle)
}
