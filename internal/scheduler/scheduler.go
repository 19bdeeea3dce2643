// Package scheduler runs analysis batch tasks through a small worker pool.
// The pool is deliberately narrow: accuracy of the external analysis matters
// more than throughput, so the default is three workers and conservative
// batch sizes.
package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"ledger-audit/internal/analysis"
	"ledger-audit/internal/auditerror"
	"ledger-audit/internal/logging"
	"ledger-audit/internal/models"
)

// Options tune the scheduler. Zero values fall back to the defaults.
type Options struct {
	Workers        int
	MaxRetries     int
	DequeueTimeout time.Duration
}

const (
	defaultWorkers        = 3
	defaultMaxRetries     = 3
	defaultDequeueTimeout = 5 * time.Second
)

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.DequeueTimeout <= 0 {
		o.DequeueTimeout = defaultDequeueTimeout
	}
	return o
}

// BatchScheduler owns the priority queue, the worker pool, and the result
// bookkeeping. Tasks that fail are retried with escalated priority up to
// their retry budget; tasks that come back UNCERTAIN are routed to the
// uncertain list and never retried.
type BatchScheduler struct {
	gateway analysis.AnalysisGateway
	logger  logging.Logger
	opts    Options

	mu       sync.Mutex
	cond     *sync.Cond
	queue    taskHeap
	seq      int64
	shutdown bool
	inFlight int

	results        map[string]models.BatchResult
	failedTasks    []*models.BatchTask
	uncertainTasks []string

	totalSubmitted int
	completed      int
	failed         int
	uncertain      int
	retried        int
	processingTime time.Duration
	startedAt      time.Time

	wg sync.WaitGroup
}

// CompletionStats is the outcome of a WaitForCompletion call.
type CompletionStats struct {
	TotalTasks          int           `json:"total_tasks"`
	Completed           int           `json:"completed"`
	Failed              int           `json:"failed"`
	Uncertain           int           `json:"uncertain"`
	Retried             int           `json:"retried"`
	TotalProcessingTime time.Duration `json:"total_processing_time"`
	AvgProcessingTime   time.Duration `json:"avg_processing_time"`
	ThroughputPerMin    float64       `json:"throughput_per_min"`
	SuccessRate         float64       `json:"success_rate"`
	UncertaintyRate     float64       `json:"uncertainty_rate"`
	TimeoutReached      bool          `json:"timeout_reached"`
}

// New builds a scheduler over a gateway. Start must be called before tasks
// are processed.
func New(gateway analysis.AnalysisGateway, opts Options, logger logging.Logger) *BatchScheduler {
	s := &BatchScheduler{
		gateway: gateway,
		logger:  logger,
		opts:    opts.withDefaults(),
		results: make(map[string]models.BatchResult),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Start launches the worker pool.
func (s *BatchScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.startedAt = time.Now()
	s.mu.Unlock()

	for i := 0; i < s.opts.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	s.logger.Info("Scheduler started",
		logging.Field{Key: logging.FieldCount, Value: s.opts.Workers})
}

// Submit queues one task. Submitting after shutdown is rejected.
func (s *BatchScheduler) Submit(task *models.BatchTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return fmt.Errorf("scheduler is shut down")
	}
	if task.MaxRetries == 0 {
		task.MaxRetries = s.opts.MaxRetries
	}
	task.Status = models.StatusPending
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	s.seq++
	heap.Push(&s.queue, &queueItem{task: task, seq: s.seq})
	s.totalSubmitted++
	s.cond.Signal()

	s.logger.Debug("Task submitted",
		logging.Field{Key: logging.FieldTaskID, Value: task.ID},
		logging.Field{Key: logging.FieldPriority, Value: task.Priority.String()})
	return nil
}

// requeue puts a retried task back with its escalated priority.
func (s *BatchScheduler) requeue(task *models.BatchTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		// Lost retries surface as permanent failures at shutdown.
		s.failedTasks = append(s.failedTasks, task)
		s.failed++
		return
	}
	task.Status = models.StatusPending
	s.seq++
	heap.Push(&s.queue, &queueItem{task: task, seq: s.seq})
	s.retried++
	s.cond.Signal()
}

// dequeue blocks for up to the dequeue timeout waiting for a task. It
// returns nil with false when the scheduler is shutting down, nil with true
// on a bare timeout.
func (s *BatchScheduler) dequeue() (*models.BatchTask, bool) {
	deadline := time.Now().Add(s.opts.DequeueTimeout)
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.queue) == 0 {
		if s.shutdown {
			return nil, false
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, true
		}
		timer := time.AfterFunc(remaining, func() {
			s.cond.Broadcast()
		})
		s.cond.Wait()
		timer.Stop()
	}
	if s.shutdown {
		return nil, false
	}

	item := heap.Pop(&s.queue).(*queueItem)
	item.task.Status = models.StatusProcessing
	s.inFlight++
	return item.task, true
}

func (s *BatchScheduler) worker(ctx context.Context, id int) {
	defer s.wg.Done()
	log := s.logger.WithField("worker", id)

	for {
		task, ok := s.dequeue()
		if task == nil {
			if !ok {
				log.Debug("Worker stopping")
				return
			}
			continue
		}
		s.execute(ctx, task, log)

		s.mu.Lock()
		stop := s.shutdown
		s.inFlight--
		s.mu.Unlock()
		if stop {
			log.Debug("Worker stopping after task")
			return
		}
	}
}

// execute runs one task against the gateway and files the outcome.
func (s *BatchScheduler) execute(ctx context.Context, task *models.BatchTask, log logging.Logger) {
	start := time.Now()
	resp := s.dispatch(ctx, task)
	elapsed := time.Since(start)

	if !resp.Success {
		if task.RetryCount < task.MaxRetries {
			task.RetryCount++
			task.Priority = task.Priority.Escalate()
			log.Warn("Task failed, retrying with escalated priority",
				logging.Field{Key: logging.FieldTaskID, Value: task.ID},
				logging.Field{Key: logging.FieldPriority, Value: task.Priority.String()},
				logging.Field{Key: logging.FieldReason, Value: resp.ErrorMessage})
			s.requeue(task)
			return
		}

		task.Status = models.StatusFailed
		taskErr := &auditerror.TaskError{
			TaskID:   task.ID,
			TaskType: task.Type,
			Attempts: task.RetryCount + 1,
			Err:      fmt.Errorf("%s", resp.ErrorMessage),
		}
		log.WithError(taskErr).Error("Task failed permanently",
			logging.Field{Key: logging.FieldTaskID, Value: task.ID})

		s.mu.Lock()
		s.failedTasks = append(s.failedTasks, task)
		s.failed++
		s.processingTime += elapsed
		s.results[task.ID] = models.BatchResult{
			TaskID:         task.ID,
			Status:         models.StatusFailed,
			Confidence:     string(resp.Confidence),
			ErrorMessage:   resp.ErrorMessage,
			ProcessingTime: elapsed,
			CompletedAt:    time.Now(),
		}
		s.mu.Unlock()
		return
	}

	status := models.StatusCompleted
	if resp.Confidence == analysis.ConfidenceUncertain {
		// Retrying would not make the answer more certain.
		status = models.StatusUncertain
	}
	task.Status = status

	s.mu.Lock()
	if status == models.StatusUncertain {
		s.uncertainTasks = append(s.uncertainTasks, task.ID)
		s.uncertain++
	} else {
		s.completed++
	}
	s.processingTime += elapsed
	s.results[task.ID] = models.BatchResult{
		TaskID:         task.ID,
		Status:         status,
		Result:         resp.Result,
		Confidence:     string(resp.Confidence),
		UncertainItems: resp.UncertainItems,
		ProcessingTime: elapsed,
		CompletedAt:    time.Now(),
	}
	s.mu.Unlock()

	log.Debug("Task finished",
		logging.Field{Key: logging.FieldTaskID, Value: task.ID},
		logging.Field{Key: logging.FieldStatus, Value: string(status)},
		logging.Field{Key: logging.FieldDuration, Value: elapsed.Milliseconds()})
}

// dispatch routes a task to the matching gateway call based on its type and
// payload. An unknown type or malformed payload is a non-retryable shape
// problem reported as a failed response.
func (s *BatchScheduler) dispatch(ctx context.Context, task *models.BatchTask) analysis.Response {
	switch task.Type {
	case analysis.TaskAnalyzePatterns:
		figures, ok := task.Payload["figures"].(models.MonthlyFigures)
		if !ok {
			return analysis.Response{Success: false, Confidence: analysis.ConfidenceUncertain,
				ErrorMessage: "task payload missing monthly figures"}
		}
		return s.gateway.AnalyzePatterns(ctx, task.AccountCode, task.Classification, figures)

	case analysis.TaskVerifyVAT:
		transactions, ok := task.Payload["transactions"].([]analysis.VATTransaction)
		if !ok {
			return analysis.Response{Success: false, Confidence: analysis.ConfidenceUncertain,
				ErrorMessage: "task payload missing transactions"}
		}
		return s.gateway.VerifyVAT(ctx, transactions)

	case analysis.TaskDetectAnomalies:
		processed, ok1 := task.Payload["processed"].(models.FigureSet)
		original, ok2 := task.Payload["original"].(models.FigureSet)
		if !ok1 || !ok2 {
			return analysis.Response{Success: false, Confidence: analysis.ConfidenceUncertain,
				ErrorMessage: "task payload missing figure sets"}
		}
		return s.gateway.DetectAnomalies(ctx, processed, original)

	default:
		return analysis.Response{Success: false, Confidence: analysis.ConfidenceUncertain,
			ErrorMessage: fmt.Sprintf("unknown task type %q", task.Type)}
	}
}

// WaitForCompletion blocks until the queue drains and workers go idle, or
// the timeout elapses. The TimeoutReached flag on the returned stats is the
// authoritative signal; callers must not infer timeouts from counters.
func (s *BatchScheduler) WaitForCompletion(timeout time.Duration) CompletionStats {
	deadline := time.Now().Add(timeout)
	timedOut := false

	for {
		s.mu.Lock()
		idle := len(s.queue) == 0 && s.inFlight == 0
		s.mu.Unlock()
		if idle {
			break
		}
		if time.Now().After(deadline) {
			timedOut = true
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	stats := s.Stats()
	stats.TimeoutReached = timedOut
	if timedOut {
		s.logger.Warn("Batch completion wait timed out",
			logging.Field{Key: logging.FieldCount, Value: stats.TotalTasks - stats.Completed - stats.Failed - stats.Uncertain})
	}
	return stats
}

// Stats snapshots the scheduler counters.
func (s *BatchScheduler) Stats() CompletionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	finished := s.completed + s.failed + s.uncertain
	stats := CompletionStats{
		TotalTasks:          s.totalSubmitted,
		Completed:           s.completed,
		Failed:              s.failed,
		Uncertain:           s.uncertain,
		Retried:             s.retried,
		TotalProcessingTime: s.processingTime,
	}
	if finished > 0 {
		stats.AvgProcessingTime = s.processingTime / time.Duration(finished)
		stats.SuccessRate = float64(s.completed) / float64(finished)
		stats.UncertaintyRate = float64(s.uncertain) / float64(finished)
	}
	if !s.startedAt.IsZero() {
		elapsed := time.Since(s.startedAt).Minutes()
		if elapsed > 0 {
			stats.ThroughputPerMin = float64(finished) / elapsed
		}
	}
	return stats
}

// Result returns the recorded outcome for a task ID.
func (s *BatchScheduler) Result(taskID string) (models.BatchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[taskID]
	return r, ok
}

// Results returns a copy of all recorded outcomes.
func (s *BatchScheduler) Results() map[string]models.BatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]models.BatchResult, len(s.results))
	for k, v := range s.results {
		out[k] = v
	}
	return out
}

// FailedTasks returns the tasks that exhausted their retries.
func (s *BatchScheduler) FailedTasks() []*models.BatchTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.BatchTask, len(s.failedTasks))
	copy(out, s.failedTasks)
	return out
}

// UncertainTasks returns the IDs of tasks that completed UNCERTAIN.
func (s *BatchScheduler) UncertainTasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.uncertainTasks))
	copy(out, s.uncertainTasks)
	return out
}

// Shutdown stops the workers and waits for in-flight tasks to finish. The
// flag is observed between tasks, never mid-call.
func (s *BatchScheduler) Shutdown() {
	s.mu.Lock()
	s.shutdown = true
	s.cond.Broadcast()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}
