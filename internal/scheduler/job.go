package scheduler

import (
	"context"
	"time"
)

// historyLimit is how many results are kept per job
const historyLimit = 100

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job. The context is cancelled by Stop, by the
	// caller of RunJobSync, or when a TimedJob's timeout expires.
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression (with seconds)
	// Examples: "0 0 3 1 * *" (03:00 on the 1st of each month)
	//           "@monthly", "@weekly"
	Schedule() string
}

// TimedJob is a Job whose every attempt is bounded.
// A zero or negative timeout means unbounded.
type TimedJob interface {
	Job
	Timeout() time.Duration
}

// attemptContext derives the context of one attempt
func attemptContext(ctx context.Context, job Job) (context.Context, context.CancelFunc) {
	if tj, ok := job.(TimedJob); ok && tj.Timeout() > 0 {
		return context.WithTimeout(ctx, tj.Timeout())
	}
	return context.WithCancel(ctx)
}

// JobResult is the outcome of one scheduled or manual execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the latest results of one job, oldest first
type JobHistory struct {
	results []JobResult
}

// Add records a result, dropping the oldest beyond historyLimit
func (h *JobHistory) Add(result JobResult) {
	h.results = append(h.results, result)
	if len(h.results) > historyLimit {
		h.results = h.results[len(h.results)-historyLimit:]
	}
}

// Len returns the number of kept results
func (h *JobHistory) Len() int {
	return len(h.results)
}

// Latest returns up to n most recent results
func (h *JobHistory) Latest(n int) []JobResult {
	if n > len(h.results) {
		n = len(h.results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return h.results[len(h.results)-n:]
}

// Failures returns every kept failed result
func (h *JobHistory) Failures() []JobResult {
	failed := make([]JobResult, 0)
	for _, r := range h.results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// SuccessRate returns the kept success ratio (0.0 - 1.0)
func (h *JobHistory) SuccessRate() float64 {
	if len(h.results) == 0 {
		return 0.0
	}
	return float64(len(h.results)-len(h.Failures())) / float64(len(h.results))
}

// lastStart returns the start time of the newest result with the given
// outcome, nil when there is none
func (h *JobHistory) lastStart(success bool) *time.Time {
	for i := len(h.results) - 1; i >= 0; i-- {
		if h.results[i].Success == success {
			t := h.results[i].StartTime
			return &t
		}
	}
	return nil
}
