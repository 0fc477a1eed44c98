package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/estatevest/backend/internal/application/payout"
	"github.com/estatevest/backend/internal/infrastructure/logger"
	"github.com/estatevest/backend/internal/infrastructure/scheduler"
	"github.com/estatevest/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JobScheduler is the part of scheduler.Scheduler the ops endpoints use
type JobScheduler interface {
	Jobs() []scheduler.JobInfo
	Trigger(name string) (*payout.BatchResult, error)
}

// JobHandler lists the payout jobs and runs them on demand
type JobHandler struct {
	BaseHandler
	scheduler JobScheduler
}

// NewJobHandler creates a JobHandler
func NewJobHandler(s JobScheduler) *JobHandler {
	return &JobHandler{scheduler: s}
}

// List returns every registered job with its next and last run
func (h *JobHandler) List(c *gin.Context) {
	h.Success(c, h.scheduler.Jobs())
}

// Run executes a job synchronously and returns its batch result. The run
// is bound to the worker's lifetime rather than the request, so a client
// disconnect does not abort a batch midway.
func (h *JobHandler) Run(c *gin.Context) {
	name := c.Param("name")
	log := logger.GetGinLogger(c).With(zap.String("job", name))
	log.Info("Manual job run requested")

	result, err := h.scheduler.Trigger(name)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrJobNotFound):
			h.ErrorWithCode(c, dto.ErrCodeNotFound, fmt.Sprintf("job %q is not registered", name))
		case errors.Is(err, scheduler.ErrJobAlreadyRunning):
			h.ErrorWithCode(c, dto.ErrCodeJobRunning, fmt.Sprintf("job %q is already running", name))
		case errors.Is(err, scheduler.ErrSchedulerNotRunning):
			h.ErrorWithCode(c, dto.ErrCodeUnavailable, "scheduler is not running")
		case errors.Is(err, context.DeadlineExceeded):
			h.ErrorWithCode(c, dto.ErrCodeTimeout, fmt.Sprintf("job %q exceeded its timeout", name))
		default:
			log.Error("Manual job run failed", zap.Error(err))
			h.ErrorWithCode(c, dto.ErrCodeInternal, "job run failed")
		}
		return
	}
	h.Success(c, result)
}
