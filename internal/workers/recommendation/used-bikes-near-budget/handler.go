// internal/workers/recommendation/used-bikes-near-budget/handler.go
package usedbikesnearbudget

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"bike-recommender/internal/common/errors"
	"bike-recommender/internal/common/logger"
	"bike-recommender/internal/common/metrics"
	"bike-recommender/internal/common/observability"
	"bike-recommender/internal/common/validation"
	"bike-recommender/internal/recommendation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "recommend-used-bikes-budget"

type Recommender interface {
	NearBudget(ctx context.Context, budget float64, limit int) ([]recommendation.BudgetResult, error)
	DefaultLimit() int
}

type Handler struct {
	config     *Config
	engine     Recommender
	validator  *validation.Validator
	errHandler *errors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
}

func NewHandler(config *Config, engine Recommender, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		engine:     engine,
		validator:  validation.MustValidator(validation.BudgetInputSchema),
		errHandler: errors.NewErrorHandler(log),
		obs:        obs,
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.process(ctx, job)
	if err != nil {
		code := errors.AsStandardError(err).Code
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

func (h *Handler) process(ctx context.Context, job entities.Job) (*Output, error) {
	input, err := h.ParseInput(job.Variables)
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, input)
}

// ParseInput validates the job variables. A missing or non-numeric budget
// is reported as INVALID_BUDGET so the process can route on it.
func (h *Handler) ParseInput(variables string) (*Input, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return nil, errors.NewParseError(err)
	}

	result, err := h.validator.Validate(raw)
	if err != nil {
		return nil, errors.NewParseError(err)
	}
	if !result.Valid {
		details := strings.Join(result.GetErrorMessages(), "; ")
		if result.HasErrors("budget") {
			return nil, errors.NewInvalidBudgetError(details)
		}
		return nil, errors.NewInvalidInputError(details)
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewParseError(err)
	}
	return &input, nil
}

// Execute runs the near-budget query. Non-positive budgets complete with an
// empty list.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	limit := h.engine.DefaultLimit()
	if input.Limit != nil {
		limit = *input.Limit
	}

	results, err := h.engine.NearBudget(ctx, input.Budget, limit)
	if err != nil {
		return nil, err
	}

	h.logger.Info("used bikes recommended", map[string]interface{}{
		"budget": input.Budget,
		"count":  len(results),
	})
	return &Output{Recommendations: results, Count: len(results)}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
	}
}
