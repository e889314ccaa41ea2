// internal/workers/ml/train-models/handler.go
package trainmodels

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	cerrors "internmatch-workers/internal/common/errors"
	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/ml"
)

const TaskType = "train-models"

// Trainer is the slice of the engine facade this worker calls.
type Trainer interface {
	TrainModels(ctx context.Context) (*ml.Outcome, error)
}

type Handler struct {
	config  *Config
	trainer Trainer
	errors  *cerrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, trainer Trainer, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		trainer: trainer,
		errors:  cerrors.NewErrorHandler(l),
		logger:  l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context) (*Output, error) {
	outcome, err := h.trainer.TrainModels(ctx)
	if err != nil {
		return nil, err
	}

	if outcome.Skipped {
		h.logger.Warn("training run already in progress, skipping", nil)
		return &Output{Skipped: true}, nil
	}

	h.logger.Info("training run finished", map[string]interface{}{
		"matchTrained":     outcome.Match != nil,
		"attritionTrained": outcome.Attrition != nil,
	})

	return &Output{
		MatchModel:     outcome.Match,
		AttritionModel: outcome.Attrition,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

// Execute runs the worker logic without a job envelope.
func (h *Handler) Execute(ctx context.Context) (*Output, error) {
	return h.execute(ctx)
}
