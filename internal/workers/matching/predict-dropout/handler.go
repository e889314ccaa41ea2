// internal/workers/matching/predict-dropout/handler.go
package predictdropout

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	cerrors "internmatch-workers/internal/common/errors"
	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/engine"
)

const TaskType = "predict-dropout"

// Predictor is the slice of the engine facade this worker calls.
type Predictor interface {
	PredictDropoutProbability(ctx context.Context, candidateID, opportunityID, applicationID string) (*engine.DropoutResult, error)
}

type Handler struct {
	config    *Config
	predictor Predictor
	errors    *cerrors.ErrorHandler
	logger    logger.Logger
}

func NewHandler(config *Config, predictor Predictor, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		predictor: predictor,
		errors:    cerrors.NewErrorHandler(l),
		logger:    l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(ctx, client, job, cerrors.NewInvalidRequestError(err.Error()))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.CandidateID == "" || input.OpportunityID == "" {
		return nil, cerrors.NewInvalidRequestError("candidateId and opportunityId are required")
	}

	result, err := h.predictor.PredictDropoutProbability(ctx, input.CandidateID, input.OpportunityID, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("dropout risk estimated", map[string]interface{}{
		"candidateId":        input.CandidateID,
		"opportunityId":      input.OpportunityID,
		"dropoutProbability": result.DropoutProbability,
		"riskLevel":          result.RiskLevel,
	})

	return &Output{
		DropoutProbability: result.DropoutProbability,
		RiskLevel:          result.RiskLevel,
		Factors:            result.Factors,
		ModelProbability:   result.ModelProbability,
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
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
