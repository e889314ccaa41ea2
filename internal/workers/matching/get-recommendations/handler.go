// internal/workers/matching/get-recommendations/handler.go
package getrecommendations

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	cerrors "internmatch-workers/internal/common/errors"
	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/recommend"
)

const TaskType = "get-recommendations"

// Recommender is the slice of the engine facade this worker calls.
type Recommender interface {
	GetTopKRecommendations(ctx context.Context, candidateID string, limit int, forceRefresh bool) ([]recommend.Recommendation, error)
}

type Handler struct {
	config      *Config
	recommender Recommender
	errors      *cerrors.ErrorHandler
	logger      logger.Logger
}

func NewHandler(config *Config, recommender Recommender, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		recommender: recommender,
		errors:      cerrors.NewErrorHandler(l),
		logger:      l,
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
	if input.CandidateID == "" {
		return nil, cerrors.NewInvalidRequestError("candidateId is required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = h.config.DefaultLimit
	}

	recs, err := h.recommender.GetTopKRecommendations(ctx, input.CandidateID, limit, input.ForceRefresh)
	if err != nil {
		return nil, err
	}

	h.logger.Info("recommendations generated", map[string]interface{}{
		"candidateId":  input.CandidateID,
		"count":        len(recs),
		"forceRefresh": input.ForceRefresh,
	})

	return &Output{
		CandidateID:     input.CandidateID,
		Recommendations: recs,
		Count:           len(recs),
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
