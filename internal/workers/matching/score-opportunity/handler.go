// internal/workers/matching/score-opportunity/handler.go
package scoreopportunity

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	cerrors "internmatch-workers/internal/common/errors"
	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/engine"
)

const TaskType = "score-opportunity"

// Scorer is the slice of the engine facade this worker calls.
type Scorer interface {
	ScoreOpportunity(ctx context.Context, input engine.ScoreInput) (*engine.ScoreResult, error)
}

type Handler struct {
	config *Config
	scorer Scorer
	errors *cerrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, scorer Scorer, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		scorer: scorer,
		errors: cerrors.NewErrorHandler(l),
		logger: l,
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
	result, err := h.scorer.ScoreOpportunity(ctx, engine.ScoreInput{
		CandidateID:   input.CandidateID,
		Candidate:     input.Candidate,
		OpportunityID: input.OpportunityID,
		Opportunity:   input.Opportunity,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("match score computed", map[string]interface{}{
		"candidateId":   input.CandidateID,
		"opportunityId": input.OpportunityID,
		"matchScore":    result.MatchScore,
		"riskLevel":     result.RiskLevel,
	})

	return &Output{
		MatchScore:         result.MatchScore,
		Subscores:          result.Subscores,
		ExplainReasons:     result.ExplainReasons,
		DropoutProbability: result.DropoutProbability,
		RiskLevel:          result.RiskLevel,
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
