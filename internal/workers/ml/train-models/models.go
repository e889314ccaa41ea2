// internal/workers/ml/train-models/models.go
package trainmodels

import "internmatch-workers/internal/models"

// Input is empty: a training run always covers both models.
type Input struct{}

type Output struct {
	Skipped        bool                   `json:"skipped"`
	MatchModel     *models.TrainingReport `json:"matchModel"`
	AttritionModel *models.TrainingReport `json:"attritionModel"`
}
