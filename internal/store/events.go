// internal/store/events.go
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"internmatch-workers/internal/common/database"
	cerrors "internmatch-workers/internal/common/errors"
	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/models"
)

// EventSink appends structured engine events. The table is append-only;
// nothing in the engine updates or deletes rows.
type EventSink struct {
	db  *database.PostgresClient
	log logger.Logger
}

func NewEventSink(db *database.PostgresClient, log logger.Logger) *EventSink {
	return &EventSink{db: db, log: log}
}

// Append writes one event. Missing IDs and timestamps are filled in.
func (s *EventSink) Append(ctx context.Context, event models.EngineEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CorrelationID == "" {
		event.CorrelationID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return cerrors.NewDatabaseInsertFailedError(err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO engine_events (id, type, correlation_id, candidate_id, opportunity_id, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.Type, event.CorrelationID,
		nullable(event.CandidateID), nullable(event.OpportunityID),
		payload, event.CreatedAt,
	)
	if err != nil {
		return cerrors.NewDatabaseInsertFailedError(err)
	}

	s.log.Debug("Engine event appended", map[string]interface{}{
		"eventId":       event.ID,
		"type":          event.Type,
		"correlationId": event.CorrelationID,
	})
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
