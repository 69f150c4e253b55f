package ancform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/anc/internal/domain/emergency"
	"github.com/ehr/anc/internal/domain/obstetrics"
	"github.com/ehr/anc/internal/platform/websocket"
)

// Session feed event types.
const (
	EventSessionUpdated   = "anc_session.updated"
	EventSessionSubmitted = "anc_session.submitted"
	EventSessionDiscarded = "anc_session.discarded"
)

// EventPublisher receives session feed events. *websocket.Hub implements it.
type EventPublisher interface {
	Publish(ctx context.Context, event websocket.Event) error
}

// SessionTopic is the feed topic followers of one draft subscribe to.
func SessionTopic(id uuid.UUID) string {
	return "anc_session:" + id.String()
}

// HistoryStore loads and persists a patient's prior pregnancies.
type HistoryStore interface {
	LoadHistory(ctx context.Context, patientID uuid.UUID) (*obstetrics.History, error)
	SaveHistory(ctx context.Context, patientID uuid.UUID, h *obstetrics.History) error
}

// AssessmentRecorder persists the final danger-sign assessment.
type AssessmentRecorder interface {
	RecordAssessment(ctx context.Context, patientID uuid.UUID, sessionID *uuid.UUID, a *emergency.Assessment, recordedBy string) (*emergency.AssessmentRecord, error)
}

// TxRunner runs fn in a single database transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	runTx       TxRunner
	events      EventPublisher
	drafts      DraftStore
	history     HistoryStore
	assessments AssessmentRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

func NewService(drafts DraftStore, history HistoryStore, assessments AssessmentRecorder, logger zerolog.Logger) *Service {
	return &Service{
		runTx:       func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) },
		drafts:      drafts,
		history:     history,
		assessments: assessments,
		logger:      logger.With().Str("component", "anc_session").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// StartSession opens a draft seeded with the patient's stored history.
func (s *Service) StartSession(ctx context.Context, patientID uuid.UUID) (*Session, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id is required", ErrInvalidValue)
	}
	h, err := s.history.LoadHistory(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load pregnancy history: %w", err)
	}
	sess := NewSession(patientID, h, s.now())
	if err := s.drafts.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("patient_id", patientID.String()).
		Int("previous_pregnancies", h.Count).
		Msg("anc session started")
	return sess, nil
}

// SetPublisher streams session changes to followers of the draft.
func (s *Service) SetPublisher(p EventPublisher) {
	s.events = p
}

func (s *Service) publish(ctx context.Context, eventType string, id uuid.UUID, data interface{}) {
	if s.events == nil {
		return
	}
	ev, err := websocket.NewEvent(eventType, SessionTopic(id), data)
	if err == nil {
		err = s.events.Publish(ctx, ev)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", id.String()).Str("event", eventType).Msg("failed to publish session event")
	}
}

// SetTxRunner makes submissions write the history and the assessment in one
// transaction.
func (s *Service) SetTxRunner(run TxRunner) {
	s.runTx = run
}

func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.drafts.Get(ctx, id)
}

// ApplyChanges applies a batch to the draft. A rejected batch leaves the
// stored draft untouched. Batches from concurrent clients are applied one
// after the other, never over a stale copy.
func (s *Service) ApplyChanges(ctx context.Context, id uuid.UUID, changes []FieldChange) (*Session, error) {
	sess, err := s.drafts.Update(ctx, id, func(sess *Session) error {
		if err := sess.Apply(changes); err != nil {
			return err
		}
		sess.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDraftConflict) {
			s.logger.Warn().Str("session_id", id.String()).Msg("anc change batch gave up after repeated conflicts")
		} else {
			s.logger.Debug().Err(err).Str("session_id", id.String()).Msg("anc change batch rejected")
		}
		return nil, err
	}
	s.publish(ctx, EventSessionUpdated, id, sess.View())
	return sess, nil
}

// SubmitResult summarises what a submission stored.
type SubmitResult struct {
	SessionID           uuid.UUID                   `json:"session_id"`
	PatientID           uuid.UUID                   `json:"patient_id"`
	PreviousPregnancies int                         `json:"previous_pregnancies"`
	Assessment          *emergency.AssessmentRecord `json:"danger_sign_assessment"`
}

// Submit validates the draft, persists the history and the danger-sign
// assessment together, and removes the draft. An incomplete history is reported as
// *obstetrics.IncompleteError and nothing is written.
func (s *Service) Submit(ctx context.Context, id uuid.UUID, recordedBy string) (*SubmitResult, error) {
	sess, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if missing := sess.History.Missing(); len(missing) > 0 {
		return nil, &obstetrics.IncompleteError{Missing: missing}
	}

	var rec *emergency.AssessmentRecord
	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.history.SaveHistory(ctx, sess.PatientID, sess.History); err != nil {
			return fmt.Errorf("save pregnancy history: %w", err)
		}
		stored, err := s.assessments.RecordAssessment(ctx, sess.PatientID, &sess.ID, sess.Danger, recordedBy)
		if err != nil {
			return err
		}
		rec = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.drafts.Delete(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("session_id", id.String()).Msg("failed to delete submitted draft")
	}

	s.logger.Info().
		Str("session_id", id.String()).
		Str("patient_id", sess.PatientID.String()).
		Bool("emergency_referral", rec.EmergencyReferral).
		Msg("anc session submitted")
	res := &SubmitResult{
		SessionID:           sess.ID,
		PatientID:           sess.PatientID,
		PreviousPregnancies: sess.History.Count,
		Assessment:          rec,
	}
	s.publish(ctx, EventSessionSubmitted, id, res)
	return res, nil
}

// Discard drops a draft without saving anything.
func (s *Service) Discard(ctx context.Context, id uuid.UUID) error {
	if err := s.drafts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("session_id", id.String()).Msg("anc session discarded")
	s.publish(ctx, EventSessionDiscarded, id, map[string]string{"session_id": id.String()})
	return nil
}
