package ancform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/anc/internal/domain/emergency"
	"github.com/ehr/anc/internal/domain/obstetrics"
)

// Field names accepted in a FieldChange. Per-pregnancy fields reuse the
// obstetrics field names and need a pregnancy index.
const (
	FieldPreviousPregnancies = "previous_pregnancies"
	FieldDangerSignMode      = "danger_sign_mode"
	FieldDangerSigns         = "danger_signs"
	FieldReferralReasons     = "referral_reasons"
	FieldEmergencyReferral   = "emergency_referral"
)

var (
	ErrUnknownField  = errors.New("unknown form field")
	ErrIndexRequired = errors.New("pregnancy_index is required for this field")
	ErrInvalidValue  = errors.New("invalid value")
)

var pregnancyFields = map[string]bool{
	obstetrics.FieldGestationalAge:  true,
	obstetrics.FieldOutcome:         true,
	obstetrics.FieldDeliveryMode:    true,
	obstetrics.FieldInfantSex:       true,
	obstetrics.FieldBirthWeight:     true,
	obstetrics.FieldPlaceOfDelivery: true,
	obstetrics.FieldBabyStatus:      true,
}

// FieldChange is one edit coming from the form. Value carries scalar answers,
// Values carries multi-select answers.
type FieldChange struct {
	Field          string   `json:"field"`
	Value          string   `json:"value,omitempty"`
	Values         []string `json:"values,omitempty"`
	PregnancyIndex *int     `json:"pregnancy_index,omitempty"`
}

// ChangeError reports which change of a batch was rejected.
type ChangeError struct {
	Position int
	Field    string
	Err      error
}

func (e *ChangeError) Error() string {
	return fmt.Sprintf("change %d (%s): %v", e.Position, e.Field, e.Err)
}

func (e *ChangeError) Unwrap() error { return e.Err }

// Session is an ANC form draft for one patient.
type Session struct {
	ID        uuid.UUID             `json:"id"`
	PatientID uuid.UUID             `json:"patient_id"`
	History   *obstetrics.History   `json:"history"`
	Danger    *emergency.Assessment `json:"danger"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func NewSession(patientID uuid.UUID, history *obstetrics.History, now time.Time) *Session {
	if history == nil {
		history = obstetrics.NewHistory(nil)
	}
	return &Session{
		ID:        uuid.New(),
		PatientID: patientID,
		History:   history,
		Danger:    emergency.NewAssessment(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply runs a batch of changes. Either every change is applied or, on the
// first failure, none is.
func (s *Session) Apply(changes []FieldChange) error {
	history := s.History.Clone()
	danger := s.Danger.Clone()
	for i, ch := range changes {
		if err := applyChange(history, danger, ch); err != nil {
			return &ChangeError{Position: i, Field: ch.Field, Err: err}
		}
	}
	s.History = history
	s.Danger = danger
	return nil
}

func applyChange(h *obstetrics.History, a *emergency.Assessment, ch FieldChange) error {
	if pregnancyFields[ch.Field] {
		if ch.PregnancyIndex == nil {
			return ErrIndexRequired
		}
		return h.ApplyField(*ch.PregnancyIndex, ch.Field, ch.Value)
	}

	switch ch.Field {
	case FieldPreviousPregnancies:
		raw := strings.TrimSpace(ch.Value)
		if raw == "" {
			return h.SetPreviousPregnancies(0)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: previous pregnancies %q", ErrInvalidValue, ch.Value)
		}
		return h.SetPreviousPregnancies(n)
	case FieldDangerSignMode:
		return a.SetMode(emergency.Mode(strings.TrimSpace(ch.Value)))
	case FieldDangerSigns:
		signs := make([]emergency.DangerSign, len(ch.Values))
		for i, v := range ch.Values {
			signs[i] = emergency.DangerSign(v)
		}
		return a.SelectDangerSigns(signs)
	case FieldReferralReasons:
		reasons := make([]emergency.ReferralReason, len(ch.Values))
		for i, v := range ch.Values {
			reasons[i] = emergency.ReferralReason(v)
		}
		return a.SelectReferralReasons(reasons)
	case FieldEmergencyReferral:
		v, err := strconv.ParseBool(strings.TrimSpace(ch.Value))
		if err != nil {
			return fmt.Errorf("%w: emergency referral %q", ErrInvalidValue, ch.Value)
		}
		a.SetEmergencyReferral(v)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, ch.Field)
	}
}

// DangerView is the danger-sign part of the rendered form.
type DangerView struct {
	Mode              emergency.Mode             `json:"danger_sign_mode"`
	ShowDangerSigns   bool                       `json:"show_danger_signs"`
	DangerSigns       []emergency.DangerSign     `json:"danger_signs"`
	ReferralReasons   []emergency.ReferralReason `json:"referral_reasons"`
	EmergencyReferral bool                       `json:"emergency_referral"`
}

// View is what the form renders after every change.
type View struct {
	SessionID           uuid.UUID               `json:"session_id"`
	PatientID           uuid.UUID               `json:"patient_id"`
	PreviousPregnancies int                     `json:"previous_pregnancies"`
	Pregnancies         []obstetrics.RecordView `json:"pregnancies"`
	Danger              DangerView              `json:"danger"`
	Missing             map[int][]string        `json:"missing,omitempty"`
	Complete            bool                    `json:"complete"`
	UpdatedAt           time.Time               `json:"updated_at"`
}

func (s *Session) View() View {
	missing := s.History.Missing()
	return View{
		SessionID:           s.ID,
		PatientID:           s.PatientID,
		PreviousPregnancies: s.History.Count,
		Pregnancies:         s.History.Project(),
		Danger: DangerView{
			Mode:              s.Danger.Mode,
			ShowDangerSigns:   s.Danger.Mode == emergency.ModePresent,
			DangerSigns:       s.Danger.DangerSigns,
			ReferralReasons:   s.Danger.ReferralReasons,
			EmergencyReferral: s.Danger.EmergencyReferral,
		},
		Missing:   missing,
		Complete:  len(missing) == 0,
		UpdatedAt: s.UpdatedAt,
	}
}
