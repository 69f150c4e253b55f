package ancform

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ehr/anc/internal/domain/emergency"
	"github.com/ehr/anc/internal/domain/obstetrics"
)

func idx(i int) *int { return &i }

func newTestSession() *Session {
	return NewSession(uuid.New(), nil, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
}

func TestSession_ApplyLiveBirthRecord(t *testing.T) {
	s := newTestSession()
	err := s.Apply([]FieldChange{
		{Field: FieldPreviousPregnancies, Value: "1"},
		{Field: obstetrics.FieldGestationalAge, Value: "9", PregnancyIndex: idx(0)},
		{Field: obstetrics.FieldOutcome, Value: "live_birth", PregnancyIndex: idx(0)},
		{Field: obstetrics.FieldDeliveryMode, Value: "caesarean_section", PregnancyIndex: idx(0)},
		{Field: obstetrics.FieldBirthWeight, Value: "2.1", PregnancyIndex: idx(0)},
		{Field: obstetrics.FieldPlaceOfDelivery, Value: "health_facility", PregnancyIndex: idx(0)},
		{Field: obstetrics.FieldBabyStatus, Value: "alive_well", PregnancyIndex: idx(0)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v := s.View()
	if v.PreviousPregnancies != 1 || len(v.Pregnancies) != 1 {
		t.Fatalf("expected one pregnancy, got %+v", v)
	}
	p := v.Pregnancies[0]
	if p.Viability != obstetrics.ViabilityViable || !p.ShowInfantFields {
		t.Errorf("expected viable record with infant fields, got %+v", p)
	}
	if p.BirthWeight == nil || p.BirthWeight.Category != obstetrics.WeightLBW {
		t.Errorf("expected low birth weight guidance, got %+v", p.BirthWeight)
	}
	if !v.Complete {
		t.Errorf("expected complete view, missing %v", v.Missing)
	}
}

func TestSession_BatchIsAtomic(t *testing.T) {
	s := newTestSession()
	if err := s.Apply([]FieldChange{{Field: FieldPreviousPregnancies, Value: "1"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := s.Apply([]FieldChange{
		{Field: obstetrics.FieldGestationalAge, Value: "8", PregnancyIndex: idx(0)},
		{Field: FieldDangerSigns, Values: []string{"Convulsing"}},
		{Field: obstetrics.FieldOutcome, Value: "abortion", PregnancyIndex: idx(0)},
	})
	var changeErr *ChangeError
	if !errors.As(err, &changeErr) {
		t.Fatalf("expected ChangeError, got %v", err)
	}
	if changeErr.Position != 2 || !errors.Is(err, obstetrics.ErrOutcomeNotAllowed) {
		t.Errorf("unexpected change error: %+v", changeErr)
	}

	r, _ := s.History.Record(0)
	if r.GestationalAgeMonths != nil {
		t.Error("gestational age from a rejected batch was kept")
	}
	if len(s.Danger.DangerSigns) != 0 || len(s.Danger.ReferralReasons) != 0 {
		t.Error("danger signs from a rejected batch were kept")
	}
}

func TestSession_DangerSignsSyncInView(t *testing.T) {
	s := newTestSession()
	if err := s.Apply([]FieldChange{{Field: FieldReferralReasons, Values: []string{"severe_bleeding"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := s.View()
	if v.Danger.Mode != emergency.ModePresent || !v.Danger.ShowDangerSigns {
		t.Errorf("expected danger sign list shown, got %+v", v.Danger)
	}
	if len(v.Danger.DangerSigns) != 1 || v.Danger.DangerSigns[0] != emergency.SignVaginalBleeding {
		t.Errorf("expected Vaginal bleeding, got %v", v.Danger.DangerSigns)
	}

	if err := s.Apply([]FieldChange{{Field: FieldDangerSignMode, Value: "none"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Danger.Mode != emergency.ModeNone || len(s.Danger.DangerSigns) != 0 {
		t.Errorf("expected none with no signs, got %+v", s.Danger)
	}
}

func TestSession_EmergencyReferralFlag(t *testing.T) {
	s := newTestSession()
	if err := s.Apply([]FieldChange{{Field: FieldEmergencyReferral, Value: "true"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Danger.EmergencyReferral {
		t.Error("expected emergency referral set")
	}
	if err := s.Apply([]FieldChange{{Field: FieldEmergencyReferral, Value: "maybe"}}); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestSession_Errors(t *testing.T) {
	tests := []struct {
		name   string
		change FieldChange
		want   error
	}{
		{"unknown field", FieldChange{Field: "blood_group", Value: "O"}, ErrUnknownField},
		{"missing index", FieldChange{Field: obstetrics.FieldOutcome, Value: "live_birth"}, ErrIndexRequired},
		{"index out of range", FieldChange{Field: obstetrics.FieldGestationalAge, Value: "7", PregnancyIndex: idx(3)}, obstetrics.ErrIndexOutOfRange},
		{"bad count", FieldChange{Field: FieldPreviousPregnancies, Value: "two"}, ErrInvalidValue},
		{"unknown sign", FieldChange{Field: FieldDangerSigns, Values: []string{"High fever"}}, emergency.ErrUnknownDangerSign},
		{"bad mode", FieldChange{Field: FieldDangerSignMode, Value: "yes"}, emergency.ErrInvalidMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession()
			if err := s.Apply([]FieldChange{tt.change}); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSession_NonFiniteBirthWeightRejected(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "-Inf"} {
		t.Run(raw, func(t *testing.T) {
			s := newTestSession()
			err := s.Apply([]FieldChange{
				{Field: FieldPreviousPregnancies, Value: "1"},
				{Field: obstetrics.FieldGestationalAge, Value: "8", PregnancyIndex: idx(0)},
				{Field: obstetrics.FieldOutcome, Value: "live_birth", PregnancyIndex: idx(0)},
				{Field: obstetrics.FieldBirthWeight, Value: raw, PregnancyIndex: idx(0)},
			})
			var changeErr *ChangeError
			if !errors.As(err, &changeErr) || !errors.Is(err, obstetrics.ErrInvalidValue) {
				t.Fatalf("expected ChangeError wrapping ErrInvalidValue, got %v", err)
			}
			if _, err := json.Marshal(s); err != nil {
				t.Errorf("draft no longer encodes: %v", err)
			}
		})
	}
}

func TestSession_ReducingCountKeepsHiddenRecords(t *testing.T) {
	s := newTestSession()
	err := s.Apply([]FieldChange{
		{Field: FieldPreviousPregnancies, Value: "2"},
		{Field: obstetrics.FieldGestationalAge, Value: "4", PregnancyIndex: idx(1)},
		{Field: FieldPreviousPregnancies, Value: "1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.View().Pregnancies) != 1 {
		t.Fatal("expected only one tracked pregnancy")
	}
	if err := s.Apply([]FieldChange{{Field: FieldPreviousPregnancies, Value: "2"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, _ := s.History.Record(1)
	if r.GestationalAgeMonths == nil || *r.GestationalAgeMonths != 4 {
		t.Error("expected the hidden record to come back with its answers")
	}
}
