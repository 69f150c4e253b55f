package obstetrics

import (
	"errors"
	"testing"
	"time"
)

func TestEstimateDueDate(t *testing.T) {
	lmp := time.Date(2026, 1, 1, 15, 30, 0, 0, time.UTC)
	edd := EstimateDueDate(lmp)
	want := time.Date(2026, 10, 8, 0, 0, 0, 0, time.UTC)
	if !edd.Equal(want) {
		t.Errorf("expected %s, got %s", want, edd)
	}
}

func TestGestationalAgeFromLMP(t *testing.T) {
	lmp := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	asOf := lmp.AddDate(0, 0, 7*20+3)
	weeks, days, err := GestationalAgeFromLMP(lmp, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if weeks != 20 || days != 3 {
		t.Errorf("expected 20w3d, got %dw%dd", weeks, days)
	}
}

func TestGestationalAgeFromLMP_Future(t *testing.T) {
	lmp := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, _, err := GestationalAgeFromLMP(lmp, lmp.AddDate(0, 0, -1))
	if !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestDateFromLMP(t *testing.T) {
	lmp := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d, err := DateFromLMP(lmp, lmp.AddDate(0, 0, 7*30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.GestationalWeeks != 30 || d.Trimester != 3 {
		t.Errorf("expected 30 weeks in trimester 3, got %d weeks trimester %d", d.GestationalWeeks, d.Trimester)
	}

	if _, err := DateFromLMP(lmp, lmp.AddDate(0, 0, 7*46)); err == nil {
		t.Error("expected error for LMP more than 44 weeks ago")
	}
}
