package obstetrics

import (
	"fmt"
	"time"
)

const pregnancyLengthDays = 280

// EstimateDueDate applies Naegele's rule: LMP plus 280 days.
func EstimateDueDate(lmp time.Time) time.Time {
	return dateOnly(lmp).AddDate(0, 0, pregnancyLengthDays)
}

// GestationalAgeFromLMP returns completed weeks and remaining days between
// lmp and asOf.
func GestationalAgeFromLMP(lmp, asOf time.Time) (weeks, days int, err error) {
	l, a := dateOnly(lmp), dateOnly(asOf)
	if a.Before(l) {
		return 0, 0, fmt.Errorf("%w: last menstrual period is in the future", ErrInvalidValue)
	}
	total := int(a.Sub(l).Hours() / 24)
	return total / 7, total % 7, nil
}

// DateFromLMP builds the dating summary for an LMP as of a given day.
func DateFromLMP(lmp, asOf time.Time) (*Dating, error) {
	weeks, days, err := GestationalAgeFromLMP(lmp, asOf)
	if err != nil {
		return nil, err
	}
	if weeks > 44 {
		return nil, fmt.Errorf("%w: last menstrual period more than 44 weeks ago", ErrInvalidValue)
	}
	return &Dating{
		LastMenstrualPeriod: dateOnly(lmp),
		EstimatedDueDate:    EstimateDueDate(lmp),
		GestationalWeeks:    weeks,
		GestationalDays:     days,
		Trimester:           trimester(weeks),
	}, nil
}

func trimester(weeks int) int {
	switch {
	case weeks < 13:
		return 1
	case weeks < 28:
		return 2
	default:
		return 3
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
