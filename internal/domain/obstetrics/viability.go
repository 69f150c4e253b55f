package obstetrics

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	minGestationalAgeMonths = 1
	maxGestationalAgeMonths = 10
)

// Classify maps gestational age in whole months to a viability band.
func Classify(months int) Viability {
	switch {
	case months < 6:
		return ViabilityNonViable
	case months == 6:
		return ViabilityBorderline
	default:
		return ViabilityViable
	}
}

// ParseGestationalAgeMonths parses form input. An empty string is reported as
// unset (nil, nil). Anything that is not a whole number in range is rejected
// rather than coerced.
func ParseGestationalAgeMonths(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	m, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGestationalAge, raw)
	}
	if m < minGestationalAgeMonths || m > maxGestationalAgeMonths {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGestationalAge, m)
	}
	return &m, nil
}

// OutcomeOptions reports whether the outcome field is offered for a viability
// band and which outcomes it may take. Borderline pregnancies (exactly six
// months) are held without an outcome field until clarified.
func OutcomeOptions(v Viability) (bool, []Outcome) {
	switch v {
	case ViabilityNonViable:
		return true, []Outcome{OutcomeAbortion}
	case ViabilityViable:
		return true, []Outcome{OutcomeLiveBirth, OutcomeStillBirth}
	default:
		return false, nil
	}
}

func outcomeAllowed(v Viability, o Outcome) bool {
	shown, allowed := OutcomeOptions(v)
	if !shown {
		return false
	}
	for _, a := range allowed {
		if a == o {
			return true
		}
	}
	return false
}
