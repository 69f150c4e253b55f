package obstetrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MaxPreviousPregnancies bounds the history sub-form.
const MaxPreviousPregnancies = 20

// History holds one PregnancyRecord per prior pregnancy, addressed by index.
// Lowering Count stops tracking the higher indices without discarding them,
// so raising it again in the same session restores what was entered.
type History struct {
	Count   int                `json:"previous_pregnancies"`
	Records []*PregnancyRecord `json:"records"`
}

// NewHistory builds a history from stored records, ordered by index.
func NewHistory(records []*PregnancyRecord) *History {
	sorted := make([]*PregnancyRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
	for i, r := range sorted {
		r.Index = i
	}
	return &History{Count: len(sorted), Records: sorted}
}

// SetPreviousPregnancies sets the number of prior pregnancies and creates
// records for any new indices.
func (h *History) SetPreviousPregnancies(n int) error {
	if n < 0 || n > MaxPreviousPregnancies {
		return fmt.Errorf("%w: previous pregnancies must be between 0 and %d, got %d", ErrInvalidValue, MaxPreviousPregnancies, n)
	}
	for len(h.Records) < n {
		h.Records = append(h.Records, &PregnancyRecord{Index: len(h.Records)})
	}
	h.Count = n
	return nil
}

// Record returns the tracked record at index i.
func (h *History) Record(i int) (*PregnancyRecord, error) {
	if i < 0 || i >= h.Count {
		return nil, fmt.Errorf("%w: %d (tracking %d)", ErrIndexOutOfRange, i, h.Count)
	}
	return h.Records[i], nil
}

// Active returns the records currently tracked.
func (h *History) Active() []*PregnancyRecord {
	if h.Count > len(h.Records) {
		return h.Records
	}
	return h.Records[:h.Count]
}

func (h *History) Project() []RecordView {
	active := h.Active()
	views := make([]RecordView, 0, len(active))
	for _, r := range active {
		views = append(views, r.Project())
	}
	return views
}

// Missing reports unanswered required fields keyed by pregnancy index.
func (h *History) Missing() map[int][]string {
	out := make(map[int][]string)
	for _, r := range h.Active() {
		if m := r.Missing(); len(m) > 0 {
			out[r.Index] = m
		}
	}
	return out
}

// ApplyField applies a raw form value to one field of the record at index.
// An empty value unsets the field.
func (h *History) ApplyField(index int, field, raw string) error {
	r, err := h.Record(index)
	if err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)

	switch field {
	case FieldGestationalAge:
		months, err := ParseGestationalAgeMonths(raw)
		if err != nil {
			return err
		}
		return r.SetGestationalAge(months)
	case FieldOutcome:
		if raw == "" {
			return r.SetOutcome(nil)
		}
		o := Outcome(raw)
		if o != OutcomeAbortion && o != OutcomeLiveBirth && o != OutcomeStillBirth {
			return fmt.Errorf("%w: outcome %q", ErrInvalidValue, raw)
		}
		return r.SetOutcome(&o)
	case FieldDeliveryMode:
		return r.SetDeliveryMode(optional[DeliveryMode](raw))
	case FieldInfantSex:
		return r.SetInfantSex(optional[InfantSex](raw))
	case FieldBirthWeight:
		if raw == "" {
			return r.SetBirthWeight(nil)
		}
		kg, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w: birth weight %q", ErrInvalidValue, raw)
		}
		return r.SetBirthWeight(&kg)
	case FieldPlaceOfDelivery:
		return r.SetPlaceOfDelivery(optional[PlaceOfDelivery](raw))
	case FieldBabyStatus:
		return r.SetBabyStatus(optional[BabyStatus](raw))
	default:
		return fmt.Errorf("%w: unknown field %q", ErrInvalidValue, field)
	}
}

// Clone returns a deep copy so a batch of changes can be applied atomically.
func (h *History) Clone() *History {
	out := &History{Count: h.Count, Records: make([]*PregnancyRecord, len(h.Records))}
	for i, r := range h.Records {
		c := *r
		c.GestationalAgeMonths = clonePtr(r.GestationalAgeMonths)
		c.Outcome = clonePtr(r.Outcome)
		c.DeliveryMode = clonePtr(r.DeliveryMode)
		c.InfantSex = clonePtr(r.InfantSex)
		c.BirthWeightKg = clonePtr(r.BirthWeightKg)
		c.PlaceOfDelivery = clonePtr(r.PlaceOfDelivery)
		c.BabyCurrentStatus = clonePtr(r.BabyCurrentStatus)
		out.Records[i] = &c
	}
	return out
}

func optional[T ~string](raw string) *T {
	if raw == "" {
		return nil
	}
	v := T(raw)
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
