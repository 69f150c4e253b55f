package obstetrics

import "fmt"

// Field names used on the prior-pregnancy sub-form.
const (
	FieldGestationalAge  = "gestational_age_months"
	FieldOutcome         = "outcome"
	FieldDeliveryMode    = "delivery_mode"
	FieldInfantSex       = "infant_sex"
	FieldBirthWeight     = "birth_weight_kg"
	FieldPlaceOfDelivery = "place_of_delivery"
	FieldBabyStatus      = "baby_current_status"
)

// Viability derives the band from the current gestational age.
func (r *PregnancyRecord) Viability() Viability {
	if r.GestationalAgeMonths == nil {
		return ViabilityUnknown
	}
	return Classify(*r.GestationalAgeMonths)
}

func (r *PregnancyRecord) ShowOutcomeField() bool {
	shown, _ := OutcomeOptions(r.Viability())
	return shown
}

func (r *PregnancyRecord) ShowDeliveryModeField() bool {
	if r.Viability() != ViabilityViable || r.Outcome == nil {
		return false
	}
	return *r.Outcome == OutcomeLiveBirth || *r.Outcome == OutcomeStillBirth
}

func (r *PregnancyRecord) ShowInfantFields() bool {
	return r.Viability() == ViabilityViable && r.Outcome != nil && *r.Outcome == OutcomeLiveBirth
}

func (r *PregnancyRecord) ShowBabyStatusField() bool {
	return r.ShowInfantFields()
}

// SetGestationalAge records a new gestational age. Any change clears every
// answer that depends on it.
func (r *PregnancyRecord) SetGestationalAge(months *int) error {
	if months != nil && (*months < minGestationalAgeMonths || *months > maxGestationalAgeMonths) {
		return fmt.Errorf("%w: %d", ErrInvalidGestationalAge, *months)
	}
	if equalInt(r.GestationalAgeMonths, months) {
		return nil
	}
	r.GestationalAgeMonths = months
	r.Outcome = nil
	r.DeliveryMode = nil
	r.InfantSex = nil
	r.clearLiveBirthDetails()
	return nil
}

// SetOutcome records the pregnancy outcome. The outcome must be one the
// current viability band offers. Leaving live birth clears the live-birth
// details; fields that become hidden are cleared with them.
func (r *PregnancyRecord) SetOutcome(o *Outcome) error {
	if o != nil && !outcomeAllowed(r.Viability(), *o) {
		return fmt.Errorf("%w: %s at %s", ErrOutcomeNotAllowed, *o, r.viabilityLabel())
	}
	r.Outcome = o
	if !r.ShowInfantFields() {
		r.clearLiveBirthDetails()
	}
	if !r.ShowDeliveryModeField() {
		r.DeliveryMode = nil
		r.InfantSex = nil
	}
	return nil
}

func (r *PregnancyRecord) SetDeliveryMode(m *DeliveryMode) error {
	if m == nil {
		r.DeliveryMode = nil
		return nil
	}
	if !r.ShowDeliveryModeField() {
		return fmt.Errorf("%w: %s", ErrFieldHidden, FieldDeliveryMode)
	}
	if !validDeliveryModes[*m] {
		return fmt.Errorf("%w: delivery mode %q", ErrInvalidValue, *m)
	}
	r.DeliveryMode = m
	return nil
}

func (r *PregnancyRecord) SetInfantSex(s *InfantSex) error {
	if s == nil {
		r.InfantSex = nil
		return nil
	}
	if !r.ShowDeliveryModeField() {
		return fmt.Errorf("%w: %s", ErrFieldHidden, FieldInfantSex)
	}
	if !validInfantSexes[*s] {
		return fmt.Errorf("%w: infant sex %q", ErrInvalidValue, *s)
	}
	r.InfantSex = s
	return nil
}

func (r *PregnancyRecord) SetBirthWeight(kg *float64) error {
	if kg == nil {
		r.BirthWeightKg = nil
		return nil
	}
	if !r.ShowInfantFields() {
		return fmt.Errorf("%w: %s", ErrFieldHidden, FieldBirthWeight)
	}
	if !validBirthWeight(*kg) {
		return fmt.Errorf("%w: birth weight %.2f kg", ErrInvalidValue, *kg)
	}
	r.BirthWeightKg = kg
	return nil
}

func (r *PregnancyRecord) SetPlaceOfDelivery(p *PlaceOfDelivery) error {
	if p == nil {
		r.PlaceOfDelivery = nil
		return nil
	}
	if !r.ShowInfantFields() {
		return fmt.Errorf("%w: %s", ErrFieldHidden, FieldPlaceOfDelivery)
	}
	if !validPlaces[*p] {
		return fmt.Errorf("%w: place of delivery %q", ErrInvalidValue, *p)
	}
	r.PlaceOfDelivery = p
	return nil
}

func (r *PregnancyRecord) SetBabyStatus(s *BabyStatus) error {
	if s == nil {
		r.BabyCurrentStatus = nil
		return nil
	}
	if !r.ShowBabyStatusField() {
		return fmt.Errorf("%w: %s", ErrFieldHidden, FieldBabyStatus)
	}
	if !validBabyStatuses[*s] {
		return fmt.Errorf("%w: baby status %q", ErrInvalidValue, *s)
	}
	r.BabyCurrentStatus = s
	return nil
}

// Project derives the view the form renders for this record.
func (r *PregnancyRecord) Project() RecordView {
	v := RecordView{
		Index:                 r.Index,
		Viability:             r.Viability(),
		ShowOutcomeField:      r.ShowOutcomeField(),
		ShowDeliveryModeField: r.ShowDeliveryModeField(),
		ShowInfantFields:      r.ShowInfantFields(),
		ShowBabyStatusField:   r.ShowBabyStatusField(),
		Fields:                make(map[string]FieldState, 7),
	}

	_, outcomes := OutcomeOptions(v.Viability)
	outcomeOpts := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		outcomeOpts = append(outcomeOpts, string(o))
	}

	v.Fields[FieldGestationalAge] = FieldState{Visible: true, Required: true, Value: derefInt(r.GestationalAgeMonths)}
	v.Fields[FieldOutcome] = FieldState{
		Visible: v.ShowOutcomeField, Required: v.ShowOutcomeField,
		Value: derefString(r.Outcome), Options: outcomeOpts,
	}
	v.Fields[FieldDeliveryMode] = FieldState{
		Visible: v.ShowDeliveryModeField, Required: v.ShowDeliveryModeField,
		Value: derefString(r.DeliveryMode), Options: keysOf(validDeliveryModes),
	}
	v.Fields[FieldInfantSex] = FieldState{
		Visible: v.ShowDeliveryModeField,
		Value:   derefString(r.InfantSex), Options: keysOf(validInfantSexes),
	}
	v.Fields[FieldBirthWeight] = FieldState{
		Visible: v.ShowInfantFields, Required: v.ShowInfantFields, Value: derefFloat(r.BirthWeightKg),
	}
	v.Fields[FieldPlaceOfDelivery] = FieldState{
		Visible: v.ShowInfantFields, Required: v.ShowInfantFields,
		Value: derefString(r.PlaceOfDelivery), Options: keysOf(validPlaces),
	}
	v.Fields[FieldBabyStatus] = FieldState{
		Visible: v.ShowBabyStatusField, Required: v.ShowBabyStatusField,
		Value: derefString(r.BabyCurrentStatus), Options: keysOf(validBabyStatuses),
	}

	if v.ShowInfantFields && r.BirthWeightKg != nil {
		g := ClassifyBirthWeight(*r.BirthWeightKg)
		v.BirthWeight = &g
	}
	return v
}

// Missing lists the visible, required fields that have no value yet.
func (r *PregnancyRecord) Missing() []string {
	view := r.Project()
	var missing []string
	for _, name := range fieldOrder {
		f := view.Fields[name]
		if f.Visible && f.Required && f.Value == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

func (r *PregnancyRecord) clearLiveBirthDetails() {
	r.BirthWeightKg = nil
	r.PlaceOfDelivery = nil
	r.BabyCurrentStatus = nil
}

func (r *PregnancyRecord) viabilityLabel() string {
	if v := r.Viability(); v != ViabilityUnknown {
		return string(v)
	}
	return "unknown gestational age"
}

var fieldOrder = []string{
	FieldGestationalAge, FieldOutcome, FieldDeliveryMode, FieldInfantSex,
	FieldBirthWeight, FieldPlaceOfDelivery, FieldBabyStatus,
}
