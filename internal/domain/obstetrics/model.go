package obstetrics

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidGestationalAge = errors.New("gestational age must be a whole number of months between 1 and 10")
	ErrOutcomeNotAllowed     = errors.New("outcome not allowed for this gestational age")
	ErrFieldHidden           = errors.New("field is not applicable for the current answers")
	ErrInvalidValue          = errors.New("invalid value")
	ErrIndexOutOfRange       = errors.New("pregnancy index out of range")
	ErrNotFound              = errors.New("not found")
)

// Viability is the gestational-age band of a prior pregnancy. The zero value
// means gestational age has not been entered.
type Viability string

const (
	ViabilityUnknown    Viability = ""
	ViabilityNonViable  Viability = "non_viable"
	ViabilityBorderline Viability = "borderline"
	ViabilityViable     Viability = "viable"
)

type Outcome string

const (
	OutcomeAbortion   Outcome = "abortion"
	OutcomeLiveBirth  Outcome = "live_birth"
	OutcomeStillBirth Outcome = "still_birth"
)

type DeliveryMode string

const (
	DeliverySpontaneousVaginal DeliveryMode = "spontaneous_vaginal"
	DeliveryAssistedVaginal    DeliveryMode = "assisted_vaginal"
	DeliveryCaesarean          DeliveryMode = "caesarean_section"
)

type InfantSex string

const (
	InfantMale   InfantSex = "male"
	InfantFemale InfantSex = "female"
)

type PlaceOfDelivery string

const (
	PlaceHealthFacility PlaceOfDelivery = "health_facility"
	PlaceHome           PlaceOfDelivery = "home"
	PlaceEnRoute        PlaceOfDelivery = "en_route"
	PlaceOther          PlaceOfDelivery = "other"
)

type BabyStatus string

const (
	BabyAliveWell          BabyStatus = "alive_well"
	BabyAliveComplications BabyStatus = "alive_complications"
	BabyDeceased           BabyStatus = "deceased"
	BabyUnknown            BabyStatus = "unknown"
)

var validDeliveryModes = map[DeliveryMode]bool{
	DeliverySpontaneousVaginal: true, DeliveryAssistedVaginal: true, DeliveryCaesarean: true,
}

var validInfantSexes = map[InfantSex]bool{
	InfantMale: true, InfantFemale: true,
}

var validPlaces = map[PlaceOfDelivery]bool{
	PlaceHealthFacility: true, PlaceHome: true, PlaceEnRoute: true, PlaceOther: true,
}

var validBabyStatuses = map[BabyStatus]bool{
	BabyAliveWell: true, BabyAliveComplications: true, BabyDeceased: true, BabyUnknown: true,
}

// PregnancyRecord is one historical pregnancy captured on the ANC history
// sub-form. It maps to the prior_pregnancy table. Nil pointers are unset
// answers; the setters in record.go keep dependent answers consistent.
type PregnancyRecord struct {
	ID                   uuid.UUID        `db:"id" json:"id,omitempty"`
	PatientID            uuid.UUID        `db:"patient_id" json:"patient_id,omitempty"`
	Index                int              `db:"pregnancy_index" json:"pregnancy_index"`
	GestationalAgeMonths *int             `db:"gestational_age_months" json:"gestational_age_months,omitempty"`
	Outcome              *Outcome         `db:"outcome" json:"outcome,omitempty"`
	DeliveryMode         *DeliveryMode    `db:"delivery_mode" json:"delivery_mode,omitempty"`
	InfantSex            *InfantSex       `db:"infant_sex" json:"infant_sex,omitempty"`
	BirthWeightKg        *float64         `db:"birth_weight_kg" json:"birth_weight_kg,omitempty"`
	PlaceOfDelivery      *PlaceOfDelivery `db:"place_of_delivery" json:"place_of_delivery,omitempty"`
	BabyCurrentStatus    *BabyStatus      `db:"baby_current_status" json:"baby_current_status,omitempty"`
	CreatedAt            time.Time        `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt            time.Time        `db:"updated_at" json:"updated_at,omitempty"`
}

// FieldState is the rendering contract for one form field.
type FieldState struct {
	Visible  bool        `json:"visible"`
	Required bool        `json:"required"`
	Value    interface{} `json:"value,omitempty"`
	Options  []string    `json:"options,omitempty"`
}

// RecordView is the derived projection of a PregnancyRecord.
type RecordView struct {
	Index                 int                   `json:"pregnancy_index"`
	Viability             Viability             `json:"viability,omitempty"`
	ShowOutcomeField      bool                  `json:"show_outcome_field"`
	ShowDeliveryModeField bool                  `json:"show_delivery_mode_field"`
	ShowInfantFields      bool                  `json:"show_infant_fields"`
	ShowBabyStatusField   bool                  `json:"show_baby_status_field"`
	BirthWeight           *WeightGuidance       `json:"birth_weight_guidance,omitempty"`
	Fields                map[string]FieldState `json:"fields"`
}

// Dating is the result of LMP-based pregnancy dating.
type Dating struct {
	LastMenstrualPeriod time.Time `json:"last_menstrual_period"`
	EstimatedDueDate    time.Time `json:"estimated_due_date"`
	GestationalWeeks    int       `json:"gestational_age_weeks"`
	GestationalDays     int       `json:"gestational_age_days"`
	Trimester           int       `json:"trimester"`
}
