package obstetrics

// WeightCategory classifies a birth weight.
type WeightCategory string

const (
	WeightELBW       WeightCategory = "ELBW"
	WeightLBW        WeightCategory = "LBW"
	WeightNormal     WeightCategory = "Normal"
	WeightMacrosomia WeightCategory = "Macrosomia"
)

// WeightGuidance is informational text shown next to the birth weight field.
// It never gates other fields.
type WeightGuidance struct {
	Category WeightCategory `json:"category"`
	Label    string         `json:"label"`
	Risk     string         `json:"risk"`
}

const maxBirthWeightKg = 7.0

// validBirthWeight rejects NaN and infinities along with out of range values.
func validBirthWeight(kg float64) bool {
	return kg > 0 && kg <= maxBirthWeightKg
}

// ClassifyBirthWeight returns the guidance band for a birth weight in kg.
// Band edges: <1.5 ELBW, 1.5-2.49 LBW, 2.5-4.0 Normal, >4.0 Macrosomia.
func ClassifyBirthWeight(kg float64) WeightGuidance {
	switch {
	case kg < 1.5:
		return WeightGuidance{
			Category: WeightELBW,
			Label:    "Extremely low birth weight",
			Risk:     "High risk of neonatal death, developmental delay and recurrence of preterm birth. Review for causes in the current pregnancy.",
		}
	case kg < 2.5:
		return WeightGuidance{
			Category: WeightLBW,
			Label:    "Low birth weight",
			Risk:     "Increased risk of growth restriction or preterm birth in the current pregnancy. Monitor fundal height and fetal growth.",
		}
	case kg <= 4.0:
		return WeightGuidance{
			Category: WeightNormal,
			Label:    "Normal birth weight",
			Risk:     "No additional risk from birth weight.",
		}
	default:
		return WeightGuidance{
			Category: WeightMacrosomia,
			Label:    "Macrosomia",
			Risk:     "Risk of gestational diabetes, obstructed labour and shoulder dystocia. Screen for diabetes and plan facility delivery.",
		}
	}
}
