package emergency

import "sort"

// DangerSign is an observed clinical symptom, stored by its display label.
type DangerSign string

const (
	SignVaginalBleeding      DangerSign = "Vaginal bleeding"
	SignConvulsing           DangerSign = "Convulsing"
	SignUnconscious          DangerSign = "Unconscious"
	SignSevereHeadache       DangerSign = "Severe headache"
	SignBlurredVision        DangerSign = "Blurred vision"
	SignFaceHandSwelling     DangerSign = "Swelling of face and hands"
	SignFever                DangerSign = "Fever"
	SignSevereAbdominalPain  DangerSign = "Severe abdominal pain"
	SignDrainingLiquor       DangerSign = "Draining liquor"
	SignDifficultyBreathing  DangerSign = "Difficulty breathing"
	SignSevereVomiting       DangerSign = "Severe vomiting"
	SignReducedFetalMovement DangerSign = "Reduced or no fetal movement"
	SignImminentDelivery     DangerSign = "Imminent delivery"
	SignLooksVeryIll         DangerSign = "Looks very ill"
)

// ReferralReason is the coded justification on an emergency referral.
type ReferralReason string

const (
	ReasonSevereBleeding       ReferralReason = "severe_bleeding"
	ReasonConvulsions          ReferralReason = "convulsions"
	ReasonUnconscious          ReferralReason = "unconscious"
	ReasonPreEclampsiaSigns    ReferralReason = "pre_eclampsia_signs"
	ReasonHighFever            ReferralReason = "high_fever"
	ReasonSevereAbdominalPain  ReferralReason = "severe_abdominal_pain"
	ReasonRupturedMembranes    ReferralReason = "ruptured_membranes"
	ReasonRespiratoryDistress  ReferralReason = "respiratory_distress"
	ReasonSevereVomiting       ReferralReason = "severe_vomiting"
	ReasonReducedFetalMovement ReferralReason = "reduced_fetal_movement"
	ReasonImminentDelivery     ReferralReason = "imminent_delivery"
	ReasonPMTCTFollowUp        ReferralReason = "pmtct_followup"
	ReasonOther                ReferralReason = "other"
)

// mapping is the single danger sign to referral reason table. A reason maps
// back to its primary sign only. Assessment applies the reverse mapping to
// manually entered reasons, never to reasons synced in from a sign.
type mapping struct {
	sign    DangerSign
	reason  ReferralReason
	primary bool
}

var mappings = []mapping{
	{SignVaginalBleeding, ReasonSevereBleeding, true},
	{SignConvulsing, ReasonConvulsions, true},
	{SignUnconscious, ReasonUnconscious, true},
	{SignSevereHeadache, ReasonPreEclampsiaSigns, true},
	{SignBlurredVision, ReasonPreEclampsiaSigns, false},
	{SignFaceHandSwelling, ReasonPreEclampsiaSigns, false},
	{SignFever, ReasonHighFever, true},
	{SignSevereAbdominalPain, ReasonSevereAbdominalPain, true},
	{SignDrainingLiquor, ReasonRupturedMembranes, true},
	{SignDifficultyBreathing, ReasonRespiratoryDistress, true},
	{SignSevereVomiting, ReasonSevereVomiting, true},
	{SignReducedFetalMovement, ReasonReducedFetalMovement, true},
	{SignImminentDelivery, ReasonImminentDelivery, true},
}

var (
	signToReason = make(map[DangerSign]ReferralReason)
	reasonToSign = make(map[ReferralReason]DangerSign)

	knownSigns   = map[DangerSign]bool{SignLooksVeryIll: true}
	knownReasons = map[ReferralReason]bool{ReasonPMTCTFollowUp: true, ReasonOther: true}
)

func init() {
	for _, m := range mappings {
		signToReason[m.sign] = m.reason
		if m.primary {
			reasonToSign[m.reason] = m.sign
		}
		knownSigns[m.sign] = true
		knownReasons[m.reason] = true
	}
}

// ReasonFor returns the referral reason a danger sign implies, if any.
func ReasonFor(s DangerSign) (ReferralReason, bool) {
	r, ok := signToReason[s]
	return r, ok
}

// SignFor returns the primary danger sign behind a referral reason, if any.
func SignFor(r ReferralReason) (DangerSign, bool) {
	s, ok := reasonToSign[r]
	return s, ok
}

func IsDangerSign(s DangerSign) bool         { return knownSigns[s] }
func IsReferralReason(r ReferralReason) bool { return knownReasons[r] }

// VocabularyEntry is one row of the published mapping table.
type VocabularyEntry struct {
	DangerSign     DangerSign     `json:"danger_sign,omitempty"`
	ReferralReason ReferralReason `json:"referral_reason,omitempty"`
	Primary        bool           `json:"primary"`
}

type Vocabulary struct {
	DangerSigns     []DangerSign      `json:"danger_signs"`
	ReferralReasons []ReferralReason  `json:"referral_reasons"`
	Mappings        []VocabularyEntry `json:"mappings"`
}

// PublishedVocabulary lists both vocabularies and the table between them.
func PublishedVocabulary() Vocabulary {
	v := Vocabulary{}
	for s := range knownSigns {
		v.DangerSigns = append(v.DangerSigns, s)
	}
	for r := range knownReasons {
		v.ReferralReasons = append(v.ReferralReasons, r)
	}
	sort.Slice(v.DangerSigns, func(i, j int) bool { return v.DangerSigns[i] < v.DangerSigns[j] })
	sort.Slice(v.ReferralReasons, func(i, j int) bool { return v.ReferralReasons[i] < v.ReferralReasons[j] })
	for _, m := range mappings {
		v.Mappings = append(v.Mappings, VocabularyEntry{DangerSign: m.sign, ReferralReason: m.reason, Primary: m.primary})
	}
	return v
}
