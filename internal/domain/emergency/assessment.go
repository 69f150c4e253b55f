package emergency

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownDangerSign     = errors.New("unknown danger sign")
	ErrUnknownReferralReason = errors.New("unknown referral reason")
	ErrInvalidMode           = errors.New("danger sign mode must be \"none\" or \"present\"")
	ErrNotFound              = errors.New("not found")
)

// Mode is the "any danger signs?" answer on the ANC form.
type Mode string

const (
	ModeNone    Mode = "none"
	ModePresent Mode = "present"
)

// Assessment holds the two independently edited selection sets and keeps them
// consistent. Sets are kept sorted so the JSON form is stable.
//
// Synchronisation is union-only: it adds counterparts but never removes what
// the clinician entered. SyncedReasons remembers which referral reasons were
// filled in from danger signs so SelectNone can withdraw exactly those, and
// so they are not mapped back into further danger signs.
type Assessment struct {
	Mode              Mode             `json:"danger_sign_mode"`
	DangerSigns       []DangerSign     `json:"danger_signs"`
	ReferralReasons   []ReferralReason `json:"referral_reasons"`
	SyncedReasons     []ReferralReason `json:"synced_referral_reasons"`
	EmergencyReferral bool             `json:"emergency_referral"`
}

func NewAssessment() *Assessment {
	return &Assessment{
		Mode:            ModeNone,
		DangerSigns:     []DangerSign{},
		ReferralReasons: []ReferralReason{},
		SyncedReasons:   []ReferralReason{},
	}
}

// SyncDangerSignsToReferral unions the reasons implied by signs into the
// referral set. When anything new is added the emergency referral flag is
// raised. It returns the reasons it added.
func (a *Assessment) SyncDangerSignsToReferral(signs []DangerSign) []ReferralReason {
	var added []ReferralReason
	for _, s := range signs {
		r, ok := ReasonFor(s)
		if !ok || containsReason(a.ReferralReasons, r) {
			continue
		}
		a.ReferralReasons = insertReason(a.ReferralReasons, r)
		a.SyncedReasons = insertReason(a.SyncedReasons, r)
		added = append(added, r)
	}
	if len(added) > 0 {
		a.EmergencyReferral = true
	}
	return added
}

// SyncReferralToDangerSigns is the inverse of SyncDangerSignsToReferral.
// When anything new is added the mode moves to present.
func (a *Assessment) SyncReferralToDangerSigns(reasons []ReferralReason) []DangerSign {
	var added []DangerSign
	for _, r := range reasons {
		s, ok := SignFor(r)
		if !ok || containsSign(a.DangerSigns, s) {
			continue
		}
		a.DangerSigns = insertSign(a.DangerSigns, s)
		added = append(added, s)
	}
	if len(added) > 0 {
		a.Mode = ModePresent
	}
	return added
}

// SelectDangerSigns replaces the danger sign set with the clinician's
// selection and propagates it.
func (a *Assessment) SelectDangerSigns(signs []DangerSign) error {
	set := make([]DangerSign, 0, len(signs))
	for _, s := range signs {
		if !IsDangerSign(s) {
			return fmt.Errorf("%w: %q", ErrUnknownDangerSign, s)
		}
		set = insertSign(set, s)
	}
	a.DangerSigns = set
	if len(set) > 0 {
		a.Mode = ModePresent
	}
	a.propagate()
	return nil
}

// SelectReferralReasons replaces the referral reason set with the clinician's
// selection and propagates it. Reasons the clinician removed stop counting as
// synced.
func (a *Assessment) SelectReferralReasons(reasons []ReferralReason) error {
	set := make([]ReferralReason, 0, len(reasons))
	for _, r := range reasons {
		if !IsReferralReason(r) {
			return fmt.Errorf("%w: %q", ErrUnknownReferralReason, r)
		}
		set = insertReason(set, r)
	}
	a.ReferralReasons = set
	synced := make([]ReferralReason, 0, len(a.SyncedReasons))
	for _, r := range a.SyncedReasons {
		if containsReason(set, r) {
			synced = append(synced, r)
		}
	}
	a.SyncedReasons = synced
	a.propagate()
	return nil
}

// SelectNone is the only way back to ModeNone. It clears every danger sign,
// withdraws the synced referral reasons and lowers the emergency referral
// flag. Manually entered referral reasons stay.
func (a *Assessment) SelectNone() {
	a.ReferralReasons = a.manualReasons()
	a.SyncedReasons = []ReferralReason{}
	a.DangerSigns = []DangerSign{}
	a.EmergencyReferral = false
	a.Mode = ModeNone
}

// SetMode applies the radio answer. Choosing present on its own only opens
// the sign list.
func (a *Assessment) SetMode(m Mode) error {
	switch m {
	case ModeNone:
		a.SelectNone()
	case ModePresent:
		a.Mode = ModePresent
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidMode, m)
	}
	return nil
}

func (a *Assessment) SetEmergencyReferral(v bool) {
	a.EmergencyReferral = v
}

// propagate runs both directions in one pass. The reverse direction only
// reads manually entered reasons, so a reason synced in from one sign never
// adds a different sign back.
func (a *Assessment) propagate() {
	a.SyncDangerSignsToReferral(a.DangerSigns)
	a.SyncReferralToDangerSigns(a.manualReasons())
}

// manualReasons is ReferralReasons minus SyncedReasons.
func (a *Assessment) manualReasons() []ReferralReason {
	out := make([]ReferralReason, 0, len(a.ReferralReasons))
	for _, r := range a.ReferralReasons {
		if !containsReason(a.SyncedReasons, r) {
			out = append(out, r)
		}
	}
	return out
}

func (a *Assessment) Clone() *Assessment {
	return &Assessment{
		Mode:              a.Mode,
		DangerSigns:       append([]DangerSign{}, a.DangerSigns...),
		ReferralReasons:   append([]ReferralReason{}, a.ReferralReasons...),
		SyncedReasons:     append([]ReferralReason{}, a.SyncedReasons...),
		EmergencyReferral: a.EmergencyReferral,
	}
}

func containsSign(set []DangerSign, s DangerSign) bool {
	i := sort.Search(len(set), func(i int) bool { return set[i] >= s })
	return i < len(set) && set[i] == s
}

func insertSign(set []DangerSign, s DangerSign) []DangerSign {
	i := sort.Search(len(set), func(i int) bool { return set[i] >= s })
	if i < len(set) && set[i] == s {
		return set
	}
	set = append(set, "")
	copy(set[i+1:], set[i:])
	set[i] = s
	return set
}

func containsReason(set []ReferralReason, r ReferralReason) bool {
	i := sort.Search(len(set), func(i int) bool { return set[i] >= r })
	return i < len(set) && set[i] == r
}

func insertReason(set []ReferralReason, r ReferralReason) []ReferralReason {
	i := sort.Search(len(set), func(i int) bool { return set[i] >= r })
	if i < len(set) && set[i] == r {
		return set
	}
	set = append(set, "")
	copy(set[i+1:], set[i:])
	set[i] = r
	return set
}
