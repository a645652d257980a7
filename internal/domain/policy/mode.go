package policy

import (
	"fmt"
	"strings"
)

// VerificationLevel selects how check-ins and check-outs are accepted.
type VerificationLevel int

const (
	LevelNone     VerificationLevel = 1 // accepted as-is
	LevelApprover VerificationLevel = 2 // a designated approver decides
	LevelEvidence VerificationLevel = 3 // every required evidence check must pass
)

func (l VerificationLevel) Valid() bool {
	return l >= LevelNone && l <= LevelEvidence
}

// VerificationMode is a non-empty set over {location, selfie, wifi ip}.
type VerificationMode uint8

const (
	ModeLocation VerificationMode = 1 << iota
	ModeSelfie
	ModeWifiIP

	modeAll = ModeLocation | ModeSelfie | ModeWifiIP
)

// token order is the serialization order
var modeTokens = []struct {
	flag  VerificationMode
	token string
}{
	{ModeLocation, "location"},
	{ModeSelfie, "selfie"},
	{ModeWifiIP, "ip"},
}

func (m VerificationMode) Has(flag VerificationMode) bool {
	return m&flag == flag
}

func (m VerificationMode) Valid() bool {
	return m != 0 && m&^modeAll == 0
}

// String renders the mode as "location", "selfie_ip", "location_selfie_ip", ...
func (m VerificationMode) String() string {
	parts := make([]string, 0, len(modeTokens))
	for _, t := range modeTokens {
		if m.Has(t.flag) {
			parts = append(parts, t.token)
		}
	}
	return strings.Join(parts, "_")
}

// ParseVerificationMode accepts tokens in canonical order only, so every mode
// has exactly one spelling.
func ParseVerificationMode(s string) (VerificationMode, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidVerificationMode)
	}
	var m VerificationMode
	next := 0
	for _, part := range strings.Split(s, "_") {
		found := false
		for i := next; i < len(modeTokens); i++ {
			if modeTokens[i].token == part {
				m |= modeTokens[i].flag
				next = i + 1
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: %q", ErrInvalidVerificationMode, s)
		}
	}
	return m, nil
}

// AllVerificationModes returns the seven non-empty subsets.
func AllVerificationModes() []VerificationMode {
	modes := make([]VerificationMode, 0, int(modeAll))
	for m := VerificationMode(1); m <= modeAll; m++ {
		modes = append(modes, m)
	}
	return modes
}

func (m VerificationMode) MarshalText() ([]byte, error) {
	if m == 0 {
		return []byte(""), nil
	}
	return []byte(m.String()), nil
}

func (m *VerificationMode) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*m = 0
		return nil
	}
	parsed, err := ParseVerificationMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
