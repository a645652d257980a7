package policy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationModeRoundTripAllSubsets(t *testing.T) {
	want := map[VerificationMode]string{
		ModeLocation:                          "location",
		ModeSelfie:                            "selfie",
		ModeWifiIP:                            "ip",
		ModeLocation | ModeSelfie:             "location_selfie",
		ModeLocation | ModeWifiIP:             "location_ip",
		ModeSelfie | ModeWifiIP:               "selfie_ip",
		ModeLocation | ModeSelfie | ModeWifiIP: "location_selfie_ip",
	}

	modes := AllVerificationModes()
	require.Len(t, modes, 7)

	for _, m := range modes {
		s := m.String()
		assert.Equal(t, want[m], s)

		parsed, err := ParseVerificationMode(s)
		require.NoError(t, err, s)
		assert.Equal(t, m, parsed, s)
	}
}

func TestParseVerificationModeRejects(t *testing.T) {
	for _, s := range []string{"", "gps", "selfie_location", "location_location", "location__ip", "ip_selfie"} {
		_, err := ParseVerificationMode(s)
		assert.ErrorIs(t, err, ErrInvalidVerificationMode, s)
	}
}

func TestVerificationModeJSON(t *testing.T) {
	type wrapper struct {
		Mode VerificationMode `json:"mode"`
	}

	b, err := json.Marshal(wrapper{Mode: ModeSelfie | ModeWifiIP})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode":"selfie_ip"}`, string(b))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"mode":"location_ip"}`), &w))
	assert.True(t, w.Mode.Has(ModeLocation))
	assert.True(t, w.Mode.Has(ModeWifiIP))
	assert.False(t, w.Mode.Has(ModeSelfie))
}
