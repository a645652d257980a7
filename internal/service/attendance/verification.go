package attendance

import (
	"net/netip"
	"strings"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/policy"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/utils"
)

// EvaluateEvidence derives the verified flags from what the client sent.
// Every flag is computed regardless of the mode so reviewers see the full picture.
func EvaluateEvidence(req attendance.CheckRequest, eff policy.EffectivePolicy) attendance.Evidence {
	ev := attendance.Evidence{
		Latitude:                  req.Latitude,
		Longitude:                 req.Longitude,
		SelfieURL:                 req.SelfieURL,
		VPNDetected:               req.VPNDetected,
		LocationSpoofingSuspected: req.LocationSpoofingSuspected,
	}
	if req.IPAddress != "" {
		ip := req.IPAddress
		ev.IPAddress = &ip
	}

	if req.Latitude != nil && req.Longitude != nil && eff.OfficeLatitude != nil && eff.OfficeLongitude != nil {
		ev.LocationVerified = !req.LocationSpoofingSuspected &&
			utils.WithinRadius(
				utils.Point{Lat: *req.Latitude, Lon: *req.Longitude},
				utils.Point{Lat: *eff.OfficeLatitude, Lon: *eff.OfficeLongitude},
				eff.LocationRadiusMeters)
	}

	ev.IPVerified = !req.VPNDetected && ipAllowed(req.IPAddress, eff.AllowedWifiIPs)
	ev.SelfieVerified = req.SelfieURL != nil && strings.TrimSpace(*req.SelfieURL) != ""

	return ev
}

// ipAllowed matches a single address or a CIDR prefix from the allow-list.
func ipAllowed(raw string, allowed []string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, entry := range allowed {
		entry = strings.TrimSpace(entry)
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err == nil && prefix.Contains(addr) {
				return true
			}
			continue
		}
		if a, err := netip.ParseAddr(entry); err == nil && a.Unmap() == addr {
			return true
		}
	}
	return false
}

// Level3Passes is true only if every requirement in mode verified. Requirements
// outside mode are not looked at.
func Level3Passes(mode policy.VerificationMode, ev attendance.Evidence) bool {
	if !mode.Valid() {
		return false
	}
	if mode.Has(policy.ModeLocation) && !ev.LocationVerified {
		return false
	}
	if mode.Has(policy.ModeSelfie) && !ev.SelfieVerified {
		return false
	}
	if mode.Has(policy.ModeWifiIP) && !ev.IPVerified {
		return false
	}
	return true
}

// Decision is the verification selector's verdict for one check attempt.
type Decision struct {
	Accept     bool
	Level      policy.VerificationLevel
	Mode       policy.VerificationMode // only set at level 3
	ApproverID *string                 // only set at level 2
}

// Decide picks the outcome for the effective verification level: level 1
// accepts, level 2 always waits for the approver, level 3 accepts when the
// evidence satisfies the mode and otherwise waits for manual review.
func Decide(eff policy.EffectivePolicy, ev attendance.Evidence) Decision {
	switch eff.VerificationLevel {
	case policy.LevelApprover:
		return Decision{Level: policy.LevelApprover, ApproverID: eff.ApproverID}
	case policy.LevelEvidence:
		return Decision{
			Accept: Level3Passes(eff.Level3Mode, ev),
			Level:  policy.LevelEvidence,
			Mode:   eff.Level3Mode,
		}
	default:
		return Decision{Accept: true, Level: policy.LevelNone}
	}
}
