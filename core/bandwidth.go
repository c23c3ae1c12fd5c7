package core

// bandwidth.go — BandwidthAllocator (spec §4.5).
//
// fair_share_mbps = (2 × total_host_bandwidth) / device_count, honouring
// invariant C2 (fair_share × device_count = 2 × total_host_bandwidth)
// exactly by construction. The factor of 2 is the project's "double-space,
// half-time" scheduling principle (spec §4.5): an entitlement ceiling the
// platform layer enforces as a per-client rate limit, not a guarantee made
// by this package.

import "errors"

// AllocateFairShare computes the per-device bandwidth entitlement ceiling
// for devices, using the Host-role members' BandwidthMbps as the supply.
func AllocateFairShare(devices []*Device) (totalHostBandwidth, fairShareMbps float64, err error) {
	if len(devices) == 0 {
		return 0, 0, errors.New("allocate fair share: empty device set")
	}
	for _, d := range devices {
		if d.Role == RoleHost {
			totalHostBandwidth += d.BandwidthMbps
		}
	}
	fairShareMbps = (2 * totalHostBandwidth) / float64(len(devices))
	return totalHostBandwidth, fairShareMbps, nil
}
