package core

// cost.go — CostEngine (spec §4.6).
//
// A deterministic affine model converting measured bytes into a USD balance.
// The constants are policy, not fundamentals (spec §9 Open Questions): a
// caller may override them via CostModel instead of the package defaults.

import "fmt"

// CostModel holds the affine cost constants (spec §4.6).
type CostModel struct {
	FNewtons   float64
	DMeters    float64
	CosTheta   float64
	USDPerJoule float64
}

// DefaultCostModel returns the spec's default constants.
func DefaultCostModel() CostModel {
	return CostModel{
		FNewtons:    1.25,
		DMeters:     15.0,
		CosTheta:    0.866,
		USDPerJoule: 1.0e-5,
	}
}

const bytesPerMB = 1024 * 1024

// MBUsed converts a device's measured byte counters into megabytes.
func MBUsed(d *Device) float64 {
	return float64(d.BytesSent+d.BytesReceived) / float64(bytesPerMB)
}

// Balance computes one device's USD balance under m.
func (m CostModel) Balance(d *Device) float64 {
	return MBUsed(d) * m.FNewtons * m.DMeters * m.CosTheta * m.USDPerJoule
}

// Apply writes Balance into every device (in registry order) and returns the
// running sum accumulated in that same order, so total_cost is guaranteed to
// equal Σ device.Balance exactly under the same floating-point accumulation
// order (invariant C3) — it is never recomputed from the final balances.
func (m CostModel) Apply(devices []*Device) float64 {
	var total float64
	for _, d := range devices {
		d.Balance = m.Balance(d)
		total += d.Balance
	}
	return total
}

// FormatUSD renders a USD amount to 6 decimal places for display (spec
// §4.6 precision note).
func FormatUSD(amount float64) string {
	return fmt.Sprintf("%.6f", amount)
}
