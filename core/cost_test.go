package core

import "testing"

func TestMBUsedConvertsBytes(t *testing.T) {
	d := &Device{BytesSent: 1024 * 1024, BytesReceived: 1024 * 1024}
	if got := MBUsed(d); got != 2 {
		t.Fatalf("expected 2 MB, got %v", got)
	}
}

func TestCostModelBalanceFormula(t *testing.T) {
	m := DefaultCostModel()
	d := &Device{BytesSent: 1024 * 1024, BytesReceived: 0}
	want := 1.0 * m.FNewtons * m.DMeters * m.CosTheta * m.USDPerJoule
	if got := m.Balance(d); got != want {
		t.Fatalf("expected balance %v, got %v", want, got)
	}
}

func TestCostModelApplyRunningSumInvariant(t *testing.T) {
	m := DefaultCostModel()
	devices := []*Device{
		{DeviceID: "a", BytesSent: 1024 * 1024},
		{DeviceID: "b", BytesReceived: 2 * 1024 * 1024},
		{DeviceID: "c", BytesSent: 512 * 1024, BytesReceived: 512 * 1024},
	}
	total := m.Apply(devices)

	// invariant C3: total_cost must equal the exact sum of the Balance
	// values Apply itself just wrote, accumulated in the same order — never
	// recomputed independently.
	var recomputed float64
	for _, d := range devices {
		recomputed += d.Balance
	}
	if total != recomputed {
		t.Fatalf("invariant C3 violated: Apply returned %v, sum of Balance fields is %v", total, recomputed)
	}
	for _, d := range devices {
		if d.Balance != m.Balance(d) {
			t.Fatalf("device %s balance %v does not match CostModel.Balance %v", d.DeviceID, d.Balance, m.Balance(d))
		}
	}
}

func TestFormatUSDPrecision(t *testing.T) {
	if got, want := FormatUSD(1.5), "1.500000"; got != want {
		t.Fatalf("FormatUSD(1.5) = %s, want %s", got, want)
	}
}
