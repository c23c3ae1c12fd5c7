package core

import "testing"

func TestSelectTopologyNoHostsIsFatal(t *testing.T) {
	_, err := SelectTopology(4, 0)
	if err == nil {
		t.Fatalf("expected an error when no hosts are available")
	}
	coreErr, ok := err.(*Error)
	if !ok || coreErr.Code != CodeNoHostsAvailable {
		t.Fatalf("expected CodeNoHostsAvailable, got %v", err)
	}
	if coreErr.Severity != SeverityFatalSession {
		t.Fatalf("expected no-hosts-available to be session-fatal, got severity %v", coreErr.Severity)
	}
}

func TestSelectTopologyTable(t *testing.T) {
	cases := []struct {
		name        string
		deviceCount int
		hostCount   int
		want        Topology
	}{
		{"small star", 3, 1, TopologyStar},
		{"bus range", 4, 1, TopologyBus},
		{"bus two hosts", 5, 2, TopologyBus},
		{"mesh two hosts large", 6, 2, TopologyMesh},
		{"hybrid single host large group", 8, 1, TopologyHybrid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SelectTopology(tc.deviceCount, tc.hostCount)
			if err != nil {
				t.Fatalf("SelectTopology(%d, %d): %v", tc.deviceCount, tc.hostCount, err)
			}
			if got != tc.want {
				t.Fatalf("SelectTopology(%d, %d) = %s, want %s", tc.deviceCount, tc.hostCount, got, tc.want)
			}
		})
	}
}
