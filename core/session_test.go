package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

// fixedVoteBLE answers every SendConsentRequest immediately with the state
// scripted for that device (defaulting to YES if unscripted).
type fixedVoteBLE struct {
	votes map[string]TrinaryState
}

func (b *fixedVoteBLE) Scan(ctx context.Context) ([]ScannedDevice, error) { return nil, nil }

func (b *fixedVoteBLE) SendConsentRequest(ctx context.Context, deviceID, kind string) (<-chan TrinarySymbol, error) {
	state, ok := b.votes[deviceID]
	if !ok {
		state = TrinaryYes
	}
	ch := make(chan TrinarySymbol, 1)
	ch <- TrinarySymbol{State: state, Timestamp: time.Now()}
	return ch, nil
}

func (b *fixedVoteBLE) Advertise(serviceUUID, name string, bandwidthHintMbps float64) error { return nil }

// fakeWiFi is a no-op WiFiAdapter recording the rate limits it was asked to
// apply and returning a fixed usage sample for every client.
type fakeWiFi struct {
	rateLimits map[string]int
}

func newFakeWiFi() *fakeWiFi { return &fakeWiFi{rateLimits: make(map[string]int)} }

func (w *fakeWiFi) CreateAccessPoint(ssid, password string) error { return nil }
func (w *fakeWiFi) ListClients() ([]string, error)                { return nil, nil }
func (w *fakeWiFi) SetRateLimit(clientMAC string, kbps int) error {
	w.rateLimits[clientMAC] = kbps
	return nil
}
func (w *fakeWiFi) MeasureUsage(clientMAC string) (UsageSample, error) {
	return UsageSample{BytesUp: 1024 * 1024, BytesDown: 1024 * 1024, Duration: time.Minute}, nil
}

// fakePayment settles every invoice immediately. Its failEncode and
// failSubmit fields are not consulted by either method.
type fakePayment struct {
	failEncode map[string]bool
	failSubmit map[string]bool
}

func (p *fakePayment) EncodeInvoice(amountSatoshi uint64, expiry time.Time) (string, error) {
	return fmt.Sprintf("blob-%d", amountSatoshi), nil
}

func (p *fakePayment) Submit(invoiceBlob string) (<-chan PaymentStateUpdate, error) {
	ch := make(chan PaymentStateUpdate, 1)
	ch <- PaymentStateUpdate{State: PaymentSettled}
	return ch, nil
}

func makeCandidate(t *testing.T, zctx *ZeroContext, name string, role Role, bandwidth float64) CandidateDevice {
	t.Helper()
	zid, err := CreateZeroID(zctx, []byte(name+"-secret"))
	if err != nil {
		t.Fatalf("CreateZeroID(%s): %v", name, err)
	}
	key := CreateZeroKey(zctx, zid)
	var challenge Challenge
	copy(challenge[:], []byte(name))
	proof := CreateProof(zid, challenge)
	return CandidateDevice{
		ZID: zid, Key: key, Proof: proof,
		DisplayName: name, Role: role, RSSI: -40, MTU: 512,
		BandwidthMbps: bandwidth,
	}
}

func newTestCoordinator(t *testing.T, ble BLEAdapter, wifi WiFiAdapter, pay PaymentAdapterExternal) (*SessionCoordinator, *ZeroContext) {
	t.Helper()
	zctx, err := NewZeroContext("test-v1")
	if err != nil {
		t.Fatalf("NewZeroContext: %v", err)
	}
	t.Cleanup(zctx.Destroy)

	mockClock := clock.NewMock()
	consensus := NewConsensus(ble, 5*time.Second, mockClock, nil)
	payments := NewPaymentOrchestrator(pay, 0, time.Minute, mockClock, nil)
	compliance := NewComplianceAuditor(nil)
	coordinator := NewSessionCoordinator(zctx, consensus, DefaultCostModel(), payments, compliance, wifi, mockClock, nil)
	return coordinator, zctx
}

// Scenario A: four devices (one host, three clients), unanimous consent ->
// session activates on a BUS topology (device_count<=5, host_count<=2).
func TestSessionScenarioA_FourDeviceBusSession(t *testing.T) {
	ble := &fixedVoteBLE{votes: map[string]TrinaryState{}}
	wifi := newFakeWiFi()
	pay := &fakePayment{}
	coordinator, zctx := newTestCoordinator(t, ble, wifi, pay)

	candidates := []CandidateDevice{
		makeCandidate(t, zctx, "host-1", RoleHost, 20),
		makeCandidate(t, zctx, "client-1", RoleClient, 0),
		makeCandidate(t, zctx, "client-2", RoleClient, 0),
		makeCandidate(t, zctx, "client-3", RoleClient, 0),
	}

	sess, err := coordinator.Run(context.Background(), candidates, "ssid", "pass")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sess.IsActive {
		t.Fatalf("expected session to activate")
	}
	if sess.Topology != TopologyBus {
		t.Fatalf("expected BUS topology, got %s", sess.Topology)
	}
	if len(sess.Devices) != 4 {
		t.Fatalf("expected 4 admitted devices, got %d", len(sess.Devices))
	}
	if sess.PaymentsFailed != 0 {
		t.Fatalf("expected no payment failures, got %d", sess.PaymentsFailed)
	}
}

// Scenario B: every device votes NO -> the whole round is REJECTED and the
// session never activates (invariant: any NO rejects, regardless of count).
func TestSessionScenarioB_ConsensusRejected(t *testing.T) {
	ble := &constantVoteBLE{state: TrinaryNo}
	wifi := newFakeWiFi()
	pay := &fakePayment{}
	coordinator, zctx := newTestCoordinator(t, ble, wifi, pay)

	candidates := []CandidateDevice{
		makeCandidate(t, zctx, "host-1", RoleHost, 20),
		makeCandidate(t, zctx, "client-1", RoleClient, 0),
		makeCandidate(t, zctx, "client-2", RoleClient, 0),
	}

	sess, err := coordinator.Run(context.Background(), candidates, "ssid", "pass")
	if err == nil {
		t.Fatalf("expected session to fail with consensus rejected")
	}
	coreErr, ok := err.(*Error)
	if !ok || coreErr.Code != CodeConsensusRejected {
		t.Fatalf("expected CodeConsensusRejected, got %v", err)
	}
	if sess.IsActive {
		t.Fatalf("expected rejected session to not activate")
	}
}

// constantVoteBLE always returns the same trinary state for every device.
type constantVoteBLE struct{ state TrinaryState }

func (b *constantVoteBLE) Scan(ctx context.Context) ([]ScannedDevice, error) { return nil, nil }
func (b *constantVoteBLE) SendConsentRequest(ctx context.Context, deviceID, kind string) (<-chan TrinarySymbol, error) {
	ch := make(chan TrinarySymbol, 1)
	ch <- TrinarySymbol{State: b.state, Timestamp: time.Now()}
	return ch, nil
}
func (b *constantVoteBLE) Advertise(serviceUUID, name string, bandwidthHintMbps float64) error { return nil }

// Scenario C: a single host and two clients selects the STAR topology.
func TestSessionScenarioC_PureStar(t *testing.T) {
	ble := &constantVoteBLE{state: TrinaryYes}
	wifi := newFakeWiFi()
	pay := &fakePayment{}
	coordinator, zctx := newTestCoordinator(t, ble, wifi, pay)

	candidates := []CandidateDevice{
		makeCandidate(t, zctx, "host-1", RoleHost, 10),
		makeCandidate(t, zctx, "client-1", RoleClient, 0),
		makeCandidate(t, zctx, "client-2", RoleClient, 0),
	}

	sess, err := coordinator.Run(context.Background(), candidates, "ssid", "pass")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sess.Topology != TopologyStar {
		t.Fatalf("expected STAR topology, got %s", sess.Topology)
	}
}

// Scenario D: two hosts and four clients crosses the MESH threshold and
// populates full peer adjacency for every device.
func TestSessionScenarioD_MeshThreshold(t *testing.T) {
	ble := &constantVoteBLE{state: TrinaryYes}
	wifi := newFakeWiFi()
	pay := &fakePayment{}
	coordinator, zctx := newTestCoordinator(t, ble, wifi, pay)

	candidates := []CandidateDevice{
		makeCandidate(t, zctx, "host-1", RoleHost, 20),
		makeCandidate(t, zctx, "host-2", RoleHost, 20),
		makeCandidate(t, zctx, "client-1", RoleClient, 0),
		makeCandidate(t, zctx, "client-2", RoleClient, 0),
		makeCandidate(t, zctx, "client-3", RoleClient, 0),
		makeCandidate(t, zctx, "client-4", RoleClient, 0),
	}

	sess, err := coordinator.Run(context.Background(), candidates, "ssid", "pass")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sess.Topology != TopologyMesh {
		t.Fatalf("expected MESH topology, got %s", sess.Topology)
	}
	for _, d := range sess.Devices {
		if len(d.Peers) != len(sess.Devices)-1 {
			t.Fatalf("device %s: expected %d peers, got %d", d.DeviceID, len(sess.Devices)-1, len(d.Peers))
		}
	}
}

// Scenario F: the gateway accepts only the first invoice, so both client
// payments fail at invoice creation; the session still activates and
// records each failure.
func TestSessionScenarioF_PartialPaymentFailure(t *testing.T) {
	ble := &constantVoteBLE{state: TrinaryYes}
	wifi := newFakeWiFi()
	pay := &selectiveFailPayment{failAfter: 1} // first device to invoice succeeds, the rest fail

	coordinator, zctx := newTestCoordinator(t, ble, wifi, pay)
	candidates := []CandidateDevice{
		makeCandidate(t, zctx, "host-1", RoleHost, 20),
		makeCandidate(t, zctx, "client-1", RoleClient, 0),
		makeCandidate(t, zctx, "client-2", RoleClient, 0),
	}

	sess, err := coordinator.Run(context.Background(), candidates, "ssid", "pass")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sess.IsActive {
		t.Fatalf("expected session to activate despite partial payment failure")
	}
	if sess.PaymentsFailed == 0 {
		t.Fatalf("expected at least one payment failure to be recorded")
	}
	if len(sess.PaymentErrors) != sess.PaymentsFailed {
		t.Fatalf("PaymentErrors length %d does not match PaymentsFailed %d", len(sess.PaymentErrors), sess.PaymentsFailed)
	}
}

// selectiveFailPayment lets the first N invoices succeed and fails every
// one after that (simulating a gateway running out of capacity).
type selectiveFailPayment struct {
	failAfter int
	count     int
}

func (p *selectiveFailPayment) EncodeInvoice(amountSatoshi uint64, expiry time.Time) (string, error) {
	p.count++
	if p.count > p.failAfter {
		return "", fmt.Errorf("gateway capacity exceeded")
	}
	return fmt.Sprintf("blob-%d", amountSatoshi), nil
}

func (p *selectiveFailPayment) Submit(invoiceBlob string) (<-chan PaymentStateUpdate, error) {
	ch := make(chan PaymentStateUpdate, 1)
	ch <- PaymentStateUpdate{State: PaymentSettled}
	return ch, nil
}

// Scenario E (identity unlinkability at session scope): a candidate with an
// invalid proof is dropped during admission rather than aborting the whole
// session, and privacy_verified still holds because every admitted device's
// proof verified.
func TestSessionDropsCandidateWithInvalidProof(t *testing.T) {
	ble := &constantVoteBLE{state: TrinaryYes}
	wifi := newFakeWiFi()
	pay := &fakePayment{}
	coordinator, zctx := newTestCoordinator(t, ble, wifi, pay)

	good := makeCandidate(t, zctx, "host-1", RoleHost, 20)
	bad := makeCandidate(t, zctx, "client-1", RoleClient, 0)
	bad.Proof.Digest[0] ^= 0xFF // tamper so VerifyProof fails

	sess, err := coordinator.Run(context.Background(), []CandidateDevice{good, bad}, "ssid", "pass")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sess.Devices) != 1 {
		t.Fatalf("expected exactly 1 admitted device, got %d", len(sess.Devices))
	}
	if !sess.PrivacyVerified {
		t.Fatalf("expected privacy_verified to be true: every admitted device's proof verified")
	}
}

func TestSessionCancelFailsNonTerminalPayments(t *testing.T) {
	ble := &constantVoteBLE{state: TrinaryYes}
	wifi := newFakeWiFi()
	pay := &fakePayment{}
	coordinator, _ := newTestCoordinator(t, ble, wifi, pay)

	sess := &Session{
		Devices: []*Device{
			{DeviceID: "a", PaymentState: PaymentAuthorized},
			{DeviceID: "b", PaymentState: PaymentSettled},
		},
	}
	coordinator.Cancel(sess)
	if sess.IsActive {
		t.Fatalf("expected cancelled session to be inactive")
	}
	if sess.Devices[0].PaymentState != PaymentFailed {
		t.Fatalf("expected non-terminal payment to move to FAILED")
	}
	if sess.Devices[1].PaymentState != PaymentSettled {
		t.Fatalf("expected already-settled payment to remain SETTLED")
	}
}
