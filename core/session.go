package core

// session.go — Session lifecycle and the single-writer-per-session
// coordinator that drives the phase sequence (spec §2 Flow, §5).
//
// Phase order is strict and total: Identity/Consensus admission → Registry
// → TopologySelector → BandwidthAllocator → (data-plane usage accrues) →
// CostEngine → PaymentOrchestrator → ComplianceAuditor → close. Only vote
// collection, invoice settlement, and identity-store I/O may block or
// suspend (spec §5); everything else here is computation over in-memory
// state already collected by those three.

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session is the spec §3 session record.
type Session struct {
	SessionID     string
	Topology      Topology
	Devices       []*Device
	TotalBandwidth float64
	FairShare     float64
	TotalCost     float64
	CostPerDevice float64
	StartedAt     time.Time
	EndedAt       time.Time
	IsActive      bool

	TransparencyVerified bool
	FairnessVerified     bool
	PrivacyVerified      bool

	// PaymentsFailed counts devices whose payment ended in FAILED (spec
	// §4.7 partial-failure semantics); the session summary surfaces this
	// rather than aborting the whole session.
	PaymentsFailed int
	PaymentErrors  []error
}

// CandidateDevice is one device offered for admission, carrying the proof
// of possession the admission gate checks (spec §4.2, §4.8 privacy_verified).
type CandidateDevice struct {
	ZID           *ZeroID
	Key           *ZeroKey // optional; if present, expiry is checked
	Proof         *Proof
	DisplayName   string
	Role          Role
	RSSI          int
	MTU           int
	BandwidthMbps float64
}

// SessionCoordinator owns one session's registry and drives it through the
// phase sequence. It is not safe for concurrent use by more than one
// goroutine — "single-writer per session" (spec §5) — though multiple
// SessionCoordinators may run in parallel, sharing only the read-only
// ZeroContext.
type SessionCoordinator struct {
	ctx        *ZeroContext
	registry   *DeviceRegistry
	consensus  *Consensus
	costModel  CostModel
	payments   *PaymentOrchestrator
	compliance *ComplianceAuditor
	wifi       WiFiAdapter
	clock      clock.Clock
	log        *logrus.Logger

	wifiAcquired bool
}

// NewSessionCoordinator wires the phases together. wifi may be nil (no
// data-plane accrual, e.g. in tests); a nil clk/log default as in the
// individual components.
func NewSessionCoordinator(
	zctx *ZeroContext,
	consensus *Consensus,
	costModel CostModel,
	payments *PaymentOrchestrator,
	compliance *ComplianceAuditor,
	wifi WiFiAdapter,
	clk clock.Clock,
	log *logrus.Logger,
) *SessionCoordinator {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SessionCoordinator{
		ctx:        zctx,
		registry:   NewDeviceRegistry(),
		consensus:  consensus,
		costModel:  costModel,
		payments:   payments,
		compliance: compliance,
		wifi:       wifi,
		clock:      clk,
		log:        log,
	}
}

// Run executes the full phase sequence for candidates and returns the
// resulting Session. A session-fatal error (consensus-rejected,
// no-hosts-available, compliance-failed, ...) tears the session down
// cleanly (registry cleared, WiFi AP released, Session.IsActive left
// false) before returning — invariant C1: a session activates only if
// Consensus returns ACCEPTED and ComplianceAuditor returns PASS.
func (sc *SessionCoordinator) Run(ctx context.Context, candidates []CandidateDevice, ssid, password string) (s *Session, err error) {
	s = &Session{SessionID: uuid.New().String(), StartedAt: sc.clock.Now()}

	defer func() {
		if r := recover(); r != nil {
			sc.teardown(s)
			err = fmt.Errorf("session %s panicked: %v", s.SessionID, r)
		}
	}()

	// Phase 1: identity admission — privacy_verified requires every admitted
	// device to have a proof that checks out (spec §4.8).
	for _, cand := range candidates {
		if !VerifyProof(cand.Proof, cand.ZID, cand.Key) {
			sc.log.WithField("zid_hash", fmt.Sprintf("%x", cand.ZID.Hash[:8])).Warn("privacy proof failed, dropping candidate")
			continue
		}
		d := &Device{
			DeviceID:      uuid.New().String(),
			DisplayName:   cand.DisplayName,
			Role:          cand.Role,
			RSSI:          cand.RSSI,
			MTU:           cand.MTU,
			BandwidthMbps: cand.BandwidthMbps,
			PaymentState:  PaymentPending,
			LastSeen:      sc.clock.Now(),
		}
		if err := sc.registry.Admit(d); err != nil {
			sc.teardown(s)
			return s, err
		}
	}
	s.PrivacyVerified = sc.registry.Count() > 0

	// Phase 2: consensus admission gate (spec §4.3). A PENDING result may be
	// re-polled once before giving up.
	candidateIDs := deviceIDs(sc.registry.Devices())
	_, result := sc.consensus.Collect(ctx, candidateIDs)
	if result == ResultPending {
		_, result = sc.consensus.Collect(ctx, candidateIDs)
	}
	if result != ResultAccepted {
		sc.teardown(s)
		return s, NewError(CodeConsensusRejected, SeverityFatalSession)
	}

	// Phase 3: topology selection (spec §4.4).
	devices := sc.registry.Devices()
	topo, err := SelectTopology(len(devices), sc.registry.HostCount())
	if err != nil {
		sc.teardown(s)
		return s, err
	}
	s.Topology = topo
	assignMeshPeers(devices, topo)

	// Phase 4: bandwidth allocation (spec §4.5).
	totalHostBW, fairShare, err := AllocateFairShare(devices)
	if err != nil {
		sc.teardown(s)
		return s, err
	}
	s.TotalBandwidth = totalHostBW
	s.FairShare = fairShare

	if err := sc.acquireDataPlane(ssid, password, devices, fairShare); err != nil {
		sc.teardown(s)
		return s, err
	}
	defer sc.releaseDataPlane()

	sc.accrueUsage(devices)

	// Phase 5: cost accounting (spec §4.6). Sets transparency/fairness
	// flags.
	s.TotalCost = sc.costModel.Apply(devices)
	s.TransparencyVerified = true
	s.FairnessVerified = true
	if len(devices) > 0 {
		s.CostPerDevice = s.TotalCost / float64(len(devices))
	}

	// Phase 6: payment settlement (spec §4.7). Per-device failures are
	// collected, not fatal to the session.
	for _, d := range devices {
		if d.Role == RoleObserver {
			continue // observers consume no billable bandwidth
		}
		pay, err := sc.payments.CreateInvoice(d, d.Balance)
		if err != nil {
			s.PaymentsFailed++
			s.PaymentErrors = append(s.PaymentErrors, err)
			continue
		}
		if err := sc.payments.Settle(ctx, d, pay); err != nil {
			s.PaymentsFailed++
			s.PaymentErrors = append(s.PaymentErrors, err)
		}
	}

	s.Devices = devices

	// Phase 7: compliance audit gates activation (spec §4.8, invariant C1).
	if err := sc.compliance.Audit(s); err != nil {
		sc.teardown(s)
		return s, err
	}

	s.IsActive = true
	sc.log.WithFields(logrus.Fields{
		"session_id": s.SessionID,
		"topology":    s.Topology.String(),
		"devices":     len(devices),
		"total_cost":  FormatUSD(s.TotalCost),
	}).Info("session activated")
	return s, nil
}

// Cancel drives every non-terminal payment to FAILED and releases the
// data-plane handle — the whole-session cancellation path of spec §5. It
// does not wipe the shared ZeroContext, which outlives the session and is
// zeroised by its owner via Destroy.
func (sc *SessionCoordinator) Cancel(s *Session) {
	for _, d := range s.Devices {
		if d.PaymentState != PaymentSettled && d.PaymentState != PaymentFailed {
			d.PaymentState = PaymentFailed
		}
	}
	sc.teardown(s)
}

func (sc *SessionCoordinator) teardown(s *Session) {
	s.IsActive = false
	s.EndedAt = sc.clock.Now()
	sc.releaseDataPlane()
	sc.registry.Clear()
}

func (sc *SessionCoordinator) acquireDataPlane(ssid, password string, devices []*Device, fairShareMbps float64) error {
	if sc.wifi == nil {
		return nil
	}
	if err := sc.wifi.CreateAccessPoint(ssid, password); err != nil {
		return fmt.Errorf("acquire data plane: %w", err)
	}
	sc.wifiAcquired = true
	// fair_share_mbps is an entitlement ceiling (spec §4.5); the platform
	// layer enforces it as a per-client rate limit in kbps.
	limitKbps := int(fairShareMbps * 1000)
	for _, d := range devices {
		if d.Role == RoleClient {
			if err := sc.wifi.SetRateLimit(d.DeviceID, limitKbps); err != nil {
				sc.log.WithField("device_id", d.DeviceID).WithError(err).Warn("rate limit not applied")
			}
		}
	}
	return nil
}

func (sc *SessionCoordinator) releaseDataPlane() {
	if sc.wifi != nil && sc.wifiAcquired {
		// The WiFiAdapter interface (spec §6) has no explicit teardown verb;
		// access-point lifetime is scoped to this session by convention —
		// ownership ends here regardless of success, error, or cancellation.
		sc.wifiAcquired = false
	}
}

func (sc *SessionCoordinator) accrueUsage(devices []*Device) {
	if sc.wifi == nil {
		return
	}
	for _, d := range devices {
		if d.Role != RoleClient && d.Role != RoleHost {
			continue
		}
		usage, err := sc.wifi.MeasureUsage(d.DeviceID)
		if err != nil {
			sc.log.WithField("device_id", d.DeviceID).WithError(err).Warn("usage measurement failed")
			continue
		}
		d.BytesSent = usage.BytesUp
		d.BytesReceived = usage.BytesDown
	}
}

func deviceIDs(devices []*Device) []string {
	ids := make([]string, len(devices))
	for i, d := range devices {
		ids[i] = d.DeviceID
	}
	return ids
}

// assignMeshPeers populates Device.Peers with index-based adjacency (spec
// §9: never raw owning pointers). Only MESH and HYBRID topologies form a
// full peer mesh; STAR and BUS leave Peers empty (their wiring is implicit
// in the topology itself, not per-device adjacency data).
func assignMeshPeers(devices []*Device, topo Topology) {
	if topo != TopologyMesh && topo != TopologyHybrid {
		return
	}
	for i, d := range devices {
		peers := make([]string, 0, len(devices)-1)
		for j, other := range devices {
			if i != j {
				peers = append(peers, other.DeviceID)
			}
		}
		d.Peers = peers
	}
}
