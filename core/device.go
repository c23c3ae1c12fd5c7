package core

// device.go — Device, Role and DeviceRegistry (spec §3, §4.4, §9).
//
// The registry replaces the C source's next-pointer linked list with an
// insertion-ordered associative container, matching the sibling project's
// AccessController pattern (core/access_control.go: map + mutex + stable
// iteration) rather than introducing owning pointers for peer adjacency.

import (
	"errors"
	"sync"
	"time"
)

// Role is a device's participation role in a session (spec §3).
type Role int

const (
	RoleHost Role = iota
	RoleClient
	RoleRelay
	RoleObserver
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RoleClient:
		return "client"
	case RoleRelay:
		return "relay"
	case RoleObserver:
		return "observer"
	default:
		return "unknown"
	}
}

// TrinaryState is the four-valued consent vote (spec §3, §4.3, Glossary
// NSIGII). EPSILON ("no response") is a distinct state from MAYBE
// ("undecided") — never conflate the two.
type TrinaryState int

const (
	TrinaryNo TrinaryState = iota
	TrinaryYes
	TrinaryMaybe
	TrinaryEpsilon
)

func (s TrinaryState) String() string {
	switch s {
	case TrinaryNo:
		return "NO"
	case TrinaryYes:
		return "YES"
	case TrinaryMaybe:
		return "MAYBE"
	case TrinaryEpsilon:
		return "EPSILON"
	default:
		return "UNKNOWN"
	}
}

// TrinarySymbol pairs a trinary state with the entropy/timestamp metadata
// the spec's data model carries (spec §3). Entropy is an opaque
// signal-quality measure from the radio layer (e.g. derived from RSSI);
// BlueShare's core does not interpret its value beyond carrying it through.
type TrinarySymbol struct {
	State     TrinaryState
	Entropy   float64
	Timestamp time.Time
}

// PaymentState is the per-device micropayment state (spec §3, §4.7).
type PaymentState int

const (
	PaymentPending PaymentState = iota
	PaymentAuthorized
	PaymentProcessing
	PaymentSettled
	PaymentFailed
)

func (p PaymentState) String() string {
	switch p {
	case PaymentPending:
		return "PENDING"
	case PaymentAuthorized:
		return "AUTHORIZED"
	case PaymentProcessing:
		return "PROCESSING"
	case PaymentSettled:
		return "SETTLED"
	case PaymentFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Device is a session participant (spec §3). Created on admission, mutated
// only by the owning session's coordinator goroutine, destroyed on session
// end.
type Device struct {
	DeviceID      string
	DisplayName   string
	Role          Role
	RSSI          int
	MTU           int
	BytesSent     uint64
	BytesReceived uint64
	BandwidthMbps float64
	CostPerMB     float64
	Balance       float64
	PaymentState  PaymentState
	Consent       TrinarySymbol
	Peers         []string // device IDs, index-based adjacency — never owning references (spec §9)
	LastSeen      time.Time

	// owesCleared is carried on the Device but nothing sets or reads it:
	// DeviceRegistry.Admit does not check it, so a device that ended a
	// prior session in FAILED payment state is not blocked from
	// re-admission.
	owesCleared bool
}

// DeviceRegistry tracks admitted devices in insertion order (spec §4.4). The
// iteration order is load-bearing: cost allocation's running-sum invariant
// (C3) depends on a stable enumeration order across a session.
type DeviceRegistry struct {
	mu      sync.RWMutex
	order   []string
	devices map[string]*Device
}

// NewDeviceRegistry returns an empty registry.
func NewDeviceRegistry() *DeviceRegistry {
	return &DeviceRegistry{devices: make(map[string]*Device)}
}

// Admit adds a device to the registry. It returns an error if a device with
// the same DeviceID is already present (spec invariant C4: no duplicate
// device IDs within a session) or the registry is at MaxDevices capacity.
func (r *DeviceRegistry) Admit(d *Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.devices[d.DeviceID]; exists {
		return errors.New("device already admitted: duplicate device_id")
	}
	if len(r.order) >= MaxDevices {
		return NewError(CodeNoSlots, SeverityPerDevice)
	}
	r.devices[d.DeviceID] = d
	r.order = append(r.order, d.DeviceID)
	return nil
}

// Get returns the device for id, or CodeDeviceNotFound.
func (r *DeviceRegistry) Get(id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[id]
	if !ok {
		return nil, NewDeviceError(CodeDeviceNotFound, id, nil)
	}
	return d, nil
}

// Remove drops a stale device reference (spec §7: device-not-found is
// recoverable by silently dropping the reference). Removing an absent
// device is a no-op, not an error.
func (r *DeviceRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[id]; !ok {
		return
	}
	delete(r.devices, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Devices returns all admitted devices in stable admission order. The
// returned slice is a snapshot; mutating the Device values through it is
// how the owning session thread is expected to update state (spec §5:
// single-writer per session).
func (r *DeviceRegistry) Devices() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Device, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.devices[id])
	}
	return out
}

// Count returns the number of admitted devices.
func (r *DeviceRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// HostCount returns the number of admitted devices with RoleHost.
func (r *DeviceRegistry) HostCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, id := range r.order {
		if r.devices[id].Role == RoleHost {
			n++
		}
	}
	return n
}

// Clear empties the registry. Used on session teardown when compliance
// fails (spec §4.8).
func (r *DeviceRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.devices = make(map[string]*Device)
}
