package core

// adapters.go — external collaborators (spec §6). BlueShare's core never
// touches a BLE radio, a WiFi driver, or a Lightning gateway directly; it
// only depends on these narrow interfaces, matching the "wire-up interface"
// pattern the sibling project uses to keep consensus.go independent of any
// concrete network/security implementation.

import (
	"context"
	"time"
)

// ServiceUUID is the BLE GATT service UUID BlueShare advertises under,
// carried forward from the original C header (src/core/blueshare_core.h).
const ServiceUUID = "6E400001-B5A3-F393-E0A9-E50E24DCCA9E"

// Resource limits (spec §6 "Limits"). These are compile-time constants;
// the network.* values loaded by pkg/config are not read by core.
const (
	MaxNetworks              = 10
	MaxDevices               = 50
	MaxTransactionsInFlight  = 1000
)

// ScannedDevice is one entry returned by BLEAdapter.Scan.
type ScannedDevice struct {
	DeviceID string
	RSSI     int
	Name     string
}

// BLEAdapter is the consumed BLE radio/GATT interface (spec §6). Concrete
// implementations live outside this module's scope.
type BLEAdapter interface {
	Scan(ctx context.Context) ([]ScannedDevice, error)
	SendConsentRequest(ctx context.Context, deviceID string, kind string) (<-chan TrinarySymbol, error)
	Advertise(serviceUUID, name string, bandwidthHintMbps float64) error
}

// UsageSample is the result of WiFiAdapter.MeasureUsage.
type UsageSample struct {
	BytesUp   uint64
	BytesDown uint64
	Duration  time.Duration
}

// WiFiAdapter is the consumed WiFi access-point/tethering interface (spec
// §6).
type WiFiAdapter interface {
	CreateAccessPoint(ssid, password string) error
	ListClients() ([]string, error)
	SetRateLimit(clientMAC string, kbps int) error
	MeasureUsage(clientMAC string) (UsageSample, error)
}

// PaymentAdapterExternal is the consumed Lightning-network payment gateway
// (spec §6, §1 Out of scope: BOLT11 encoding is delegated here).
type PaymentAdapterExternal interface {
	EncodeInvoice(amountSatoshi uint64, expiry time.Time) (invoiceBlob string, err error)
	Submit(invoiceBlob string) (<-chan PaymentStateUpdate, error)
}

// PaymentStateUpdate is pushed by PaymentAdapterExternal.Submit as the
// external gateway's view of a payment progresses.
type PaymentStateUpdate struct {
	State PaymentState
	Err   error
}
