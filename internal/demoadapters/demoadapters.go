// Package demoadapters provides simple in-memory BLEAdapter, WiFiAdapter,
// and PaymentAdapterExternal implementations so `blueshare session demo`
// can drive a full SessionCoordinator run without real radio or Lightning
// hardware attached. None of this is part of the domain model itself —
// concrete adapters are explicitly out of scope (spec §1, §6).
package demoadapters

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/obinexus/blueshare/core"
)

// BLE always answers YES for every candidate after a short simulated
// radio delay.
type BLE struct {
	Delay time.Duration
}

func (b *BLE) Scan(ctx context.Context) ([]core.ScannedDevice, error) {
	return nil, nil
}

func (b *BLE) SendConsentRequest(ctx context.Context, deviceID, kind string) (<-chan core.TrinarySymbol, error) {
	ch := make(chan core.TrinarySymbol, 1)
	go func() {
		delay := b.Delay
		if delay <= 0 {
			delay = 50 * time.Millisecond
		}
		select {
		case <-time.After(delay):
			ch <- core.TrinarySymbol{State: core.TrinaryYes, Timestamp: time.Now()}
		case <-ctx.Done():
		}
		close(ch)
	}()
	return ch, nil
}

func (b *BLE) Advertise(serviceUUID, name string, bandwidthHintMbps float64) error {
	return nil
}

// WiFi tracks per-client rate limits and reports a fixed usage sample for
// every client, in-memory.
type WiFi struct {
	rateLimits map[string]int
}

func NewWiFi() *WiFi {
	return &WiFi{rateLimits: make(map[string]int)}
}

func (w *WiFi) CreateAccessPoint(ssid, password string) error {
	return nil
}

func (w *WiFi) ListClients() ([]string, error) {
	clients := make([]string, 0, len(w.rateLimits))
	for id := range w.rateLimits {
		clients = append(clients, id)
	}
	return clients, nil
}

func (w *WiFi) SetRateLimit(clientMAC string, kbps int) error {
	w.rateLimits[clientMAC] = kbps
	return nil
}

func (w *WiFi) MeasureUsage(clientMAC string) (core.UsageSample, error) {
	return core.UsageSample{BytesUp: 2 * 1024 * 1024, BytesDown: 8 * 1024 * 1024, Duration: time.Minute}, nil
}

// Payment encodes each invoice as a synthetic blob and settles it
// immediately on Submit.
type Payment struct{}

func (p *Payment) EncodeInvoice(amountSatoshi uint64, expiry time.Time) (string, error) {
	return fmt.Sprintf("lnbc-demo-%d-%s", amountSatoshi, uuid.New().String()), nil
}

func (p *Payment) Submit(invoiceBlob string) (<-chan core.PaymentStateUpdate, error) {
	ch := make(chan core.PaymentStateUpdate, 1)
	go func() {
		time.Sleep(20 * time.Millisecond)
		ch <- core.PaymentStateUpdate{State: core.PaymentSettled}
		close(ch)
	}()
	return ch, nil
}
