package core

// payment.go — PaymentOrchestrator (spec §4.7).
//
// Drives the per-device micropayment state machine
// PENDING → AUTHORIZED → PROCESSING → SETTLED, with a side exit → FAILED
// from any non-terminal state. Invoice encoding and settlement submission
// are delegated to the external Lightning adapter (spec §1 Non-goals, §6);
// this package only manages the state machine and the USD→satoshi
// conversion.

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
)

// DefaultRateUSDPerBTC is the configurable USD/BTC conversion rate used when
// a caller does not override it (spec §4.7, §9 Open Questions).
const DefaultRateUSDPerBTC = 40_000.0

// DefaultInvoiceExpiry is the lifetime of a freshly created invoice.
const DefaultInvoiceExpiry = 600 * time.Second

const satoshiPerBTC = 1.0e8

// Payment is the micropayment record for one device (spec §3).
type Payment struct {
	InvoiceBlob    string
	AmountSatoshi  uint64
	PaymentHash    [32]byte
	Expiry         time.Time
	State          PaymentState
	LastSubstate   PaymentState // set on failure: the last state observed before FAILED
}

// PaymentOrchestrator drives invoice creation and settlement.
type PaymentOrchestrator struct {
	adapter       PaymentAdapterExternal
	rateUSDPerBTC float64
	invoiceExpiry time.Duration
	clock         clock.Clock
	log           *logrus.Logger
}

// NewPaymentOrchestrator builds a PaymentOrchestrator. rateUSDPerBTC <= 0
// selects DefaultRateUSDPerBTC; invoiceExpiry <= 0 selects
// DefaultInvoiceExpiry.
func NewPaymentOrchestrator(adapter PaymentAdapterExternal, rateUSDPerBTC float64, invoiceExpiry time.Duration, clk clock.Clock, log *logrus.Logger) *PaymentOrchestrator {
	if rateUSDPerBTC <= 0 {
		rateUSDPerBTC = DefaultRateUSDPerBTC
	}
	if invoiceExpiry <= 0 {
		invoiceExpiry = DefaultInvoiceExpiry
	}
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PaymentOrchestrator{adapter: adapter, rateUSDPerBTC: rateUSDPerBTC, invoiceExpiry: invoiceExpiry, clock: clk, log: log}
}

// USDToSatoshi converts amountUSD to satoshi at rateUSDPerBTC using
// round-half-to-even ("banker's rounding" — spec §9 Open Questions resolves
// the original's unspecified rounding mode this way).
func USDToSatoshi(amountUSD, rateUSDPerBTC float64) uint64 {
	raw := (amountUSD / rateUSDPerBTC) * satoshiPerBTC
	return uint64(bankersRound(raw))
}

func bankersRound(x float64) float64 {
	floor := math.Floor(x)
	diff := x - floor
	switch {
	case diff < 0.5:
		return floor
	case diff > 0.5:
		return floor + 1
	default:
		if math.Mod(floor, 2) == 0 {
			return floor
		}
		return floor + 1
	}
}

// CreateInvoice converts amountUSD to satoshi and delegates invoice encoding
// to the external adapter. On success the device moves PENDING → AUTHORIZED
// (mirroring the original source's payment_authorized flag being set
// immediately once an invoice exists). On adapter failure the device moves
// to FAILED and the device-level InvoiceCreationFailed error is returned —
// this does not abort the session (spec §7).
func (p *PaymentOrchestrator) CreateInvoice(d *Device, amountUSD float64) (*Payment, error) {
	satoshi := USDToSatoshi(amountUSD, p.rateUSDPerBTC)
	expiry := p.clock.Now().Add(p.invoiceExpiry)

	blob, err := p.adapter.EncodeInvoice(satoshi, expiry)
	if err != nil {
		d.PaymentState = PaymentFailed
		return nil, NewDeviceError(CodeInvoiceCreationFailed, d.DeviceID, err)
	}

	hash := Sha256([]byte(d.DeviceID), []byte(blob))
	pay := &Payment{
		InvoiceBlob:   blob,
		AmountSatoshi: satoshi,
		PaymentHash:   hash,
		Expiry:        expiry,
		State:         PaymentAuthorized,
	}
	d.PaymentState = PaymentAuthorized
	p.log.WithFields(logrus.Fields{"device_id": d.DeviceID, "amount_sat": satoshi}).Info("invoice created")
	return pay, nil
}

// Settle drives an AUTHORIZED payment through PROCESSING to SETTLED via the
// external adapter, bounded by the invoice's expiry. Failure at any
// sub-step — adapter error, expiry, or a non-success terminal update —
// transitions the device to FAILED and returns an error carrying the last
// observed substate; this is a per-device failure and does not abort
// accounting for the rest of the session (spec §4.7, §7).
func (p *PaymentOrchestrator) Settle(ctx context.Context, d *Device, pay *Payment) error {
	if d.PaymentState != PaymentAuthorized {
		return fmt.Errorf("settle: device %s not in AUTHORIZED state (got %s)", d.DeviceID, d.PaymentState)
	}

	d.PaymentState = PaymentProcessing
	pay.State = PaymentProcessing

	updates, err := p.adapter.Submit(pay.InvoiceBlob)
	if err != nil {
		return p.fail(d, pay, PaymentProcessing, err)
	}

	deadline := pay.Expiry.Sub(p.clock.Now())
	if deadline < 0 {
		deadline = 0
	}
	timer := p.clock.Timer(deadline)
	defer timer.Stop()

	select {
	case update, ok := <-updates:
		if !ok {
			return p.fail(d, pay, PaymentProcessing, fmt.Errorf("settlement channel closed without a terminal update"))
		}
		if update.Err != nil || update.State != PaymentSettled {
			return p.fail(d, pay, PaymentProcessing, update.Err)
		}
		d.PaymentState = PaymentSettled
		pay.State = PaymentSettled
		p.log.WithField("device_id", d.DeviceID).Info("payment settled")
		return nil
	case <-timer.C:
		return p.fail(d, pay, PaymentProcessing, fmt.Errorf("invoice expired before settlement"))
	case <-ctx.Done():
		return p.fail(d, pay, PaymentProcessing, ctx.Err())
	}
}

func (p *PaymentOrchestrator) fail(d *Device, pay *Payment, lastSubstate PaymentState, cause error) error {
	d.PaymentState = PaymentFailed
	pay.State = PaymentFailed
	pay.LastSubstate = lastSubstate
	p.log.WithFields(logrus.Fields{"device_id": d.DeviceID, "last_substate": lastSubstate}).WithError(cause).Warn("payment failed")
	return NewDeviceError(CodeInvoiceCreationFailed, d.DeviceID, fmt.Errorf("last substate %s: %w", lastSubstate, cause))
}
