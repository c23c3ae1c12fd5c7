package core

// consensus.go — NSIGII trinary consensus (spec §4.3, Glossary).
//
// One request cycle: solicit a trinary reply from every candidate device
// within T_vote, then aggregate with the "any NO rejects, ties break toward
// PENDING" rule. Vote arrivals are concurrent (one goroutine per candidate,
// as the sibling project's consensus engine fans work out to per-validator
// goroutines) but aggregation itself is a single commutative pass over the
// collected map, so arrival order never affects the result.

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
)

// Result is the outcome of one consensus cycle (spec §4.3).
type Result int

const (
	ResultAccepted Result = iota
	ResultRejected
	ResultPending
)

func (r Result) String() string {
	switch r {
	case ResultAccepted:
		return "ACCEPTED"
	case ResultRejected:
		return "REJECTED"
	case ResultPending:
		return "PENDING"
	default:
		return "UNKNOWN"
	}
}

// DefaultVoteTimeout is T_vote (spec §4.3).
const DefaultVoteTimeout = 5 * time.Second

// Consensus runs admission polls against candidate devices over a BLEAdapter.
type Consensus struct {
	adapter     BLEAdapter
	voteTimeout time.Duration
	clock       clock.Clock
	log         *logrus.Logger

	// OnVote, if set, is called once per candidate as its vote is recorded.
	// It exists purely for observers (e.g. the monitoring API's websocket
	// stream) and plays no part in aggregation.
	OnVote func(deviceID string, sym TrinarySymbol)
}

// NewConsensus builds a Consensus. A nil clk defaults to the real wall
// clock; a nil logger defaults to logrus.StandardLogger().
func NewConsensus(adapter BLEAdapter, voteTimeout time.Duration, clk clock.Clock, log *logrus.Logger) *Consensus {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if voteTimeout <= 0 {
		voteTimeout = DefaultVoteTimeout
	}
	return &Consensus{adapter: adapter, voteTimeout: voteTimeout, clock: clk, log: log}
}

// Collect solicits a vote from every candidate device and aggregates the
// result. The returned map always has one entry per candidate (EPSILON for
// any device that errored, timed out, or whose context was cancelled).
func (c *Consensus) Collect(ctx context.Context, candidateIDs []string) (map[string]TrinarySymbol, Result) {
	votes := make(map[string]TrinarySymbol, len(candidateIDs))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, id := range candidateIDs {
		wg.Add(1)
		go func(deviceID string) {
			defer wg.Done()
			sym := c.awaitVote(ctx, deviceID)
			mu.Lock()
			votes[deviceID] = sym
			mu.Unlock()
			if c.OnVote != nil {
				c.OnVote(deviceID, sym)
			}
		}(id)
	}
	wg.Wait()
	result := c.Aggregate(votes)
	c.log.WithFields(logrus.Fields{
		"candidates": len(candidateIDs),
		"result":     result.String(),
	}).Info("consensus cycle complete")
	return votes, result
}

func (c *Consensus) awaitVote(ctx context.Context, deviceID string) TrinarySymbol {
	epsilon := TrinarySymbol{State: TrinaryEpsilon, Timestamp: c.clock.Now()}

	ch, err := c.adapter.SendConsentRequest(ctx, deviceID, "participation")
	if err != nil {
		c.log.WithField("device_id", deviceID).WithError(err).Warn("consent request failed, recording EPSILON")
		return epsilon
	}

	timer := c.clock.Timer(c.voteTimeout)
	defer timer.Stop()

	select {
	case sym, ok := <-ch:
		if !ok {
			return epsilon
		}
		return sym
	case <-timer.C:
		c.log.WithField("device_id", deviceID).Debug("vote timed out, recording EPSILON")
		return epsilon
	case <-ctx.Done():
		return epsilon
	}
}

// Aggregate applies the spec §4.3 rule to an already-collected vote map:
// any NO rejects outright (without disclosing which device objected, only
// the aggregate counts); otherwise a majority of YES with zero NO accepts;
// everything else — including an all-EPSILON round — is PENDING. Ties
// always break toward PENDING, never ACCEPTED.
func (c *Consensus) Aggregate(votes map[string]TrinarySymbol) Result {
	var yes, no int
	for _, v := range votes {
		switch v.State {
		case TrinaryYes:
			yes++
		case TrinaryNo:
			no++
		}
	}
	if no > 0 {
		return ResultRejected
	}
	needed := (len(votes) + 1) / 2 // ceil(device_count / 2)
	if yes >= needed && needed > 0 {
		return ResultAccepted
	}
	return ResultPending
}
