package services

import (
	"sync"
	"time"

	"github.com/obinexus/blueshare/core"
)

// VoteEvent is one consensus vote arrival, pushed to every subscriber of
// the /ws/votes stream as it is collected (spec §4.3).
type VoteEvent struct {
	DeviceID  string        `json:"device_id"`
	State     string        `json:"state"`
	Entropy   float64       `json:"entropy"`
	Timestamp time.Time     `json:"timestamp"`
}

// VoteBroadcaster fans out VoteEvents to any number of websocket
// subscribers. It is the monitoring-UI counterpart of Consensus.Collect:
// whatever composes a core.Consensus with a Server assigns
// consensus.OnVote = broadcaster.Publish (cmd/blueshare's "session demo
// --serve-addr" does this before calling SessionCoordinator.Run), and each
// connected browser then receives the same stream as votes land.
type VoteBroadcaster struct {
	mu          sync.Mutex
	subscribers map[chan VoteEvent]struct{}
}

// NewVoteBroadcaster builds an empty VoteBroadcaster.
func NewVoteBroadcaster() *VoteBroadcaster {
	return &VoteBroadcaster{subscribers: make(map[chan VoteEvent]struct{})}
}

// Subscribe registers a new channel that receives every future vote. The
// returned cancel function must be called to unsubscribe and release the
// channel.
func (b *VoteBroadcaster) Subscribe() (<-chan VoteEvent, func()) {
	ch := make(chan VoteEvent, 16)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish converts a vote into a VoteEvent and sends it to every current
// subscriber, dropping it for any subscriber whose buffer is full rather
// than blocking the caller.
func (b *VoteBroadcaster) Publish(deviceID string, vote core.TrinarySymbol) {
	evt := VoteEvent{
		DeviceID:  deviceID,
		State:     vote.State.String(),
		Entropy:   vote.Entropy,
		Timestamp: vote.Timestamp,
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}
