package controllers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/obinexus/blueshare/internal/apiserver/services"
)

// VoteStreamController upgrades /ws/votes connections and relays every
// VoteEvent published by the running consensus round, simulating a push
// of BLE consent arrivals to a monitoring UI.
type VoteStreamController struct {
	broadcaster *services.VoteBroadcaster
	upgrader    websocket.Upgrader
}

// NewVoteStreamController builds a VoteStreamController fed by b.
func NewVoteStreamController(b *services.VoteBroadcaster) *VoteStreamController {
	return &VoteStreamController{
		broadcaster: b,
		upgrader:    websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
}

// Stream upgrades the HTTP connection and writes one JSON VoteEvent per
// message until the client disconnects.
func (vc *VoteStreamController) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := vc.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("vote stream upgrade failed")
		return
	}
	defer conn.Close()

	events, cancel := vc.broadcaster.Subscribe()
	defer cancel()

	for evt := range events {
		if err := conn.WriteJSON(evt); err != nil {
			logrus.WithError(err).Debug("vote stream write failed, closing")
			return
		}
	}
}
