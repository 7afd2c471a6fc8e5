package whatsapp

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// handleEvent drives the session state machine: Connected opens the readiness
// gate, any transient close event shuts it and schedules the reconnect loop.
// LoggedOut and StreamReplaced are terminal and require human re-pairing.
func (s *Session) handleEvent(rawEvt interface{}) {
	switch evt := rawEvt.(type) {
	case *events.Connected:
		s.state.SetReady(true)
		logrus.Info("[LIFECYCLE] session open, instruction executor enabled")
		s.announcePresence()
	case *events.PushNameSetting:
		s.announcePresence()
	case *events.Disconnected:
		s.state.SetReady(false)
		logrus.Warnf("[LIFECYCLE] disconnected, reconnecting in %s", s.reconnectDelay)
		go s.reconnect()
	case *events.ConnectFailure:
		s.state.SetReady(false)
		logrus.Errorf("[LIFECYCLE] connect failure (reason %v), reconnecting in %s", evt.Reason, s.reconnectDelay)
		go s.reconnect()
	case *events.StreamReplaced:
		s.state.SetReady(false)
		s.terminated.Store(true)
		logrus.Error("[LIFECYCLE] stream replaced by another session, not reconnecting")
	case *events.LoggedOut:
		s.state.SetReady(false)
		s.terminated.Store(true)
		logrus.Errorf("[LIFECYCLE] logged out (reason %v), re-pairing required", evt.Reason)
	case *events.Message:
		s.dispatchMessage(evt)
	}
}

func (s *Session) announcePresence() {
	if s.client == nil || len(s.client.Store.PushName) == 0 {
		return
	}
	s.client.SendPresence(context.Background(), types.PresenceAvailable)
}

// reconnect redials every reconnectDelay until the session is open again or
// a terminal event has landed. Only one loop runs at a time; close events
// arriving while it sleeps are absorbed by the running loop.
func (s *Session) reconnect() {
	if s.terminated.Load() || !s.reconnecting.CompareAndSwap(false, true) {
		return
	}
	defer s.reconnecting.Store(false)

	for {
		time.Sleep(s.reconnectDelay)
		if s.terminated.Load() || s.connected() {
			return
		}
		logrus.Info("[LIFECYCLE] reconnecting...")
		if err := s.dial(); err != nil {
			logrus.WithError(err).Errorf("[LIFECYCLE] reconnect failed, retrying in %s", s.reconnectDelay)
			continue
		}
		return
	}
}

func (s *Session) dispatchMessage(evt *events.Message) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[WHATSAPP] recovered from message handler panic: %v", r)
		}
	}()

	msg := s.normalizer.Normalize(context.Background(), evt)
	if msg == nil {
		return
	}
	if s.onMessage != nil {
		s.onMessage(msg)
	}
}
