/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"context"
	"errors"
	"time"
)

var ErrHubClosed = errors.New("hub is shut down")

type envelope struct {
	client *Client
	data   []byte
}

// Hub is the single goroutine that owns the Registry and the Gateway.
// Connections, timers and HTTP handlers talk to it over channels.
type Hub struct {
	registry *Registry

	register chan *Client
	unreg    chan *Client
	inbox    chan envelope
	timers   chan timerEvent
	queries  chan chan Snapshot
	done     chan struct{}

	reapEvery time.Duration
}

func NewHub(registry *Registry) *Hub {
	h := &Hub{
		registry:  registry,
		register:  make(chan *Client),
		unreg:     make(chan *Client),
		inbox:     make(chan envelope, 64),
		timers:    make(chan timerEvent),
		queries:   make(chan chan Snapshot),
		done:      make(chan struct{}),
		reapEvery: time.Minute,
	}

	if t := registry.opts.SessionTimeout / 2; t > 0 && t < h.reapEvery {
		h.reapEvery = t
	}

	registry.schedule = func(d time.Duration, ev timerEvent) {
		time.AfterFunc(d, func() {
			select {
			case h.timers <- ev:
			case <-h.done:
			}
		})
	}

	return h
}

// Run processes events until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.reapEvery)
	defer ticker.Stop()

	defer func() {
		close(h.done)
		h.registry.gw.CloseAll()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case c := <-h.register:
			h.registry.Connect(c)

		case c := <-h.unreg:
			h.registry.Disconnect(c.ID)
			h.registry.gw.Remove(c.ID)

		case env := <-h.inbox:
			h.dispatch(env.client, env.data)

		case ev := <-h.timers:
			h.registry.fire(ev)

		case reply := <-h.queries:
			reply <- h.registry.Snapshot()

		case <-ticker.C:
			h.registry.ReapIdle()
		}
	}
}

func (h *Hub) Register(ctx context.Context, c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unregister never blocks past hub shutdown.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unreg <- c:
	case <-h.done:
	}
}

// Submit queues one raw frame from c.
func (h *Hub) Submit(ctx context.Context, c *Client, data []byte) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}

	select {
	case h.inbox <- envelope{client: c, data: data}:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) State(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)

	select {
	case h.queries <- reply:
	case <-h.done:
		return Snapshot{}, ErrHubClosed
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (h *Hub) dispatch(c *Client, data []byte) {
	r := h.registry

	err := h.handle(c, data)
	if err == nil {
		return
	}

	r.log.Debug().Str("client", c.ID).Err(err).Msg("command rejected")
	r.gw.Deliver(Failure{ClientID: c.ID, Err: err})
}

func (h *Hub) handle(c *Client, data []byte) error {
	r := h.registry

	if !c.allow() {
		return ErrRateLimited
	}

	msg, err := DecodeMessage(data)
	if err != nil {
		return err
	}

	switch msg.Type {
	case MsgJoinLobby:
		_, err = r.JoinLobby(c.ID, msg.Name, msg.TestID)
	case MsgLeaveLobby:
		err = r.LeaveLobby(c.ID, msg.PlayerID)
	case MsgAdminConnect:
		err = r.ClaimAdmin(c.ID)
	case MsgAdminStartGame:
		_, err = r.StartSession(c.ID)
	case MsgAdminEndGame:
		err = r.EndSession(c.ID, msg.GameID)
	case MsgRollDice:
		value := 0
		if msg.Value != nil {
			value = *msg.Value
		}
		err = r.Roll(c.ID, msg.PlayerID, value)
	case MsgQRScanned, MsgTaskCompleted:
		err = r.Answer(c.ID, msg.PlayerID, msg.TaskID, *msg.Answer)
	case MsgRejoinGame:
		err = r.Rejoin(c.ID, msg.GameID, msg.Token)
	case MsgWatchLeaderboard:
		r.Watch(c.ID)
	}

	return err
}
