/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Client is one connected viewer: a phone, the admin console or a
// leaderboard screen.
type Client struct {
	ID      string
	send    chan any
	limiter *rate.Limiter

	sessionID string
	admin     bool
	watching  bool
}

// NewClient creates a client with a bounded outbox. A nil limiter lets
// every message through.
func NewClient(id string, buffer int, limiter *rate.Limiter) *Client {
	return &Client{
		ID:      id,
		send:    make(chan any, buffer),
		limiter: limiter,
	}
}

// Outbox is closed once the gateway drops the client.
func (c *Client) Outbox() <-chan any {
	return c.send
}

func (c *Client) allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}

// Gateway turns domain events into messages for the right audience. It is
// owned by the Hub goroutine.
type Gateway struct {
	clients map[string]*Client
	boards  map[string]*Leaderboard
	games   []string
	log     zerolog.Logger
}

func NewGateway(log zerolog.Logger) *Gateway {
	return &Gateway{
		clients: make(map[string]*Client),
		boards:  make(map[string]*Leaderboard),
		log:     log,
	}
}

func (g *Gateway) Register(c *Client) {
	g.clients[c.ID] = c
}

// Remove closes the client outbox if it is still registered.
func (g *Gateway) Remove(id string) {
	c, ok := g.clients[id]
	if !ok {
		return
	}

	delete(g.clients, id)
	close(c.send)
}

func (g *Gateway) CloseAll() {
	for id := range g.clients {
		g.Remove(id)
	}
}

func (g *Gateway) Len() int {
	return len(g.clients)
}

func (g *Gateway) Leaderboard(gameID string) (*Leaderboard, bool) {
	l, ok := g.boards[gameID]
	return l, ok
}

func (g *Gateway) bind(clientID, gameID string) {
	if c, ok := g.clients[clientID]; ok {
		c.sessionID = gameID
	}
}

// send drops clients that cannot keep up instead of blocking the hub.
func (g *Gateway) send(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		g.log.Debug().Str("client", c.ID).Msg("outbox full, dropping client")
		g.Remove(c.ID)
	}
}

func (g *Gateway) sendTo(id string, msg any) {
	if c, ok := g.clients[id]; ok {
		g.send(c, msg)
	}
}

func (g *Gateway) broadcast(msg any) {
	for _, c := range g.clients {
		g.send(c, msg)
	}
}

// publish reaches the members of a session plus every admin and
// leaderboard viewer.
func (g *Gateway) publish(gameID string, msg any) {
	for _, c := range g.clients {
		if c.sessionID == gameID || c.admin || c.watching {
			g.send(c, msg)
		}
	}
}

func (g *Gateway) Deliver(ev Event) {
	switch ev := ev.(type) {
	case LobbyChanged:
		msg := LobbyUpdateMessage{Type: MsgLobbyUpdate, Players: ev.Players}
		if ev.To != "" {
			g.sendTo(ev.To, msg)
		} else {
			g.broadcast(msg)
		}

	case LobbyJoined:
		g.sendTo(ev.ClientID, LobbyJoinedMessage{
			Type:   MsgLobbyJoined,
			Player: ev.Player,
			Token:  ev.Token,
		})

	case SessionStarted:
		g.boards[ev.GameID] = NewLeaderboard(ev.GameID, ev.Players)
		g.games = append(g.games, ev.GameID)

		for _, start := range ev.Private {
			g.bind(start.ClientID, ev.GameID)
		}

		g.broadcast(GameStartedMessage{
			Type:      MsgGameStarted,
			GameID:    ev.GameID,
			StartTime: ev.StartTime,
			Players:   ev.Players,
		})

		for _, start := range ev.Private {
			g.sendTo(start.ClientID, GameStartMessage{
				Type:    MsgGameStart,
				GameID:  ev.GameID,
				Player:  start.Player,
				GameURL: start.GameURL,
				Token:   start.Token,
			})
		}

	case PlayerRejoined:
		g.bind(ev.Start.ClientID, ev.GameID)
		g.sendTo(ev.Start.ClientID, GameStartMessage{
			Type:    MsgGameStart,
			GameID:  ev.GameID,
			Player:  ev.Start.Player,
			GameURL: ev.Start.GameURL,
			Token:   ev.Start.Token,
			Players: ev.Players,
		})
		if ev.Pending != nil {
			g.sendTo(ev.Start.ClientID, TaskRequiredMessage{
				Type:     MsgTaskRequired,
				GameID:   ev.GameID,
				PlayerID: ev.Start.Player.ID,
				Position: ev.Start.Player.Position,
				Task:     promptFor(ev.Pending),
			})
		}

	case RollResolved:
		g.record(ev.GameID, Move{
			EventID:  ev.EventID,
			PlayerID: ev.Player.ID,
			Value:    ev.Result.Roll,
			From:     ev.Result.From,
			To:       ev.Result.NewPosition,
			Message:  ev.Result.Message,
			At:       ev.At,
		})

		g.publish(ev.GameID, DiceRollResultMessage{
			Type:        MsgDiceRollResult,
			EventID:     ev.EventID,
			GameID:      ev.GameID,
			PlayerID:    ev.Player.ID,
			Value:       ev.Result.Roll,
			From:        ev.Result.From,
			NewPosition: ev.Result.NewPosition,
			Message:     ev.Result.Message,
			Overflow:    ev.Result.Overflow,
			Jump:        ev.Result.Jump,
			Task:        promptFor(ev.Task),
			Timestamp:   ev.At,
		})

		g.publish(ev.GameID, GameStateUpdateMessage{
			Type:     MsgGameStateUpdate,
			EventID:  ev.EventID,
			GameID:   ev.GameID,
			PlayerID: ev.Player.ID,
			Position: ev.Player.Position,
			LastMove: LastMove{From: ev.Result.From, To: ev.Result.NewPosition, Value: ev.Result.Roll},
			Players:  ev.Players,
		})

		if ev.Task != nil {
			g.sendTo(ev.ClientID, TaskRequiredMessage{
				Type:     MsgTaskRequired,
				GameID:   ev.GameID,
				PlayerID: ev.Player.ID,
				Position: ev.Player.Position,
				Task:     promptFor(ev.Task),
			})
		}

	case TaskResolved:
		out := ev.Outcome

		g.record(ev.GameID, Move{
			EventID:      ev.EventID,
			PlayerID:     out.PlayerID,
			From:         out.From,
			To:           out.To,
			Message:      out.Message,
			IsTaskResult: true,
			At:           ev.At,
		})

		g.publish(ev.GameID, TaskCompletedMessage{
			Type:         MsgTaskCompleted,
			EventID:      ev.EventID,
			GameID:       ev.GameID,
			PlayerID:     out.PlayerID,
			TaskID:       out.TaskID,
			Success:      out.Success,
			Expired:      out.Expired,
			From:         out.From,
			NewPosition:  out.To,
			MoveForward:  out.MoveForward,
			MoveBackward: out.MoveBackward,
			Message:      out.Message,
			Timestamp:    ev.At,
		})

		g.publish(ev.GameID, GameStateUpdateMessage{
			Type:         MsgGameStateUpdate,
			EventID:      ev.EventID,
			GameID:       ev.GameID,
			PlayerID:     out.PlayerID,
			Position:     out.To,
			LastMove:     LastMove{From: out.From, To: out.To},
			IsTaskResult: true,
			Players:      ev.Players,
		})

	case PlayerWon:
		g.broadcast(PlayerWonMessage{
			Type:          MsgPlayerWon,
			GameID:        ev.GameID,
			PlayerID:      ev.PlayerID,
			WinnerName:    ev.Name,
			FinalPosition: ev.FinalPosition,
			Rank:          ev.Rank,
		})

	case PlayerLeft:
		g.publish(ev.GameID, PlayerDisconnectedMessage{
			Type:       MsgPlayerDisconnected,
			GameID:     ev.GameID,
			PlayerID:   ev.PlayerID,
			PlayerName: ev.Name,
			Removed:    ev.Removed,
		})

	case SessionEnded:
		g.broadcast(GameEndedMessage{
			Type:       MsgGameEnded,
			GameID:     ev.GameID,
			Winner:     ev.Winner,
			AdminEnded: ev.AdminEnded,
			Reason:     ev.Reason,
		})

		for _, c := range g.clients {
			if c.sessionID == ev.GameID {
				c.sessionID = ""
			}
		}

		delete(g.boards, ev.GameID)
		for i, id := range g.games {
			if id == ev.GameID {
				g.games = append(g.games[:i], g.games[i+1:]...)
				break
			}
		}

	case AdminChanged:
		if c, ok := g.clients[ev.ClientID]; ok {
			c.admin = ev.Granted
		}
		g.sendTo(ev.ClientID, AdminStatusMessage{
			Type:    MsgAdminStatus,
			Granted: ev.Granted,
			Lobby:   ev.Lobby,
			Games:   ev.Games,
		})

	case LeaderboardRequested:
		c, ok := g.clients[ev.ClientID]
		if !ok {
			return
		}
		c.watching = true

		snaps := make([]LeaderboardSnapshot, 0, len(g.games))
		for _, id := range g.games {
			snaps = append(snaps, g.boards[id].Snapshot())
		}
		g.send(c, LeaderboardSnapshotMessage{Type: MsgLeaderboardSnapshot, Games: snaps})

	case Failure:
		g.sendTo(ev.ClientID, ErrorMessage{
			Type:    MsgError,
			Code:    ErrorCode(ev.Err),
			Message: ev.Err.Error(),
		})
	}
}

func (g *Gateway) record(gameID string, m Move) {
	if l, ok := g.boards[gameID]; ok {
		l.Apply(m)
	}
}
