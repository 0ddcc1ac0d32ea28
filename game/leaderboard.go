/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"fmt"
	"time"
)

// Move is one entry of a player's history on the leaderboard.
type Move struct {
	EventID      string    `json:"eventId"`
	PlayerID     string    `json:"playerId"`
	Value        int       `json:"value,omitempty"`
	From         int       `json:"from"`
	To           int       `json:"to"`
	Message      string    `json:"message,omitempty"`
	IsTaskResult bool      `json:"isTaskResult"`
	At           time.Time `json:"timestamp"`
}

func (m Move) identity() string {
	if m.EventID != "" {
		return m.EventID
	}

	return fmt.Sprintf("%s|%d|%d|%t|%d", m.PlayerID, m.From, m.To, m.IsTaskResult, m.At.UnixNano())
}

type Standing struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	Moves    []Move `json:"moves"`
}

type LeaderboardSnapshot struct {
	GameID  string     `json:"gameId"`
	Players []Standing `json:"players"`
}

// Leaderboard rebuilds move history from roll and task events. Applying the
// same event twice is a no-op.
type Leaderboard struct {
	gameID string
	order  []string
	names  map[string]string
	pos    map[string]int
	moves  map[string][]Move
	seen   map[string]struct{}
}

func NewLeaderboard(gameID string, players []PlayerView) *Leaderboard {
	l := &Leaderboard{
		gameID: gameID,
		names:  make(map[string]string, len(players)),
		pos:    make(map[string]int, len(players)),
		moves:  make(map[string][]Move, len(players)),
		seen:   make(map[string]struct{}),
	}

	for _, p := range players {
		l.order = append(l.order, p.ID)
		l.names[p.ID] = p.Name
		l.pos[p.ID] = p.Position
	}

	return l
}

// Apply records m and reports whether it was new.
func (l *Leaderboard) Apply(m Move) bool {
	id := m.identity()
	if _, dup := l.seen[id]; dup {
		return false
	}
	l.seen[id] = struct{}{}

	if _, known := l.names[m.PlayerID]; !known {
		l.order = append(l.order, m.PlayerID)
		l.names[m.PlayerID] = m.PlayerID
	}

	l.moves[m.PlayerID] = append(l.moves[m.PlayerID], m)
	l.pos[m.PlayerID] = m.To

	return true
}

func (l *Leaderboard) History(playerID string) []Move {
	return append([]Move(nil), l.moves[playerID]...)
}

func (l *Leaderboard) Position(playerID string) int {
	return l.pos[playerID]
}

func (l *Leaderboard) Snapshot() LeaderboardSnapshot {
	snap := LeaderboardSnapshot{
		GameID:  l.gameID,
		Players: make([]Standing, 0, len(l.order)),
	}

	for _, id := range l.order {
		snap.Players = append(snap.Players, Standing{
			ID:       id,
			Name:     l.names[id],
			Position: l.pos[id],
			Moves:    l.History(id),
		})
	}

	return snap
}
