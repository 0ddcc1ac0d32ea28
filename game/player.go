/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"fmt"
	"time"

	"github.com/Seednode/ladders/tasks"
)

type State int

const (
	Idle State = iota
	AwaitingTask
	Won
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingTask:
		return "awaitingTask"
	case Won:
		return "won"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Idle, AwaitingTask, Won} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}

	return fmt.Errorf("%w: unknown player state %q", ErrInvalidInput, text)
}

type LastMove struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Value int `json:"value"`
}

// Player is owned by the Registry while waiting and by a Session once the
// game starts.
type Player struct {
	ID       string
	Name     string
	Position int
	HasWon   bool
	IsActive bool
	Rank     int

	key      string // stable identity carried by the rejoin token
	token    string
	conn     string // client currently speaking for this player
	joinedAt time.Time

	pending    *tasks.Task
	pendingSeq uint64
	lastMove   *LastMove

	dropSeq uint64 // bumped on every disconnect and rejoin
}

func (p *Player) State() State {
	switch {
	case p.HasWon:
		return Won
	case p.pending != nil:
		return AwaitingTask
	default:
		return Idle
	}
}

// PlayerView is the wire form of a player.
type PlayerView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Position    int       `json:"position"`
	HasWon      bool      `json:"hasWon"`
	IsActive    bool      `json:"isActive"`
	State       State     `json:"state"`
	Rank        int       `json:"rank,omitempty"`
	PendingTask string    `json:"pendingTaskId,omitempty"`
	LastMove    *LastMove `json:"lastMove,omitempty"`
}

func (p *Player) View() PlayerView {
	v := PlayerView{
		ID:       p.ID,
		Name:     p.Name,
		Position: p.Position,
		HasWon:   p.HasWon,
		IsActive: p.IsActive,
		State:    p.State(),
		Rank:     p.Rank,
	}
	if p.pending != nil {
		v.PendingTask = p.pending.ID
	}
	if p.lastMove != nil {
		m := *p.lastMove
		v.LastMove = &m
	}

	return v
}

func views(players []*Player) []PlayerView {
	out := make([]PlayerView, 0, len(players))
	for _, p := range players {
		out = append(out, p.View())
	}

	return out
}
