/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"time"

	"github.com/Seednode/ladders/board"
	"github.com/Seednode/ladders/tasks"
)

// Event is a domain event handed from the Registry to the Gateway.
type Event interface {
	isEvent()
}

// LobbyChanged goes to every connection, or only to To when set.
type LobbyChanged struct {
	Players []PlayerView
	To      string
}

type LobbyJoined struct {
	ClientID string
	Player   PlayerView
	Token    string
}

type PrivateStart struct {
	ClientID string
	Player   PlayerView
	GameURL  string
	Token    string
}

type SessionStarted struct {
	GameID    string
	StartTime time.Time
	Players   []PlayerView
	Private   []PrivateStart
}

// PlayerRejoined re-sends a session to a reconnected player.
type PlayerRejoined struct {
	GameID  string
	Start   PrivateStart
	Players []PlayerView
	Pending *tasks.Task
}

type RollResolved struct {
	EventID  string
	GameID   string
	ClientID string
	Player   PlayerView
	Result   board.Result
	Task     *tasks.Task
	At       time.Time
	Players  []PlayerView
}

type TaskResolved struct {
	EventID string
	GameID  string
	Player  PlayerView
	Outcome TaskOutcome
	At      time.Time
	Players []PlayerView
}

type PlayerWon struct {
	GameID        string
	PlayerID      string
	Name          string
	FinalPosition int
	Rank          int
}

type PlayerLeft struct {
	GameID   string
	PlayerID string
	Name     string
	Removed  bool
}

type SessionEnded struct {
	GameID     string
	Winner     *Winner
	AdminEnded bool
	Reason     string
}

type AdminChanged struct {
	ClientID string
	Granted  bool
	Lobby    []PlayerView
	Games    []Summary
}

type LeaderboardRequested struct {
	ClientID string
}

// Failure is a rejected command, reported to its sender only.
type Failure struct {
	ClientID string
	Err      error
}

func (LobbyChanged) isEvent()         {}
func (LobbyJoined) isEvent()          {}
func (SessionStarted) isEvent()       {}
func (PlayerRejoined) isEvent()       {}
func (RollResolved) isEvent()         {}
func (TaskResolved) isEvent()         {}
func (PlayerWon) isEvent()            {}
func (PlayerLeft) isEvent()           {}
func (SessionEnded) isEvent()         {}
func (AdminChanged) isEvent()         {}
func (LeaderboardRequested) isEvent() {}
func (Failure) isEvent()              {}
