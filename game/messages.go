/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"time"

	"github.com/Seednode/ladders/board"
	"github.com/Seednode/ladders/tasks"
)

// Messages coming from clients
const (
	MsgJoinLobby        = "joinLobby"
	MsgLeaveLobby       = "leaveLobby"
	MsgAdminConnect     = "adminConnect"
	MsgAdminStartGame   = "adminStartGame"
	MsgAdminEndGame     = "adminEndGame"
	MsgRollDice         = "rollDice"
	MsgQRScanned        = "qrScanned"
	MsgTaskCompleted    = "taskCompleted"
	MsgRejoinGame       = "rejoinGame"
	MsgWatchLeaderboard = "watchLeaderboard"
)

// Messages sent to clients
const (
	MsgLobbyUpdate         = "lobbyUpdate"
	MsgLobbyJoined         = "lobbyJoined"
	MsgGameStarted         = "gameStarted"
	MsgGameStart           = "gameStart"
	MsgDiceRollResult      = "diceRollResult"
	MsgTaskRequired        = "taskRequired"
	MsgGameStateUpdate     = "gameStateUpdate"
	MsgPlayerWon           = "playerWon"
	MsgPlayerDisconnected  = "playerDisconnected"
	MsgGameEnded           = "gameEnded"
	MsgAdminStatus         = "adminStatus"
	MsgLeaderboardSnapshot = "leaderboardSnapshot"
	MsgError               = "error"
)

// ClientMessage is every inbound command; Type selects which fields apply.
type ClientMessage struct {
	Type     string `json:"type"`
	Name     string `json:"name,omitempty"`     // joinLobby
	TestID   string `json:"testId,omitempty"`   // joinLobby
	PlayerID string `json:"playerId,omitempty"` // leaveLobby / rollDice / qrScanned
	Value    *int   `json:"value,omitempty"`    // rollDice, omitted means the server rolls
	TaskID   string `json:"taskId,omitempty"`   // qrScanned
	Answer   *int   `json:"answer,omitempty"`   // qrScanned
	GameID   string `json:"gameId,omitempty"`   // adminEndGame / rejoinGame
	Token    string `json:"token,omitempty"`    // rejoinGame
}

// TaskPrompt is a task without its answer.
type TaskPrompt struct {
	ID           string   `json:"id"`
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	MoveForward  int      `json:"moveForward"`
	MoveBackward int      `json:"moveBackward"`
}

func promptFor(t *tasks.Task) *TaskPrompt {
	if t == nil {
		return nil
	}

	return &TaskPrompt{
		ID:           t.ID,
		Question:     t.Question,
		Options:      append([]string(nil), t.Options...),
		MoveForward:  t.MoveForward,
		MoveBackward: t.MoveBackward,
	}
}

type LobbyUpdateMessage struct {
	Type    string       `json:"type"`
	Players []PlayerView `json:"players"`
}

type LobbyJoinedMessage struct {
	Type   string     `json:"type"`
	Player PlayerView `json:"player"`
	Token  string     `json:"token"`
}

type GameStartedMessage struct {
	Type      string       `json:"type"`
	GameID    string       `json:"gameId"`
	StartTime time.Time    `json:"startTime"`
	Players   []PlayerView `json:"players"`
}

// GameStartMessage is sent only to the player it describes.
type GameStartMessage struct {
	Type    string       `json:"type"`
	GameID  string       `json:"gameId"`
	Player  PlayerView   `json:"player"`
	GameURL string       `json:"gameUrl"`
	Token   string       `json:"token"`
	Players []PlayerView `json:"players,omitempty"`
}

type DiceRollResultMessage struct {
	Type        string      `json:"type"`
	EventID     string      `json:"eventId"`
	GameID      string      `json:"gameId"`
	PlayerID    string      `json:"playerId"`
	Value       int         `json:"value"`
	From        int         `json:"from"`
	NewPosition int         `json:"newPosition"`
	Message     string      `json:"message"`
	Overflow    bool        `json:"overflow,omitempty"`
	Jump        *board.Jump `json:"jump,omitempty"`
	Task        *TaskPrompt `json:"task,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

type TaskRequiredMessage struct {
	Type     string      `json:"type"`
	GameID   string      `json:"gameId"`
	PlayerID string      `json:"playerId"`
	Position int         `json:"position"`
	Task     *TaskPrompt `json:"task"`
}

type TaskCompletedMessage struct {
	Type         string    `json:"type"`
	EventID      string    `json:"eventId"`
	GameID       string    `json:"gameId"`
	PlayerID     string    `json:"playerId"`
	TaskID       string    `json:"taskId"`
	Success      bool      `json:"success"`
	Expired      bool      `json:"expired,omitempty"`
	From         int       `json:"from"`
	NewPosition  int       `json:"newPosition"`
	MoveForward  int       `json:"moveForward"`
	MoveBackward int       `json:"moveBackward"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
}

type GameStateUpdateMessage struct {
	Type         string       `json:"type"`
	EventID      string       `json:"eventId"`
	GameID       string       `json:"gameId"`
	PlayerID     string       `json:"playerId"`
	Position     int          `json:"position"`
	LastMove     LastMove     `json:"lastMove"`
	IsTaskResult bool         `json:"isTaskResult"`
	Players      []PlayerView `json:"players"`
}

type PlayerWonMessage struct {
	Type          string `json:"type"`
	GameID        string `json:"gameId"`
	PlayerID      string `json:"playerId"`
	WinnerName    string `json:"winnerName"`
	FinalPosition int    `json:"finalPosition"`
	Rank          int    `json:"rank"`
}

type PlayerDisconnectedMessage struct {
	Type       string `json:"type"`
	GameID     string `json:"gameId"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Removed    bool   `json:"removed"`
}

type GameEndedMessage struct {
	Type       string  `json:"type"`
	GameID     string  `json:"gameId"`
	Winner     *Winner `json:"winner,omitempty"`
	AdminEnded bool    `json:"adminEnded,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

type AdminStatusMessage struct {
	Type    string       `json:"type"`
	Granted bool         `json:"granted"`
	Lobby   []PlayerView `json:"lobby"`
	Games   []Summary    `json:"games"`
}

type LeaderboardSnapshotMessage struct {
	Type  string                `json:"type"`
	Games []LeaderboardSnapshot `json:"games"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
