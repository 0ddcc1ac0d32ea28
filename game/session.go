/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Seednode/ladders/board"
	"github.com/Seednode/ladders/tasks"
)

type Winner struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	FinalPosition int    `json:"finalPosition"`
}

// RollOutcome is what a Session reports after a roll is applied.
type RollOutcome struct {
	PlayerID string
	Result   board.Result
	Task     *tasks.Task
	TaskSeq  uint64
	Won      bool
	First    bool
}

// TaskOutcome is what a Session reports after a pending task resolves.
type TaskOutcome struct {
	PlayerID     string
	TaskID       string
	Success      bool
	Expired      bool
	From         int
	To           int
	MoveForward  int
	MoveBackward int
	Message      string
	Won          bool
	First        bool
}

// Session is the turn engine of one running game. It is not safe for
// concurrent use; the Hub serializes every call.
type Session struct {
	ID        string
	Players   []*Player
	Winner    *Winner
	StartTime time.Time

	board       *board.Board
	bank        *tasks.Bank
	rng         *rand.Rand
	randomTasks bool

	lastActive time.Time
	finished   int
	taskSeq    uint64
}

func newSession(id string, players []*Player, b *board.Board, bank *tasks.Bank, rng *rand.Rand, randomTasks bool, now time.Time) *Session {
	for _, p := range players {
		p.Position = 0
		p.HasWon = false
		p.Rank = 0
		p.pending = nil
		p.pendingSeq = 0
		p.lastMove = nil
	}

	return &Session{
		ID:          id,
		Players:     players,
		StartTime:   now,
		board:       b,
		bank:        bank,
		rng:         rng,
		randomTasks: randomTasks,
		lastActive:  now,
	}
}

func (s *Session) Player(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}

	return nil
}

func (s *Session) playerByConn(conn string) *Player {
	for _, p := range s.Players {
		if p.conn == conn {
			return p
		}
	}

	return nil
}

func (s *Session) playerByKey(key string) *Player {
	for _, p := range s.Players {
		if p.key == key {
			return p
		}
	}

	return nil
}

// Roll moves a player by die. A roll past the goal is consumed without
// moving; the outcome reports it through Result.Overflow.
func (s *Session) Roll(playerID string, die int) (RollOutcome, error) {
	p := s.Player(playerID)
	if p == nil {
		return RollOutcome{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if die < board.MinDie || die > board.MaxDie {
		return RollOutcome{}, fmt.Errorf("%w: die value %d", ErrInvalidInput, die)
	}

	switch p.State() {
	case Won:
		return RollOutcome{}, fmt.Errorf("%w: %s has already finished", ErrInvalidTransition, p.Name)
	case AwaitingTask:
		return RollOutcome{}, fmt.Errorf("%w: %s must answer task %s first", ErrInvalidTransition, p.Name, p.pending.ID)
	}

	res := s.board.Resolve(p.Position, die)
	out := RollOutcome{PlayerID: p.ID, Result: res}

	p.Position = res.NewPosition
	p.lastMove = &LastMove{From: res.From, To: res.NewPosition, Value: die}

	if res.RequiresTask {
		task := s.pickTask(res.TaskID)
		s.taskSeq++
		p.pending = &task
		p.pendingSeq = s.taskSeq
		out.Task = &task
		out.TaskSeq = s.taskSeq
	}

	if p.Position >= board.Goal {
		out.Won = true
		out.First = s.finish(p)
	}

	return out, nil
}

func (s *Session) pickTask(fixed string) tasks.Task {
	if !s.randomTasks && fixed != "" {
		if t, ok := s.bank.ByID(fixed); ok {
			return t
		}
	}

	return s.bank.Random(s.rng)
}

// Answer resolves the pending task of a player.
func (s *Session) Answer(playerID, taskID string, answer int) (TaskOutcome, error) {
	p := s.Player(playerID)
	if p == nil {
		return TaskOutcome{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if p.State() != AwaitingTask {
		return TaskOutcome{}, fmt.Errorf("%w: %s has no pending task", ErrInvalidTransition, p.Name)
	}
	if p.pending.ID != taskID {
		return TaskOutcome{}, fmt.Errorf("%w: task %s is not pending for %s", ErrInvalidTransition, taskID, p.Name)
	}
	if answer < 0 || answer >= len(p.pending.Options) {
		return TaskOutcome{}, fmt.Errorf("%w: answer %d", ErrInvalidInput, answer)
	}

	return s.resolveTask(p, answer == p.pending.CorrectAnswer, false), nil
}

// Forfeit resolves a pending task as wrong once it has timed out. seq
// guards against a timer firing for a task that was already answered.
func (s *Session) Forfeit(playerID string, seq uint64) (TaskOutcome, error) {
	p := s.Player(playerID)
	if p == nil {
		return TaskOutcome{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}
	if p.State() != AwaitingTask || p.pendingSeq != seq {
		return TaskOutcome{}, fmt.Errorf("%w: task already resolved", ErrInvalidTransition)
	}

	return s.resolveTask(p, false, true), nil
}

func (s *Session) resolveTask(p *Player, correct, expired bool) TaskOutcome {
	task := p.pending
	from := p.Position

	var to int
	var msg string
	if correct {
		to = min(board.Goal, from+task.MoveForward)
		msg = fmt.Sprintf("Correct answer! Moving forward %d tiles (%d → %d)", task.MoveForward, from, to)
	} else {
		to = max(0, from-task.MoveBackward)
		msg = fmt.Sprintf("Incorrect answer. Moving back %d tiles (%d → %d)", task.MoveBackward, from, to)
		if expired {
			msg = fmt.Sprintf("Time is up. Moving back %d tiles (%d → %d)", task.MoveBackward, from, to)
		}
	}

	p.Position = to
	p.pending = nil
	p.pendingSeq = 0
	p.lastMove = &LastMove{From: from, To: to}

	out := TaskOutcome{
		PlayerID:     p.ID,
		TaskID:       task.ID,
		Success:      correct,
		Expired:      expired,
		From:         from,
		To:           to,
		MoveForward:  task.MoveForward,
		MoveBackward: task.MoveBackward,
		Message:      msg,
	}

	if to >= board.Goal {
		out.Won = true
		out.First = s.finish(p)
	}

	return out
}

// finish marks p as done and reports whether p is the session winner.
func (s *Session) finish(p *Player) bool {
	p.HasWon = true
	s.finished++
	p.Rank = s.finished

	if s.Winner != nil {
		return false
	}

	s.Winner = &Winner{ID: p.ID, Name: p.Name, FinalPosition: p.Position}

	return true
}

// Remove drops a player from the roster and reports whether it was there.
func (s *Session) Remove(playerID string) bool {
	for i, p := range s.Players {
		if p.ID == playerID {
			s.Players = append(s.Players[:i], s.Players[i+1:]...)
			return true
		}
	}

	return false
}

func (s *Session) touch(now time.Time) {
	s.lastActive = now
}

// Summary is the wire form of a running session.
type Summary struct {
	ID        string       `json:"gameId"`
	StartTime time.Time    `json:"startTime"`
	Players   []PlayerView `json:"players"`
	Winner    *Winner      `json:"winner,omitempty"`
}

func (s *Session) Summary() Summary {
	sum := Summary{
		ID:        s.ID,
		StartTime: s.StartTime,
		Players:   views(s.Players),
	}
	if s.Winner != nil {
		w := *s.Winner
		sum.Winner = &w
	}

	return sum
}
