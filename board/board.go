/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package board holds the fixed snakes & ladders track and the pure
// roll resolution rules.
package board

import (
	"errors"
	"fmt"
	"sort"
)

// Goal is the terminal tile. Reaching it wins the game.
const Goal = 50

const (
	MinDie = 1
	MaxDie = 6
)

var ErrInvalidBoard = errors.New("invalid board configuration")

type Kind string

const (
	Snake  Kind = "snake"
	Ladder Kind = "ladder"
)

// Jump relocates a player landing on Start to End.
type Jump struct {
	Start int  `json:"start"`
	End   int  `json:"end"`
	Kind  Kind `json:"kind"`
}

// Board is immutable once built with New.
type Board struct {
	jumps   map[int]Jump
	special map[int]string // tile -> fixed task id, "" means pick one at random
}

// Result is the outcome of a single roll.
type Result struct {
	From         int    `json:"from"`
	Roll         int    `json:"roll"`
	Raw          int    `json:"raw"`
	NewPosition  int    `json:"newPosition"`
	Message      string `json:"message"`
	Overflow     bool   `json:"overflow,omitempty"`
	RequiresTask bool   `json:"requiresTask,omitempty"`
	TaskID       string `json:"taskId,omitempty"`
	Jump         *Jump  `json:"jump,omitempty"`
}

// New validates and freezes a board configuration.
func New(jumps []Jump, special map[int]string) (*Board, error) {
	b := &Board{
		jumps:   make(map[int]Jump, len(jumps)),
		special: make(map[int]string, len(special)),
	}

	for _, j := range jumps {
		if err := checkJump(j); err != nil {
			return nil, err
		}
		if _, dup := b.jumps[j.Start]; dup {
			return nil, fmt.Errorf("%w: more than one jump starts at tile %d", ErrInvalidBoard, j.Start)
		}
		b.jumps[j.Start] = j
	}

	for tile, taskID := range special {
		if tile <= 0 || tile >= Goal {
			return nil, fmt.Errorf("%w: special tile %d out of range", ErrInvalidBoard, tile)
		}
		if _, ok := b.jumps[tile]; ok {
			return nil, fmt.Errorf("%w: tile %d is both a jump start and a special tile", ErrInvalidBoard, tile)
		}
		b.special[tile] = taskID
	}

	for _, j := range b.jumps {
		if _, ok := b.jumps[j.End]; ok {
			return nil, fmt.Errorf("%w: %s from %d lands on another jump at %d", ErrInvalidBoard, j.Kind, j.Start, j.End)
		}
		if _, ok := b.special[j.End]; ok {
			return nil, fmt.Errorf("%w: %s from %d lands on special tile %d", ErrInvalidBoard, j.Kind, j.Start, j.End)
		}
	}

	return b, nil
}

func checkJump(j Jump) error {
	if j.Start <= 0 || j.Start >= Goal {
		return fmt.Errorf("%w: jump start %d out of range", ErrInvalidBoard, j.Start)
	}
	if j.End < 0 || j.End > Goal {
		return fmt.Errorf("%w: jump end %d out of range", ErrInvalidBoard, j.End)
	}

	switch j.Kind {
	case Snake:
		if j.End >= j.Start {
			return fmt.Errorf("%w: snake at %d must move down, got %d", ErrInvalidBoard, j.Start, j.End)
		}
	case Ladder:
		if j.End <= j.Start {
			return fmt.Errorf("%w: ladder at %d must move up, got %d", ErrInvalidBoard, j.Start, j.End)
		}
	default:
		return fmt.Errorf("%w: unknown jump kind %q", ErrInvalidBoard, j.Kind)
	}

	return nil
}

// Default returns the board printed on the party floor mat.
func Default() *Board {
	b, err := New(
		[]Jump{
			{Start: 4, End: 14, Kind: Ladder},
			{Start: 19, End: 27, Kind: Ladder},
			{Start: 31, End: 45, Kind: Ladder},
			{Start: 36, End: 48, Kind: Ladder},
			{Start: 17, End: 7, Kind: Snake},
			{Start: 25, End: 11, Kind: Snake},
			{Start: 33, End: 20, Kind: Snake},
			{Start: 44, End: 28, Kind: Snake},
			{Start: 49, End: 30, Kind: Snake},
		},
		map[int]string{
			6:  "task2",
			12: "task1",
			18: "task3",
			24: "task4",
			29: "task5",
			38: "task6",
			42: "task7",
			47: "task8",
		},
	)
	if err != nil {
		panic(err)
	}

	return b
}

// Resolve computes where a player at current ends up after rolling die.
// It has no side effects.
func (b *Board) Resolve(current, die int) Result {
	raw := current + die
	res := Result{
		From:        current,
		Roll:        die,
		Raw:         raw,
		NewPosition: raw,
	}

	if raw > Goal {
		res.NewPosition = current
		res.Overflow = true
		res.Message = fmt.Sprintf("Cannot move beyond position %d!", Goal)

		return res
	}

	if j, ok := b.jumps[raw]; ok {
		res.NewPosition = j.End
		res.Jump = &j
		if j.Kind == Snake {
			res.Message = fmt.Sprintf("Oops! Snake at %d moves you down to %d", j.Start, j.End)
		} else {
			res.Message = fmt.Sprintf("Yay! Ladder at %d takes you up to %d", j.Start, j.End)
		}

		return res
	}

	if taskID, ok := b.special[raw]; ok {
		res.RequiresTask = true
		res.TaskID = taskID
		res.Message = "You landed on a special tile! Answer the question"

		return res
	}

	if raw == Goal {
		res.Message = fmt.Sprintf("Reached tile %d!", Goal)
	} else {
		res.Message = fmt.Sprintf("Moved from %d to %d", current, raw)
	}

	return res
}

// JumpAt reports the jump starting at tile, if any.
func (b *Board) JumpAt(tile int) (Jump, bool) {
	j, ok := b.jumps[tile]
	return j, ok
}

// IsSpecial reports whether tile requires a task.
func (b *Board) IsSpecial(tile int) bool {
	_, ok := b.special[tile]
	return ok
}

// Tile describes one square for status views.
type Tile struct {
	Position int    `json:"position"`
	Jump     *Jump  `json:"jump,omitempty"`
	Special  bool   `json:"special,omitempty"`
	TaskID   string `json:"taskId,omitempty"`
}

// Tiles lists every tile that carries a jump or a task, in board order.
func (b *Board) Tiles() []Tile {
	tiles := make([]Tile, 0, len(b.jumps)+len(b.special))

	for _, j := range b.jumps {
		tiles = append(tiles, Tile{Position: j.Start, Jump: &j})
	}
	for pos, taskID := range b.special {
		tiles = append(tiles, Tile{Position: pos, Special: true, TaskID: taskID})
	}

	sort.Slice(tiles, func(i, k int) bool {
		return tiles[i].Position < tiles[k].Position
	})

	return tiles
}
