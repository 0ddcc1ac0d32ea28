/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package tasks is the static trivia bank behind the special tiles.
package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
)

// OptionCount is the number of choices every question offers.
const OptionCount = 4

var ErrInvalidTask = errors.New("invalid task")

type Task struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	MoveForward   int      `json:"moveForward"`
	MoveBackward  int      `json:"moveBackward"`
}

// Bank is read-only after New returns.
type Bank struct {
	tasks []Task
	byID  map[string]int
}

func New(tasks ...Task) (*Bank, error) {
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: empty bank", ErrInvalidTask)
	}

	b := &Bank{
		tasks: make([]Task, 0, len(tasks)),
		byID:  make(map[string]int, len(tasks)),
	}

	for _, t := range tasks {
		switch {
		case t.ID == "":
			return nil, fmt.Errorf("%w: missing id", ErrInvalidTask)
		case len(t.Options) != OptionCount:
			return nil, fmt.Errorf("%w: %s has %d options", ErrInvalidTask, t.ID, len(t.Options))
		case t.CorrectAnswer < 0 || t.CorrectAnswer >= OptionCount:
			return nil, fmt.Errorf("%w: %s answer index %d", ErrInvalidTask, t.ID, t.CorrectAnswer)
		case t.MoveForward <= 0 || t.MoveBackward <= 0:
			return nil, fmt.Errorf("%w: %s moves must be positive", ErrInvalidTask, t.ID)
		}

		if _, dup := b.byID[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidTask, t.ID)
		}

		t.Options = append([]string(nil), t.Options...)
		b.byID[t.ID] = len(b.tasks)
		b.tasks = append(b.tasks, t)
	}

	return b, nil
}

// ByID returns a copy of the task so callers cannot mutate the bank.
func (b *Bank) ByID(id string) (Task, bool) {
	i, ok := b.byID[id]
	if !ok {
		return Task{}, false
	}

	return b.tasks[i].clone(), true
}

// Random picks a task using r, or the global source when r is nil.
func (b *Bank) Random(r *rand.Rand) Task {
	var i int
	if r == nil {
		i = rand.IntN(len(b.tasks))
	} else {
		i = r.IntN(len(b.tasks))
	}

	return b.tasks[i].clone()
}

func (b *Bank) IDs() []string {
	ids := make([]string, len(b.tasks))
	for i, t := range b.tasks {
		ids[i] = t.ID
	}

	return ids
}

func (b *Bank) Len() int {
	return len(b.tasks)
}

func (t Task) clone() Task {
	t.Options = append([]string(nil), t.Options...)
	return t
}

// QRPayload is the content encoded on a printed task card.
func QRPayload(id string) string {
	data, _ := json.Marshal(struct {
		TaskID string `json:"taskId"`
	}{TaskID: id})

	return string(data)
}

// Default returns the question bank shipped with the game.
func Default() *Bank {
	b, err := New(defaultTasks...)
	if err != nil {
		panic(err)
	}

	return b
}

var defaultTasks = []Task{
	{
		ID:       "task1",
		Question: "What is the purpose of meditation?",
		Options: []string{
			"To clear the mind and find inner peace",
			"To become popular",
			"To show off to others",
			"To avoid responsibilities",
		},
		CorrectAnswer: 0,
		MoveForward:   5,
		MoveBackward:  3,
	},
	{
		ID:       "task2",
		Question: `What does "Nirankari" focus on?`,
		Options: []string{
			"Material wealth",
			"Political power",
			"Universal brotherhood and spiritual awakening",
			"Business success",
		},
		CorrectAnswer: 2,
		MoveForward:   6,
		MoveBackward:  2,
	},
	{
		ID:       "task3",
		Question: "Which of these is a spiritual practice?",
		Options: []string{
			"Gossiping",
			"Meditation",
			"Criticizing others",
			"Accumulating wealth",
		},
		CorrectAnswer: 1,
		MoveForward:   4,
		MoveBackward:  3,
	},
	{
		ID:       "task4",
		Question: "What is the foundation of spiritual growth?",
		Options: []string{
			"Self-centeredness",
			"Comparison with others",
			"Self-reflection and humility",
			"Ignoring others",
		},
		CorrectAnswer: 2,
		MoveForward:   7,
		MoveBackward:  4,
	},
	{
		ID:       "task5",
		Question: "What does spiritual awakening lead to?",
		Options: []string{
			"Separation from others",
			"Inner peace and harmony",
			"Material success",
			"Pride and ego",
		},
		CorrectAnswer: 1,
		MoveForward:   5,
		MoveBackward:  2,
	},
	{
		ID:       "task6",
		Question: "How can we practice mindfulness in daily life?",
		Options: []string{
			"By multitasking constantly",
			"By being aware of our thoughts, actions, and surroundings",
			"By avoiding difficult situations",
			"By criticizing others",
		},
		CorrectAnswer: 1,
		MoveForward:   6,
		MoveBackward:  3,
	},
	{
		ID:       "task7",
		Question: "What is the importance of gratitude in spiritual life?",
		Options: []string{
			"It has no importance",
			"It makes us appear spiritual to others",
			"It opens our hearts and brings contentment",
			"It helps us get more material things",
		},
		CorrectAnswer: 2,
		MoveForward:   5,
		MoveBackward:  2,
	},
	{
		ID:       "task8",
		Question: "What is the essence of spiritual teachings across traditions?",
		Options: []string{
			"Rituals and ceremonies",
			"Love, compassion, and service",
			"Building temples and monuments",
			"Debating philosophy",
		},
		CorrectAnswer: 1,
		MoveForward:   7,
		MoveBackward:  4,
	},
	{
		ID:       "task9",
		Question: "How does forgiveness affect our spiritual journey?",
		Options: []string{
			"It shows weakness",
			"It has no effect",
			"It frees us from negativity and promotes healing",
			"It should only be practiced if others apologize first",
		},
		CorrectAnswer: 2,
		MoveForward:   6,
		MoveBackward:  3,
	},
	{
		ID:       "task10",
		Question: "What is the spiritual significance of service to others?",
		Options: []string{
			"It earns us social recognition",
			"It has no spiritual significance",
			"It helps us understand our interconnectedness and practice selflessness",
			"It should only be done for financial gain",
		},
		CorrectAnswer: 2,
		MoveForward:   8,
		MoveBackward:  4,
	},
}
