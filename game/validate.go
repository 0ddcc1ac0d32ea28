/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cohesivestack/valgo"

	"github.com/Seednode/ladders/board"
	"github.com/Seednode/ladders/tasks"
)

const maxNameLength = 32

// Validate checks the fields required by the message type.
func (m *ClientMessage) Validate() *valgo.Validation {
	v := valgo.Is(valgo.String(m.Type, "type").Not().Blank())

	switch m.Type {
	case MsgJoinLobby:
		v.Is(valgo.String(strings.TrimSpace(m.Name), "name").Not().Blank().MaxLength(maxNameLength))
		v.Is(valgo.String(m.TestID, "testId").MaxLength(64))

	case MsgRollDice:
		if m.Value != nil {
			v.Is(valgo.Int(*m.Value, "value").Between(board.MinDie, board.MaxDie))
		}

	case MsgQRScanned, MsgTaskCompleted:
		v.Is(valgo.String(m.TaskID, "taskId").Not().Blank())
		if m.Answer == nil {
			v.Is(valgo.IntP(m.Answer, "answer").Not().Nil())
		} else {
			v.Is(valgo.Int(*m.Answer, "answer").Between(0, tasks.OptionCount-1))
		}

	case MsgRejoinGame:
		v.Is(valgo.String(m.Token, "token").Not().Blank())

	case MsgLeaveLobby, MsgAdminConnect, MsgAdminStartGame, MsgAdminEndGame, MsgWatchLeaderboard:

	default:
		v.AddErrorMessage("type", fmt.Sprintf("unknown message type %q", m.Type))
	}

	return v
}

// DecodeMessage parses and validates one inbound frame.
func DecodeMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	msg.Name = strings.TrimSpace(msg.Name)

	if val := msg.Validate(); !val.Valid() {
		return ClientMessage{}, fmt.Errorf("%w: %s", ErrInvalidInput, describe(val))
	}

	return msg, nil
}

func describe(val *valgo.Validation) string {
	verr, ok := val.Error().(*valgo.Error)
	if !ok {
		return val.Error().Error()
	}

	names := make([]string, 0, len(verr.Errors()))
	for name := range verr.Errors() {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, strings.Join(verr.Errors()[name].Messages(), ", "))
	}

	return strings.Join(parts, "; ")
}
