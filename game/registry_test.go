/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/ladders/board"
	"github.com/Seednode/ladders/tasks"
)

type scheduled struct {
	after time.Duration
	ev    timerEvent
}

type harness struct {
	t      *testing.T
	r      *Registry
	timers []scheduled
	clock  time.Time
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()

	opts := DefaultOptions()
	opts.Prefix = "/ladders"
	if mutate != nil {
		mutate(&opts)
	}

	tokens, err := NewTokens("test-secret", time.Hour)
	require.NoError(t, err)

	r, err := NewRegistry(opts, board.Default(), tasks.Default(), NewGateway(zerolog.Nop()), tokens, zerolog.Nop())
	require.NoError(t, err)

	h := &harness{t: t, r: r, clock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	r.now = func() time.Time { return h.clock }
	r.schedule = func(d time.Duration, ev timerEvent) {
		h.timers = append(h.timers, scheduled{after: d, ev: ev})
	}

	return h
}

func (h *harness) connect(id string) *Client {
	c := NewClient(id, 256, nil)
	h.r.Connect(c)
	drain(c)

	return c
}

// join seats a fresh connection in the lobby and drains its messages.
func (h *harness) join(id, name string) *Client {
	c := h.connect(id)
	_, err := h.r.JoinLobby(id, name, "")
	require.NoError(h.t, err)

	return c
}

// start claims admin on a new connection and starts a game.
func (h *harness) start() (*Client, *Session) {
	admin := h.connect("admin")
	require.NoError(h.t, h.r.ClaimAdmin("admin"))

	s, err := h.r.StartSession("admin")
	require.NoError(h.t, err)

	return admin, s
}

func (h *harness) fireAll(kind timerKind) {
	pending := h.timers
	h.timers = nil
	for _, s := range pending {
		if s.ev.kind == kind {
			h.r.fire(s.ev)
		}
	}
}

func drain(c *Client) []any {
	var out []any
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func messagesOf[T any](msgs []any) []T {
	var out []T
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			out = append(out, v)
		}
	}

	return out
}

func TestStartSessionNotifiesEveryone(t *testing.T) {
	h := newHarness(t, nil)

	alice := h.join("c1", "Alice")
	bob := h.join("c2", "Bob")
	viewer := h.connect("viewer")

	_, s := h.start()

	assert.Empty(t, h.r.Lobby())
	assert.Len(t, s.Players, 2)

	for _, c := range []*Client{alice, bob, viewer} {
		msgs := drain(c)
		started := messagesOf[GameStartedMessage](msgs)
		require.Len(t, started, 1, c.ID)
		assert.Equal(t, s.ID, started[0].GameID)
		assert.Len(t, started[0].Players, 2)
	}
}

func TestGameStartIsPrivate(t *testing.T) {
	h := newHarness(t, nil)

	alice := h.join("c1", "Alice")
	bob := h.join("c2", "Bob")
	_, s := h.start()

	aliceMsgs := messagesOf[GameStartMessage](drain(alice))
	require.Len(t, aliceMsgs, 1)
	assert.Equal(t, "c1", aliceMsgs[0].Player.ID)
	assert.Equal(t, "/ladders/game/c1", aliceMsgs[0].GameURL)
	assert.Equal(t, s.ID, aliceMsgs[0].GameID)
	assert.NotEmpty(t, aliceMsgs[0].Token)

	bobMsgs := messagesOf[GameStartMessage](drain(bob))
	require.Len(t, bobMsgs, 1)
	assert.Equal(t, "c2", bobMsgs[0].Player.ID)
}

func TestJoinLobby(t *testing.T) {
	h := newHarness(t, nil)

	c := h.connect("c1")
	other := h.connect("c2")

	view, err := h.r.JoinLobby("c1", "  Alice ", "")
	require.NoError(t, err)
	assert.Equal(t, "Alice", view.Name)
	assert.Equal(t, "c1", view.ID)

	joined := messagesOf[LobbyJoinedMessage](drain(c))
	require.Len(t, joined, 1)
	assert.NotEmpty(t, joined[0].Token)

	updates := messagesOf[LobbyUpdateMessage](drain(other))
	require.Len(t, updates, 1)
	assert.Len(t, updates[0].Players, 1)

	_, err = h.r.JoinLobby("c2", "alice", "")
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	_, err = h.r.JoinLobby("c1", "Second", "")
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	_, err = h.r.JoinLobby("c1", "Second", "test-2")
	require.NoError(t, err)
	assert.Len(t, h.r.Lobby(), 2)

	_, err = h.r.JoinLobby("c2", "   ", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLeaveLobby(t *testing.T) {
	h := newHarness(t, nil)
	h.join("c1", "Alice")
	h.join("c2", "Bob")

	assert.ErrorIs(t, h.r.LeaveLobby("c2", "c1"), ErrUnauthorized)

	require.NoError(t, h.r.LeaveLobby("c1", ""))
	require.NoError(t, h.r.LeaveLobby("c1", ""))

	lobby := h.r.Lobby()
	require.Len(t, lobby, 1)
	assert.Equal(t, "Bob", lobby[0].Name)
}

func TestAdminSlot(t *testing.T) {
	h := newHarness(t, nil)

	first := h.connect("a1")
	h.connect("a2")

	require.NoError(t, h.r.ClaimAdmin("a1"))
	require.NoError(t, h.r.ClaimAdmin("a1"))
	assert.ErrorIs(t, h.r.ClaimAdmin("a2"), ErrAdminTaken)
	assert.Equal(t, "admin_taken", ErrorCode(h.r.ClaimAdmin("a2")))

	status := messagesOf[AdminStatusMessage](drain(first))
	require.NotEmpty(t, status)
	assert.True(t, status[0].Granted)

	h.r.Disconnect("a1")
	require.NoError(t, h.r.ClaimAdmin("a2"))
	assert.True(t, h.r.IsAdmin("a2"))
}

func TestStartSessionRules(t *testing.T) {
	h := newHarness(t, nil)

	h.join("c1", "Alice")
	h.connect("admin")

	_, err := h.r.StartSession("c1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, h.r.ClaimAdmin("admin"))

	_, err = h.r.StartSession("admin")
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "not_enough_players", ErrorCode(err))
	assert.Len(t, h.r.Lobby(), 1)
}

func TestStartSessionHonorsMaxPlayers(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.MaxPlayers = 2 })

	h.join("c1", "Alice")
	h.join("c2", "Bob")
	h.join("c3", "Carol")

	_, s := h.start()

	require.Len(t, s.Players, 2)
	assert.Equal(t, "Alice", s.Players[0].Name)
	assert.Equal(t, "Bob", s.Players[1].Name)

	lobby := h.r.Lobby()
	require.Len(t, lobby, 1)
	assert.Equal(t, "Carol", lobby[0].Name)
}

func TestAutoStart(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.AutoStart = true
		o.MaxPlayers = 2
	})

	h.join("c1", "Alice")
	assert.Empty(t, h.r.Sessions())

	h.join("c2", "Bob")
	require.Len(t, h.r.Sessions(), 1)
	assert.Empty(t, h.r.Lobby())
}

func TestJoinWhilePlayingIsDuplicate(t *testing.T) {
	h := newHarness(t, nil)
	h.join("c1", "Alice")
	h.join("c2", "Bob")
	h.start()

	_, err := h.r.JoinLobby("c1", "Alice Again", "")
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestRollBroadcastsToSession(t *testing.T) {
	h := newHarness(t, nil)
	alice := h.join("c1", "Alice")
	bob := h.join("c2", "Bob")
	outsider := h.connect("outsider")
	admin, s := h.start()
	drain(alice)
	drain(bob)
	drain(admin)

	s.Players[0].Position = 28
	require.NoError(t, h.r.Roll("c1", "", 3))

	for _, c := range []*Client{alice, bob, admin} {
		msgs := drain(c)
		rolls := messagesOf[DiceRollResultMessage](msgs)
		require.Len(t, rolls, 1, c.ID)
		assert.Equal(t, 45, rolls[0].NewPosition)
		assert.Equal(t, "Yay! Ladder at 31 takes you up to 45", rolls[0].Message)

		updates := messagesOf[GameStateUpdateMessage](msgs)
		require.Len(t, updates, 1, c.ID)
		assert.Equal(t, rolls[0].EventID, updates[0].EventID)
		assert.Equal(t, LastMove{From: 28, To: 45, Value: 3}, updates[0].LastMove)
	}

	assert.Empty(t, messagesOf[DiceRollResultMessage](drain(outsider)))
}

func TestServerRollsWhenValueMissing(t *testing.T) {
	h := newHarness(t, nil)
	alice := h.join("c1", "Alice")
	h.join("c2", "Bob")
	h.start()
	drain(alice)

	require.NoError(t, h.r.Roll("c1", "c1", 0))

	rolls := messagesOf[DiceRollResultMessage](drain(alice))
	require.Len(t, rolls, 1)
	assert.GreaterOrEqual(t, rolls[0].Value, board.MinDie)
	assert.LessOrEqual(t, rolls[0].Value, board.MaxDie)
}

func TestRollOverflow(t *testing.T) {
	h := newHarness(t, nil)
	alice := h.join("c1", "Alice")
	bob := h.join("c2", "Bob")
	_, s := h.start()
	drain(alice)
	drain(bob)

	s.Players[0].Position = 46
	err := h.r.Roll("c1", "", 5)
	assert.ErrorIs(t, err, ErrOverflowMove)

	rolls := messagesOf[DiceRollResultMessage](drain(bob))
	require.Len(t, rolls, 1)
	assert.True(t, rolls[0].Overflow)
	assert.Equal(t, 46, rolls[0].NewPosition)
	assert.Equal(t, 46, s.Players[0].Position)
}

func TestRollForSomeoneElse(t *testing.T) {
	h := newHarness(t, nil)
	h.join("c1", "Alice")
	h.join("c2", "Bob")
	h.join("c3", "Carol")
	h.start()

	assert.ErrorIs(t, h.r.Roll("c2", "c1", 3), ErrUnknownPlayer)
	assert.ErrorIs(t, h.r.Roll("nobody", "", 3), ErrUnknownPlayer)
}

func TestRollBeforeStart(t *testing.T) {
	h := newHarness(t, nil)
	h.join("c1", "Alice")

	assert.ErrorIs(t, h.r.Roll("c1", "c1", 3), ErrInvalidTransition)
}

func TestTaskFlow(t *testing.T) {
	h := newHarness(t, nil)
	alice := h.join("c1", "Alice")
	bob := h.join("c2", "Bob")
	_, s := h.start()
	drain(alice)
	drain(bob)

	s.Players[0].Position = 3
	require.NoError(t, h.r.Roll("c1", "", 3))

	prompts := messagesOf[TaskRequiredMessage](drain(alice))
	require.Len(t, prompts, 1)
	assert.Equal(t, "task2", prompts[0].Task.ID)
	assert.Equal(t, 6, prompts[0].Position)

	assert.Empty(t, messagesOf[TaskRequiredMessage](drain(bob)))

	assert.ErrorIs(t, h.r.Roll("c1", "", 2), ErrInvalidTransition)
	assert.ErrorIs(t, h.r.Answer("c1", "", "task5", 1), ErrInvalidTransition)

	require.NoError(t, h.r.Answer("c1", "", "task2", 2))
	assert.Equal(t, 12, s.Players[0].Position)

	results := messagesOf[TaskCompletedMessage](drain(bob))
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, 12, results[0].NewPosition)
	assert.Equal(t, 6, results[0].MoveForward)
}

func TestTaskExpires(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.TaskTimeout = time.Minute })
	alice := h.join("c1", "Alice")
	h.join("c2", "Bob")
	_, s := h.start()

	s.Players[0].Position = 3
	require.NoError(t, h.r.Roll("c1", "", 3))
	require.Len(t, h.timers, 1)
	assert.Equal(t, time.Minute, h.timers[0].after)
	drain(alice)

	expiry := h.timers[0].ev
	h.fireAll(timerExpireTask)

	assert.Equal(t, 4, s.Players[0].Position)
	assert.Equal(t, Idle, s.Players[0].State())

	results := messagesOf[TaskCompletedMessage](drain(alice))
	require.Len(t, results, 1)
	assert.True(t, results[0].Expired)

	h.r.fire(expiry)
	assert.Equal(t, 4, s.Players[0].Position)
}

func TestAnsweredTaskDoesNotExpire(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.TaskTimeout = time.Minute })
	h.join("c1", "Alice")
	h.join("c2", "Bob")
	_, s := h.start()

	s.Players[0].Position = 3
	require.NoError(t, h.r.Roll("c1", "", 3))
	require.NoError(t, h.r.Answer("c1", "", "task2", 2))

	h.fireAll(timerExpireTask)
	assert.Equal(t, 12, s.Players[0].Position)
}

func TestWinIsAnnounced(t *testing.T) {
	h := newHarness(t, nil)
	alice := h.join("c1", "Alice")
	h.join("c2", "Bob")
	viewer := h.connect("viewer")
	_, s := h.start()
	drain(viewer)

	s.Players[0].Position = 45
	require.NoError(t, h.r.Roll("c1", "", 5))

	for _, c := range []*Client{alice, viewer} {
		won := messagesOf[PlayerWonMessage](drain(c))
		require.Len(t, won, 1, c.ID)
		assert.Equal(t, "Alice", won[0].WinnerName)
		assert.Equal(t, board.Goal, won[0].FinalPosition)
		assert.Equal(t, 1, won[0].Rank)
	}

	require.NotNil(t, s.Winner)
	assert.Equal(t, "c1", s.Winner.ID)

	assert.ErrorIs(t, h.r.Roll("c1", "", 1), ErrInvalidTransition)
}

func TestEndSession(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.MaxPlayers = 2 })
	alice := h.join("c1", "Alice")
	h.join("c2", "Bob")
	_, first := h.start()

	h.join("c3", "Carol")
	h.join("c4", "Dave")
	second, err := h.r.StartSession("admin")
	require.NoError(t, err)
	require.Len(t, h.r.Sessions(), 2)
	drain(alice)

	assert.ErrorIs(t, h.r.EndSession("c1", first.ID), ErrUnauthorized)
	assert.ErrorIs(t, h.r.EndSession("admin", "missing"), ErrUnknownSession)

	require.NoError(t, h.r.EndSession("admin", first.ID))
	_, ok := h.r.Session(first.ID)
	assert.False(t, ok)

	ended := messagesOf[GameEndedMessage](drain(alice))
	require.Len(t, ended, 1)
	assert.True(t, ended[0].AdminEnded)
	assert.Nil(t, ended[0].Winner)

	require.NoError(t, h.r.EndSession("admin", ""))
	_, ok = h.r.Session(second.ID)
	assert.False(t, ok)

	assert.ErrorIs(t, h.r.EndSession("admin", ""), ErrUnknownSession)

	// Players of an ended game may queue again.
	_, err = h.r.JoinLobby("c1", "Alice", "")
	require.NoError(t, err)
}

func TestDisconnectFromLobby(t *testing.T) {
	h := newHarness(t, nil)
	h.join("c1", "Alice")
	bob := h.join("c2", "Bob")

	h.r.Disconnect("c1")

	lobby := h.r.Lobby()
	require.Len(t, lobby, 1)
	assert.Equal(t, "Bob", lobby[0].Name)

	updates := messagesOf[LobbyUpdateMessage](drain(bob))
	require.Len(t, updates, 1)
	assert.Len(t, updates[0].Players, 1)
	assert.Empty(t, h.timers)
}

func TestDisconnectEndsShortSession(t *testing.T) {
	h := newHarness(t, nil)
	h.join("c1", "Alice")
	bob := h.join("c2", "Bob")
	_, s := h.start()
	drain(bob)

	h.r.Disconnect("c1")
	assert.False(t, s.Players[0].IsActive)

	left := messagesOf[PlayerDisconnectedMessage](drain(bob))
	require.Len(t, left, 1)
	assert.False(t, left[0].Removed)
	assert.Equal(t, "Alice", left[0].PlayerName)

	require.Len(t, h.timers, 1)
	assert.Equal(t, 30*time.Second, h.timers[0].after)
	h.fireAll(timerDropPlayer)

	msgs := drain(bob)
	removed := messagesOf[PlayerDisconnectedMessage](msgs)
	require.Len(t, removed, 1)
	assert.True(t, removed[0].Removed)

	ended := messagesOf[GameEndedMessage](msgs)
	require.Len(t, ended, 1)
	assert.Nil(t, ended[0].Winner)
	assert.Equal(t, "not enough players", ended[0].Reason)

	_, ok := h.r.Session(s.ID)
	assert.False(t, ok)
}

func TestDisconnectKeepsLargerSession(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.PlayerTimeout = 0 })
	h.join("c1", "Alice")
	h.join("c2", "Bob")
	h.join("c3", "Carol")
	_, s := h.start()

	h.r.Disconnect("c1")

	_, ok := h.r.Session(s.ID)
	require.True(t, ok)
	assert.Len(t, s.Players, 2)
	assert.Nil(t, s.Player("c1"))
}

func TestRejoin(t *testing.T) {
	h := newHarness(t, nil)
	alice := h.join("c1", "Alice")
	h.join("c2", "Bob")
	_, s := h.start()

	start := messagesOf[GameStartMessage](drain(alice))
	require.Len(t, start, 1)
	token := start[0].Token

	s.Players[0].Position = 3
	require.NoError(t, h.r.Roll("c1", "", 3))

	h.r.Disconnect("c1")
	h.r.gw.Remove("c1")

	phone := h.connect("c9")
	require.NoError(t, h.r.Rejoin("c9", s.ID, token))

	p := s.Player("c1")
	require.NotNil(t, p)
	assert.True(t, p.IsActive)
	assert.Equal(t, 6, p.Position)

	msgs := drain(phone)
	again := messagesOf[GameStartMessage](msgs)
	require.Len(t, again, 1)
	assert.Equal(t, "c1", again[0].Player.ID)
	assert.Len(t, again[0].Players, 2)

	pending := messagesOf[TaskRequiredMessage](msgs)
	require.Len(t, pending, 1)
	assert.Equal(t, "task2", pending[0].Task.ID)

	// The drop timer must not remove a player who came back.
	h.fireAll(timerDropPlayer)
	assert.NotNil(t, s.Player("c1"))

	require.NoError(t, h.r.Answer("c9", "c1", "task2", 2))
	assert.Equal(t, 12, p.Position)
}

func TestRejoinRejectsBadToken(t *testing.T) {
	h := newHarness(t, nil)
	h.join("c1", "Alice")
	h.join("c2", "Bob")
	_, s := h.start()
	h.connect("c9")

	err := h.r.Rejoin("c9", s.ID, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewTokens("another-secret", time.Hour)
	require.NoError(t, err)
	forged, err := other.Issue(s.Players[0].key)
	require.NoError(t, err)

	assert.ErrorIs(t, h.r.Rejoin("c9", s.ID, forged), ErrInvalidToken)

	valid, err := h.r.tokens.Issue(s.Players[0].key)
	require.NoError(t, err)
	assert.ErrorIs(t, h.r.Rejoin("c9", "missing", valid), ErrUnknownSession)

	stranger, err := h.r.tokens.Issue("no-such-key")
	require.NoError(t, err)
	assert.ErrorIs(t, h.r.Rejoin("c9", "", stranger), ErrUnknownPlayer)
}

func TestReapIdle(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.SessionTimeout = 10 * time.Minute })
	alice := h.join("c1", "Alice")
	h.join("c2", "Bob")
	_, s := h.start()
	drain(alice)

	h.clock = h.clock.Add(5 * time.Minute)
	require.NoError(t, h.r.Roll("c1", "", 1))
	h.r.ReapIdle()
	_, ok := h.r.Session(s.ID)
	require.True(t, ok)

	h.clock = h.clock.Add(11 * time.Minute)
	h.r.ReapIdle()
	_, ok = h.r.Session(s.ID)
	assert.False(t, ok)

	ended := messagesOf[GameEndedMessage](drain(alice))
	require.Len(t, ended, 1)
	assert.Equal(t, "idle timeout", ended[0].Reason)
}

func TestWatchLeaderboard(t *testing.T) {
	h := newHarness(t, nil)
	h.join("c1", "Alice")
	h.join("c2", "Bob")
	_, s := h.start()

	screen := h.connect("screen")
	h.r.Watch("screen")

	snaps := messagesOf[LeaderboardSnapshotMessage](drain(screen))
	require.Len(t, snaps, 1)
	require.Len(t, snaps[0].Games, 1)
	assert.Equal(t, s.ID, snaps[0].Games[0].GameID)

	require.NoError(t, h.r.Roll("c2", "", 2))
	assert.Len(t, messagesOf[DiceRollResultMessage](drain(screen)), 1)

	l, ok := h.r.gw.Leaderboard(s.ID)
	require.True(t, ok)
	assert.Equal(t, 2, l.Position("c2"))
	assert.Len(t, l.History("c2"), 1)
}

func TestSnapshot(t *testing.T) {
	h := newHarness(t, nil)
	h.join("c1", "Alice")
	h.join("c2", "Bob")
	h.start()
	h.join("c3", "Carol")

	snap := h.r.Snapshot()
	assert.Len(t, snap.Lobby, 1)
	assert.Len(t, snap.Games, 1)
	assert.True(t, snap.HasAdmin)
	assert.Equal(t, 4, snap.Clients)
	assert.Len(t, snap.Board, len(board.Default().Tiles()))
}

func TestNewRegistryChecksConfiguration(t *testing.T) {
	tokens, err := NewTokens("", 0)
	require.NoError(t, err)

	b, err := board.New(nil, map[int]string{5: "missing"})
	require.NoError(t, err)

	_, err = NewRegistry(DefaultOptions(), b, tasks.Default(), NewGateway(zerolog.Nop()), tokens, zerolog.Nop())
	assert.ErrorIs(t, err, board.ErrInvalidBoard)

	opts := DefaultOptions()
	opts.MinPlayers = 1
	_, err = NewRegistry(opts, board.Default(), tasks.Default(), NewGateway(zerolog.Nop()), tokens, zerolog.Nop())
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.MaxPlayers = 1
	_, err = NewRegistry(opts, board.Default(), tasks.Default(), NewGateway(zerolog.Nop()), tokens, zerolog.Nop())
	assert.Error(t, err)
}

func TestStartSeatsWholeLobbyAtZero(t *testing.T) {
	h := newHarness(t, nil)

	names := []string{"Alice", "Bob", "Carol", "Dave"}
	for i, name := range names {
		h.join(string(rune('a'+i)), name)
	}

	_, s := h.start()

	require.Len(t, s.Players, 4)
	for i, p := range s.Players {
		assert.Equal(t, names[i], p.Name)
		assert.Equal(t, 0, p.Position)
		assert.Equal(t, Idle, p.State())
	}
	assert.Empty(t, h.r.Lobby())
}

func TestAdminDisconnectKeepsSession(t *testing.T) {
	h := newHarness(t, nil)
	alice := h.join("c1", "Alice")
	h.join("c2", "Bob")
	_, s := h.start()
	drain(alice)

	h.r.Disconnect("admin")
	h.r.gw.Remove("admin")

	_, ok := h.r.Session(s.ID)
	require.True(t, ok)
	assert.False(t, h.r.Snapshot().HasAdmin)
	assert.Empty(t, messagesOf[GameEndedMessage](drain(alice)))

	require.NoError(t, h.r.Roll("c1", "", 2))
	assert.Equal(t, 2, s.Players[0].Position)
}

func TestRejoinThenDisconnectKeepsFullGrace(t *testing.T) {
	h := newHarness(t, nil)
	alice := h.join("c1", "Alice")
	h.join("c2", "Bob")
	_, s := h.start()

	start := messagesOf[GameStartMessage](drain(alice))
	require.Len(t, start, 1)

	h.r.Disconnect("c1")
	require.Len(t, h.timers, 1)
	first := h.timers[0].ev

	h.connect("c9")
	require.NoError(t, h.r.Rejoin("c9", s.ID, start[0].Token))
	h.r.Disconnect("c9")
	require.Len(t, h.timers, 2)
	second := h.timers[1].ev

	h.r.fire(first)
	require.NotNil(t, s.Player("c1"))
	_, ok := h.r.Session(s.ID)
	require.True(t, ok)

	h.r.fire(second)
	assert.Nil(t, s.Player("c1"))
	_, ok = h.r.Session(s.ID)
	assert.False(t, ok)
}
