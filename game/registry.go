/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Seednode/ladders/board"
	"github.com/Seednode/ladders/tasks"
)

type Options struct {
	MaxPlayers     int
	MinPlayers     int
	AutoStart      bool
	PlayerTimeout  time.Duration // grace period before a disconnected player is dropped
	TaskTimeout    time.Duration // 0 leaves pending tasks open forever
	SessionTimeout time.Duration // idle sessions are reaped after this long
	RandomTasks    bool
	Prefix         string
}

func DefaultOptions() Options {
	return Options{
		MaxPlayers:     4,
		MinPlayers:     2,
		PlayerTimeout:  30 * time.Second,
		TaskTimeout:    2 * time.Minute,
		SessionTimeout: time.Hour,
	}
}

type timerKind int

const (
	timerDropPlayer timerKind = iota
	timerExpireTask
)

type timerEvent struct {
	kind     timerKind
	gameID   string
	playerID string
	seq      uint64
}

// Registry owns the lobby, the running sessions and the admin slot. Every
// method must be called from the Hub goroutine.
type Registry struct {
	opts   Options
	board  *board.Board
	bank   *tasks.Bank
	gw     *Gateway
	tokens *Tokens
	log    zerolog.Logger

	lobby    []*Player
	sessions map[string]*Session
	order    []string
	admin    string

	rng      *rand.Rand
	now      func() time.Time
	schedule func(time.Duration, timerEvent)
}

// NewRegistry refuses to run on a board that references tasks missing
// from the bank.
func NewRegistry(opts Options, b *board.Board, bank *tasks.Bank, gw *Gateway, tokens *Tokens, log zerolog.Logger) (*Registry, error) {
	if opts.MinPlayers < 2 {
		return nil, fmt.Errorf("minimum players must be at least 2, got %d", opts.MinPlayers)
	}
	if opts.MaxPlayers < opts.MinPlayers {
		return nil, fmt.Errorf("maximum players (%d) below minimum (%d)", opts.MaxPlayers, opts.MinPlayers)
	}

	for _, tile := range b.Tiles() {
		if tile.TaskID == "" {
			continue
		}
		if _, ok := bank.ByID(tile.TaskID); !ok {
			return nil, fmt.Errorf("%w: tile %d references unknown task %s", board.ErrInvalidBoard, tile.Position, tile.TaskID)
		}
	}

	return &Registry{
		opts:     opts,
		board:    b,
		bank:     bank,
		gw:       gw,
		tokens:   tokens,
		log:      log,
		sessions: make(map[string]*Session),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:      time.Now,
		schedule: func(time.Duration, timerEvent) {},
	}, nil
}

func (r *Registry) Lobby() []PlayerView {
	return views(r.lobby)
}

func (r *Registry) Session(id string) (*Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Sessions() []*Session {
	out := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id])
	}

	return out
}

func (r *Registry) summaries() []Summary {
	out := make([]Summary, 0, len(r.order))
	for _, s := range r.Sessions() {
		out = append(out, s.Summary())
	}

	return out
}

func (r *Registry) lobbyChanged() {
	r.gw.Deliver(LobbyChanged{Players: r.Lobby()})
}

// Connect registers a client and sends it the current lobby.
func (r *Registry) Connect(c *Client) {
	r.gw.Register(c)
	r.gw.Deliver(LobbyChanged{Players: r.Lobby(), To: c.ID})
}

// JoinLobby adds a waiting player. requestedID overrides the connection id
// so one device can seat several players while testing.
func (r *Registry) JoinLobby(from, name, requestedID string) (PlayerView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return PlayerView{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	id := requestedID
	if id == "" {
		id = from
	}

	for _, p := range r.lobby {
		if p.ID == id {
			return PlayerView{}, fmt.Errorf("%w: id %s is already waiting", ErrDuplicateIdentity, id)
		}
		if strings.EqualFold(p.Name, name) {
			return PlayerView{}, fmt.Errorf("%w: name %q is already waiting", ErrDuplicateIdentity, name)
		}
	}
	for _, s := range r.sessions {
		if s.Player(id) != nil {
			return PlayerView{}, fmt.Errorf("%w: id %s is already playing", ErrDuplicateIdentity, id)
		}
	}

	p := &Player{
		ID:       id,
		Name:     name,
		IsActive: true,
		key:      uuid.NewString(),
		conn:     from,
		joinedAt: r.now(),
	}

	token, err := r.tokens.Issue(p.key)
	if err != nil {
		return PlayerView{}, err
	}
	p.token = token

	r.lobby = append(r.lobby, p)

	r.log.Debug().Str("player", p.Name).Int("waiting", len(r.lobby)).Msg("joined lobby")

	r.gw.Deliver(LobbyJoined{ClientID: from, Player: p.View(), Token: token})
	r.lobbyChanged()

	if r.opts.AutoStart && len(r.lobby) >= r.opts.MaxPlayers {
		if _, err := r.startSession(); err != nil {
			r.log.Error().Err(err).Msg("auto start failed")
		}
	}

	return p.View(), nil
}

// LeaveLobby removes a waiting player. Leaving twice is not an error.
func (r *Registry) LeaveLobby(from, id string) error {
	for i, p := range r.lobby {
		if id != "" && p.ID != id {
			continue
		}
		if id == "" && p.conn != from {
			continue
		}
		if p.conn != from {
			return fmt.Errorf("%w: %s belongs to another connection", ErrUnauthorized, p.ID)
		}

		r.lobby = append(r.lobby[:i], r.lobby[i+1:]...)
		r.log.Debug().Str("player", p.Name).Msg("left lobby")
		r.lobbyChanged()

		return nil
	}

	return nil
}

// ClaimAdmin hands the admin slot to the first connection asking for it.
func (r *Registry) ClaimAdmin(from string) error {
	if r.admin != "" && r.admin != from {
		return ErrAdminTaken
	}

	r.admin = from
	r.log.Debug().Str("client", from).Msg("admin connected")

	r.gw.Deliver(AdminChanged{
		ClientID: from,
		Granted:  true,
		Lobby:    r.Lobby(),
		Games:    r.summaries(),
	})

	return nil
}

func (r *Registry) IsAdmin(id string) bool {
	return r.admin != "" && r.admin == id
}

func (r *Registry) authorize(from string) error {
	if !r.IsAdmin(from) {
		return fmt.Errorf("%w: only the admin may do that", ErrUnauthorized)
	}

	return nil
}

// StartSession promotes waiting players, in join order, into a new game.
func (r *Registry) StartSession(from string) (*Session, error) {
	if err := r.authorize(from); err != nil {
		return nil, err
	}

	return r.startSession()
}

func (r *Registry) startSession() (*Session, error) {
	n := min(len(r.lobby), r.opts.MaxPlayers)
	if n < r.opts.MinPlayers {
		return nil, fmt.Errorf("%w: %d waiting, %d needed", ErrNotEnoughPlayers, len(r.lobby), r.opts.MinPlayers)
	}

	players := append([]*Player(nil), r.lobby[:n]...)
	r.lobby = append([]*Player(nil), r.lobby[n:]...)

	now := r.now()
	s := newSession(uuid.NewString(), players, r.board, r.bank, r.rng, r.opts.RandomTasks, now)
	r.sessions[s.ID] = s
	r.order = append(r.order, s.ID)

	private := make([]PrivateStart, 0, len(players))
	for _, p := range players {
		private = append(private, r.privateStart(p))
	}

	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
	}
	r.log.Info().Str("game", s.ID).Strs("players", names).Msg("game started")

	r.gw.Deliver(SessionStarted{
		GameID:    s.ID,
		StartTime: now,
		Players:   views(players),
		Private:   private,
	})
	r.lobbyChanged()

	return s, nil
}

func (r *Registry) privateStart(p *Player) PrivateStart {
	return PrivateStart{
		ClientID: p.conn,
		Player:   p.View(),
		GameURL:  r.opts.Prefix + "/game/" + p.ID,
		Token:    p.token,
	}
}

// EndSession stops one game, or every game when gameID is empty.
func (r *Registry) EndSession(from, gameID string) error {
	if err := r.authorize(from); err != nil {
		return err
	}

	if gameID == "" {
		if len(r.sessions) == 0 {
			return fmt.Errorf("%w: no game is running", ErrUnknownSession)
		}
		for _, s := range r.Sessions() {
			r.endSession(s, true, "ended by admin")
		}
		r.lobbyChanged()

		return nil
	}

	s, ok := r.sessions[gameID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, gameID)
	}

	r.endSession(s, true, "ended by admin")
	r.lobbyChanged()

	return nil
}

func (r *Registry) endSession(s *Session, adminEnded bool, reason string) {
	delete(r.sessions, s.ID)
	for i, id := range r.order {
		if id == s.ID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	var winner *Winner
	if s.Winner != nil {
		w := *s.Winner
		winner = &w
	}

	r.log.Info().Str("game", s.ID).Str("reason", reason).Msg("game ended")

	r.gw.Deliver(SessionEnded{
		GameID:     s.ID,
		Winner:     winner,
		AdminEnded: adminEnded,
		Reason:     reason,
	})
}

// locate finds the session and player for playerID, checking that from is
// the connection speaking for that player.
func (r *Registry) locate(from, playerID string) (*Session, *Player, error) {
	if playerID == "" {
		for _, s := range r.Sessions() {
			if p := s.playerByConn(from); p != nil {
				return s, p, nil
			}
		}

		return nil, nil, fmt.Errorf("%w: connection is not seated in a game", ErrUnknownPlayer)
	}

	for _, s := range r.Sessions() {
		p := s.Player(playerID)
		if p == nil {
			continue
		}
		if p.conn != from {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
		}

		return s, p, nil
	}

	for _, p := range r.lobby {
		if p.ID == playerID {
			return nil, nil, fmt.Errorf("%w: the game has not started yet", ErrInvalidTransition)
		}
	}

	return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
}

// Roll applies a die roll. value 0 asks the server to roll.
func (r *Registry) Roll(from, playerID string, value int) error {
	s, p, err := r.locate(from, playerID)
	if err != nil {
		return err
	}

	if value == 0 {
		value = board.MinDie + r.rng.IntN(board.MaxDie)
	}

	out, err := s.Roll(p.ID, value)
	if err != nil {
		return err
	}

	now := r.now()
	s.touch(now)

	r.log.Debug().
		Str("game", s.ID).
		Str("player", p.Name).
		Int("roll", value).
		Int("from", out.Result.From).
		Int("to", out.Result.NewPosition).
		Msg("dice rolled")

	r.gw.Deliver(RollResolved{
		EventID:  uuid.NewString(),
		GameID:   s.ID,
		ClientID: from,
		Player:   p.View(),
		Result:   out.Result,
		Task:     out.Task,
		At:       now,
		Players:  views(s.Players),
	})

	if out.Task != nil && r.opts.TaskTimeout > 0 {
		r.schedule(r.opts.TaskTimeout, timerEvent{kind: timerExpireTask, gameID: s.ID, playerID: p.ID, seq: out.TaskSeq})
	}

	if out.Won {
		r.won(s, p, out.First)
	}

	if out.Result.Overflow {
		return fmt.Errorf("%w: %d + %d > %d", ErrOverflowMove, out.Result.From, value, board.Goal)
	}

	return nil
}

// Answer resolves the task pending for playerID.
func (r *Registry) Answer(from, playerID, taskID string, answer int) error {
	s, p, err := r.locate(from, playerID)
	if err != nil {
		return err
	}

	out, err := s.Answer(p.ID, taskID, answer)
	if err != nil {
		return err
	}

	r.taskResolved(s, p, out)

	return nil
}

func (r *Registry) taskResolved(s *Session, p *Player, out TaskOutcome) {
	now := r.now()
	s.touch(now)

	r.log.Debug().
		Str("game", s.ID).
		Str("player", p.Name).
		Str("task", out.TaskID).
		Bool("success", out.Success).
		Bool("expired", out.Expired).
		Msg("task resolved")

	r.gw.Deliver(TaskResolved{
		EventID: uuid.NewString(),
		GameID:  s.ID,
		Player:  p.View(),
		Outcome: out,
		At:      now,
		Players: views(s.Players),
	})

	if out.Won {
		r.won(s, p, out.First)
	}
}

func (r *Registry) won(s *Session, p *Player, first bool) {
	if first {
		r.log.Info().Str("game", s.ID).Str("player", p.Name).Msg("game won")
	}

	r.gw.Deliver(PlayerWon{
		GameID:        s.ID,
		PlayerID:      p.ID,
		Name:          p.Name,
		FinalPosition: p.Position,
		Rank:          p.Rank,
	})
}

// Rejoin re-seats a reconnecting player identified by its token.
func (r *Registry) Rejoin(from, gameID, token string) error {
	key, err := r.tokens.Parse(token)
	if err != nil {
		return err
	}

	candidates := r.Sessions()
	if gameID != "" {
		s, ok := r.sessions[gameID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSession, gameID)
		}
		candidates = []*Session{s}
	}

	for _, s := range candidates {
		p := s.playerByKey(key)
		if p == nil {
			continue
		}

		p.conn = from
		p.IsActive = true
		p.dropSeq++
		s.touch(r.now())

		r.log.Debug().Str("game", s.ID).Str("player", p.Name).Msg("player rejoined")

		r.gw.Deliver(PlayerRejoined{
			GameID:  s.ID,
			Start:   r.privateStart(p),
			Players: views(s.Players),
			Pending: p.pending,
		})

		return nil
	}

	if gameID == "" {
		for _, p := range r.lobby {
			if p.key != key {
				continue
			}

			p.conn = from
			p.IsActive = true

			r.gw.Deliver(LobbyJoined{ClientID: from, Player: p.View(), Token: p.token})
			r.lobbyChanged()

			return nil
		}
	}

	return fmt.Errorf("%w: no seat matches this token", ErrUnknownPlayer)
}

// Watch subscribes a connection to every session's moves.
func (r *Registry) Watch(from string) {
	r.gw.Deliver(LeaderboardRequested{ClientID: from})
}

// Disconnect handles a closed connection. Session players get
// PlayerTimeout to come back before they are dropped.
func (r *Registry) Disconnect(from string) {
	if r.admin == from {
		r.admin = ""
		r.log.Debug().Str("client", from).Msg("admin disconnected")
	}

	changed := false
	kept := r.lobby[:0]
	for _, p := range r.lobby {
		if p.conn == from {
			changed = true
			r.log.Debug().Str("player", p.Name).Msg("left lobby")
			continue
		}
		kept = append(kept, p)
	}
	r.lobby = kept
	if changed {
		r.lobbyChanged()
	}

	for _, s := range r.Sessions() {
		p := s.playerByConn(from)
		if p == nil {
			continue
		}

		p.IsActive = false
		p.dropSeq++

		if r.opts.PlayerTimeout <= 0 {
			r.dropPlayer(s, p)
			continue
		}

		r.gw.Deliver(PlayerLeft{GameID: s.ID, PlayerID: p.ID, Name: p.Name})
		r.schedule(r.opts.PlayerTimeout, timerEvent{kind: timerDropPlayer, gameID: s.ID, playerID: p.ID, seq: p.dropSeq})
	}
}

func (r *Registry) dropPlayer(s *Session, p *Player) {
	if !s.Remove(p.ID) {
		return
	}

	r.log.Debug().Str("game", s.ID).Str("player", p.Name).Msg("player removed")
	r.gw.Deliver(PlayerLeft{GameID: s.ID, PlayerID: p.ID, Name: p.Name, Removed: true})

	if len(s.Players) < 2 {
		r.endSession(s, false, "not enough players")
		r.lobbyChanged()
	}
}

func (r *Registry) fire(ev timerEvent) {
	s, ok := r.sessions[ev.gameID]
	if !ok {
		return
	}
	p := s.Player(ev.playerID)
	if p == nil {
		return
	}

	switch ev.kind {
	case timerDropPlayer:
		if p.IsActive || p.dropSeq != ev.seq {
			return
		}
		r.dropPlayer(s, p)

	case timerExpireTask:
		out, err := s.Forfeit(p.ID, ev.seq)
		if err != nil {
			if !errors.Is(err, ErrInvalidTransition) {
				r.log.Error().Err(err).Msg("task expiry failed")
			}
			return
		}
		r.taskResolved(s, p, out)
	}
}

// ReapIdle ends sessions without activity for SessionTimeout.
func (r *Registry) ReapIdle() {
	if r.opts.SessionTimeout <= 0 {
		return
	}

	cutoff := r.now().Add(-r.opts.SessionTimeout)
	reaped := false
	for _, s := range r.Sessions() {
		if s.lastActive.Before(cutoff) {
			r.endSession(s, false, "idle timeout")
			reaped = true
		}
	}
	if reaped {
		r.lobbyChanged()
	}
}

// Snapshot is the read-only status served over HTTP.
type Snapshot struct {
	Lobby    []PlayerView `json:"lobby"`
	Games    []Summary    `json:"games"`
	HasAdmin bool         `json:"hasAdmin"`
	Clients  int          `json:"clients"`
	Board    []board.Tile `json:"board"`
}

func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		Lobby:    r.Lobby(),
		Games:    r.summaries(),
		HasAdmin: r.admin != "",
		Clients:  r.gw.Len(),
		Board:    r.board.Tiles(),
	}
}
