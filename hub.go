package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
)

// Validation failures surfaced to clients as {success:false, message}.
var (
	ErrAlreadyInRoom = errors.New("already in a room")
	ErrRoomNotFound  = errors.New("room does not exist")
	ErrRoomFull      = errors.New("room is full")
	ErrRoomPlaying   = errors.New("room is already playing")
	ErrNotHost       = errors.New("only the host can start the game")
)

// HubConfig carries the tunables the config file can override.
type HubConfig struct {
	TickRate    int
	MonsterCap  int
	SpawnBatch  int
	FogInterval float64
	FogDamage   int
	FogRegen    int
	Seed        int64
	Logger      *slog.Logger
}

// DefaultHubConfig returns the stock tuning used when no config overrides
// are present.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		TickRate:    tickRate,
		MonsterCap:  monsterCap,
		SpawnBatch:  monsterSpawnBatch,
		FogInterval: fogActivationInterval,
		FogDamage:   fogDamagePerSecond,
		FogRegen:    fogRegenAmount,
	}
}

// Hub owns every live session and room. One coarse mutex guards all room
// mutation: the game loop holds it for a full tick iteration, and every
// handler path that creates, joins, or removes rooms takes the same lock.
type Hub struct {
	mu            sync.Mutex
	sessions      map[int]*Session
	rooms         map[int]*Room
	nextSessionID int
	nextRoomID    int

	cmap   *CollisionMap
	cfg    HubConfig
	logger *slog.Logger
	rng    *rand.Rand
}

// NewHub wires a hub around an immutable collision map.
func NewHub(cmap *CollisionMap, cfg HubConfig) *Hub {
	if cfg.TickRate <= 0 {
		cfg.TickRate = tickRate
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Hub{
		sessions: make(map[int]*Session),
		rooms:    make(map[int]*Room),
		cmap:     cmap,
		cfg:      cfg,
		logger:   logger,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Connect registers a new session for the given connection and hands back
// its identity.
func (h *Hub) Connect(conn *websocket.Conn) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSessionID++
	session := &Session{
		id:   h.nextSessionID,
		name: defaultSessionName(h.nextSessionID),
		sub:  newSubscriber(conn),
	}
	h.sessions[session.id] = session
	h.logger.Info("session connected", "session", session.id)
	return session
}

// Disconnect removes a session entirely, leaving its room first. The
// transport calls this when the connection drops.
func (h *Hub) Disconnect(s *Session) {
	h.mu.Lock()
	batch := h.leaveRoomLocked(s)
	delete(h.sessions, s.id)
	sub := s.sub
	h.mu.Unlock()

	sub.close()
	h.send(batch)
	h.logger.Info("session disconnected", "session", s.id)
}

// SetName validates and applies a display name. Names are immutable while
// the session occupies a room.
func (h *Hub) SetName(s *Session, name string) setNameResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return setNameResult{Type: typeSetNameResult, Success: false, Message: "name must not be empty"}
	case utf8.RuneCountInString(trimmed) > 12:
		return setNameResult{Type: typeSetNameResult, Success: false, Message: "name must be at most 12 characters"}
	case s.room != nil:
		return setNameResult{Type: typeSetNameResult, Success: false, Message: "cannot rename while in a room"}
	}
	s.name = trimmed
	return setNameResult{Type: typeSetNameResult, Success: true, Message: "name set"}
}

// CreateRoom opens a new lobby with the session as host.
func (h *Hub) CreateRoom(s *Session, name string, maxPlayers int) createRoomResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s.room != nil {
		return createRoomResult{Type: typeCreateRoomResult, Success: false, Message: ErrAlreadyInRoom.Error()}
	}
	if maxPlayers <= 0 {
		maxPlayers = len(spawnPoints)
	}

	h.nextRoomID++
	room := newRoom(h.nextRoomID, name, maxPlayers, s, h.cmap, h.rng, h.cfg)
	h.rooms[room.id] = room

	h.logger.Info("room created", "room", room.id, "name", name, "host", s.id)
	info := room.info()
	return createRoomResult{
		Type:    typeCreateRoomResult,
		Success: true,
		RoomID:  room.id,
		Message: "room created",
		Room:    &info,
		Players: room.rosterInfo(),
	}
}

// JoinRoom adds the session to an existing lobby.
func (h *Hub) JoinRoom(s *Session, roomID int) joinRoomResult {
	h.mu.Lock()

	fail := func(err error) joinRoomResult {
		h.mu.Unlock()
		return joinRoomResult{Type: typeJoinRoomResult, Success: false, Message: err.Error()}
	}

	if s.room != nil {
		return fail(ErrAlreadyInRoom)
	}
	room, ok := h.rooms[roomID]
	if !ok {
		return fail(ErrRoomNotFound)
	}
	if err := room.addSession(s); err != nil {
		return fail(err)
	}

	room.queue(room.rosterUpdate())
	batch := h.flushRoomLocked(room)
	info := room.info()
	result := joinRoomResult{
		Type:    typeJoinRoomResult,
		Success: true,
		Message: "joined",
		Room:    &info,
		Players: room.rosterInfo(),
	}
	h.mu.Unlock()

	h.send(batch)
	return result
}

// LeaveRoom removes the session from its room, if any. Leaving twice is a
// no-op by design.
func (h *Hub) LeaveRoom(s *Session) {
	h.mu.Lock()
	batch := h.leaveRoomLocked(s)
	h.mu.Unlock()
	h.send(batch)
}

// RoomList snapshots every room for the lobby browser.
func (h *Hub) RoomList() roomListMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms := make([]RoomInfo, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room.info())
	}
	return roomListMessage{Type: typeRoomList, Rooms: rooms}
}

// StartGame transitions the session's room from Lobby to Playing. Requests
// from anyone but the host, or against a room already playing, are ignored.
func (h *Hub) StartGame(s *Session) {
	h.mu.Lock()

	room := s.room
	if room == nil || room.host != s || room.state != RoomLobby {
		if room != nil && room.host != s {
			h.logger.Info("start rejected", "room", room.id, "session", s.id, "reason", ErrNotHost.Error())
		}
		h.mu.Unlock()
		return
	}

	msg := room.start(time.Now().UnixMilli())
	room.queue(msg)
	batch := h.flushRoomLocked(room)
	h.logger.Info("game started", "room", room.id, "players", len(room.roster))
	h.mu.Unlock()

	h.send(batch)
}

// Move records the sender's position for the AI and relays the movement to
// the rest of the roster.
func (h *Hub) Move(s *Session, x, y float64) {
	h.mu.Lock()
	room := s.room
	if room == nil || room.state != RoomPlaying {
		h.mu.Unlock()
		return
	}
	room.positions[s.id] = vec2{X: x, Y: y}
	subs := h.rosterSubsLocked(room, s)
	h.mu.Unlock()

	h.relay(subs, playerMoveMessage{Type: typePlayerMove, PlayerID: s.id, X: x, Y: y})
}

// SkillCastInput carries the client-reported skill metadata relayed to the
// rest of the room.
type SkillCastInput struct {
	SkillID            int
	TargetX            float64
	TargetY            float64
	SkillName          string
	ElementColor       string
	BaseDamage         int
	ProjectileSpeed    float64
	ProjectileRadius   float64
	ProjectileLifetime float64
}

// ProjectileInput carries one fired projectile announcement.
type ProjectileInput struct {
	StartX          float64
	StartY          float64
	TargetMonsterID int
	TargetPlayerID  int
	SkillType       string
}

// SkillCast relays a skill announcement to the other roster members.
func (h *Hub) SkillCast(s *Session, in SkillCastInput) {
	h.mu.Lock()
	room := s.room
	if room == nil || room.state != RoomPlaying {
		h.mu.Unlock()
		return
	}
	subs := h.rosterSubsLocked(room, s)
	h.mu.Unlock()

	h.relay(subs, skillCastMessage{
		Type:               typeSkillCast,
		PlayerID:           s.id,
		SkillID:            in.SkillID,
		TargetX:            in.TargetX,
		TargetY:            in.TargetY,
		SkillName:          in.SkillName,
		ElementColor:       in.ElementColor,
		BaseDamage:         in.BaseDamage,
		ProjectileSpeed:    in.ProjectileSpeed,
		ProjectileRadius:   in.ProjectileRadius,
		ProjectileLifetime: in.ProjectileLifetime,
	})
}

// Projectile relays a fired projectile to the other roster members.
func (h *Hub) Projectile(s *Session, in ProjectileInput) {
	h.mu.Lock()
	room := s.room
	if room == nil || room.state != RoomPlaying {
		h.mu.Unlock()
		return
	}
	subs := h.rosterSubsLocked(room, s)
	h.mu.Unlock()

	h.relay(subs, projectileMessage{
		Type:            typeProjectile,
		PlayerID:        s.id,
		StartX:          in.StartX,
		StartY:          in.StartY,
		TargetMonsterID: in.TargetMonsterID,
		TargetPlayerID:  in.TargetPlayerID,
		SkillType:       in.SkillType,
	})
}

// AttackMonster applies a validated player strike against a monster.
func (h *Hub) AttackMonster(s *Session, monsterID int, attackerX, attackerY float64, damage int) {
	h.mu.Lock()
	room := s.room
	if room == nil || room.state != RoomPlaying {
		h.mu.Unlock()
		return
	}
	room.resolveMonsterAttack(s, monsterID, attackerX, attackerY, damage)
	batch := h.flushRoomLocked(room)
	h.mu.Unlock()

	h.send(batch)
}

// AttackPlayer applies player-vs-player damage and broadcasts the result.
func (h *Hub) AttackPlayer(s *Session, targetID, damage int, skillType string) {
	h.mu.Lock()
	room := s.room
	if room == nil || room.state != RoomPlaying {
		h.mu.Unlock()
		return
	}
	room.resolvePlayerAttack(s, targetID, damage, skillType)
	batch := h.flushRoomLocked(room)
	h.mu.Unlock()

	h.send(batch)
}

// LevelUp resyncs the sender's authoritative health after a client-side
// level-up.
func (h *Hub) LevelUp(s *Session, newMaxHP, newCurrentHP int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := s.room
	if room == nil || room.state != RoomPlaying {
		return
	}
	room.resyncCombat(s.id, newCurrentHP, newMaxHP)
}

// RunGameLoop drives the fixed-rate simulation until the stop channel
// closes. Each tick advances every playing room in monsters→fog→death order
// so hazard damage is visible to the same-tick death check. A panic while
// simulating one room is logged and never stops the other rooms or the
// loop; drift is absorbed by the ticker, never by double-ticking.
func (h *Hub) RunGameLoop(stop <-chan struct{}) {
	rate := h.cfg.TickRate
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	dt := 1.0 / float64(rate)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.tick(dt)
		}
	}
}

// tick advances all playing rooms by one simulation step.
func (h *Hub) tick(dt float64) {
	h.mu.Lock()
	batches := make([]outboundBatch, 0, len(h.rooms))
	for _, room := range h.rooms {
		if room.state != RoomPlaying || len(room.roster) == 0 {
			continue
		}
		h.tickRoomLocked(room, dt)
		if batch := h.flushRoomLocked(room); len(batch.payloads) > 0 {
			batches = append(batches, batch)
		}
	}
	h.mu.Unlock()

	for _, batch := range batches {
		h.send(batch)
	}
}

func (h *Hub) tickRoomLocked(room *Room, dt float64) {
	defer func() {
		if err := recover(); err != nil {
			h.logger.Error("tick failed", "room", room.id, "error", err)
		}
	}()

	room.elapsed += dt
	players, positions := room.activePlayers()
	room.monsters.update(dt, room, players, positions)
	room.fog.update(dt, room, players, positions)
	room.checkDeaths()
}

// leaveRoomLocked detaches the session from its room and deletes the room
// when the roster empties, which also stops its simulation on the next tick.
func (h *Hub) leaveRoomLocked(s *Session) outboundBatch {
	room := s.room
	if room == nil {
		return outboundBatch{}
	}
	if empty := room.removeSession(s); empty {
		delete(h.rooms, room.id)
		h.logger.Info("room deleted", "room", room.id)
		return outboundBatch{}
	}
	return h.flushRoomLocked(room)
}

// outboundBatch pairs queued payloads with the subscribers they go to, so
// marshaling and writing happen outside the hub lock.
type outboundBatch struct {
	payloads []any
	subs     []*subscriber
}

func (h *Hub) flushRoomLocked(room *Room) outboundBatch {
	payloads := room.drainOutbound()
	if len(payloads) == 0 {
		return outboundBatch{}
	}
	return outboundBatch{payloads: payloads, subs: h.rosterSubsLocked(room, nil)}
}

func (h *Hub) rosterSubsLocked(room *Room, exclude *Session) []*subscriber {
	subs := make([]*subscriber, 0, len(room.roster))
	for _, member := range room.roster {
		if member == exclude {
			continue
		}
		subs = append(subs, member.sub)
	}
	return subs
}

// send marshals each payload once and writes it to every subscriber in the
// batch. Failed writes are logged; the dead connection's read loop notices
// and tears the session down.
func (h *Hub) send(batch outboundBatch) {
	for _, payload := range batch.payloads {
		data, err := json.Marshal(payload)
		if err != nil {
			h.logger.Error("marshal broadcast", "error", err)
			continue
		}
		for _, sub := range batch.subs {
			if err := sub.writeMessage(data); err != nil {
				h.logger.Warn("broadcast write failed", "error", err)
				sub.close()
			}
		}
	}
}

func (h *Hub) relay(subs []*subscriber, payload any) {
	h.send(outboundBatch{payloads: []any{payload}, subs: subs})
}

// DiagnosticsSnapshot summarizes live state for the diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms := make([]map[string]any, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, map[string]any{
			"roomId":   room.id,
			"state":    room.state.String(),
			"players":  len(room.roster),
			"monsters": room.monsters.count(),
			"fogZones": room.fog.activeZones(),
		})
	}
	return map[string]any{
		"sessions": len(h.sessions),
		"rooms":    rooms,
	}
}

func (h *Hub) roomByID(id int) (*Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[id]
	return room, ok
}
