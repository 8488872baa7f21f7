package server

import (
	"math/rand"
)

// RoomState is the match lifecycle. A room transitions Lobby→Playing at most
// once and Playing→Ended at most once.
type RoomState int

const (
	RoomLobby RoomState = iota
	RoomPlaying
	RoomEnded
)

func (s RoomState) String() string {
	switch s {
	case RoomLobby:
		return "lobby"
	case RoomPlaying:
		return "playing"
	case RoomEnded:
		return "ended"
	}
	return "unknown"
}

type playerCombatState struct {
	health    int
	maxHealth int

	// lastAttackerID is the session id of the player whose hit landed most
	// recently, or killerEnvironment when monsters or fog hit last. It feeds
	// kill attribution in the death broadcast.
	lastAttackerID int
}

// Room is one match instance: the roster in join order, the host, the
// authoritative combat store, last-known positions, and the room's own
// monster population and fog schedule. All mutation happens under the hub
// lock; the outbound slice collects broadcasts for the hub to flush.
type Room struct {
	id       int
	name     string
	capacity int
	host     *Session
	roster   []*Session
	state    RoomState

	positions map[int]vec2
	combat    map[int]*playerCombatState
	dead      map[int]bool

	monsters *monsterManager
	fog      *fogState

	elapsed float64
	winner  int // 0 until a winner is declared

	outbound []any
}

func newRoom(id int, name string, capacity int, host *Session, cmap *CollisionMap, rng *rand.Rand, cfg HubConfig) *Room {
	room := &Room{
		id:        id,
		name:      name,
		capacity:  capacity,
		host:      host,
		roster:    []*Session{host},
		state:     RoomLobby,
		positions: make(map[int]vec2),
		combat:    make(map[int]*playerCombatState),
		dead:      make(map[int]bool),
		monsters:  newMonsterManager(cmap, rng, cfg.MonsterCap, cfg.SpawnBatch),
		fog:       newFogState(cmap, rng, cfg.FogInterval, cfg.FogDamage, cfg.FogRegen),
	}
	host.room = room
	return room
}

// addSession appends a session to the roster. It fails when the room is full
// or the match already started.
func (r *Room) addSession(s *Session) error {
	if r.state != RoomLobby {
		return ErrRoomPlaying
	}
	if len(r.roster) >= r.capacity {
		return ErrRoomFull
	}
	r.roster = append(r.roster, s)
	s.room = r
	return nil
}

// removeSession drops a session from the roster, migrating the host to the
// next roster member when the host leaves. It returns true when the roster
// became empty and the room should be destroyed.
func (r *Room) removeSession(s *Session) bool {
	for i, member := range r.roster {
		if member == s {
			r.roster = append(r.roster[:i], r.roster[i+1:]...)
			break
		}
	}
	s.room = nil
	delete(r.positions, s.id)

	if len(r.roster) == 0 {
		return true
	}
	if r.host == s {
		r.host = r.roster[0]
	}
	r.queue(r.rosterUpdate())
	return false
}

// start flips the room to Playing, assigns the four fixed spawn points
// round-robin by join order, and seeds the authoritative combat store.
func (r *Room) start(now int64) gameStartMessage {
	r.state = RoomPlaying

	msg := gameStartMessage{
		Type:      typeGameStart,
		StartTime: now,
		Players:   make([]gameStartPlayer, 0, len(r.roster)),
	}
	for i, member := range r.roster {
		spawn := spawnPoints[i%len(spawnPoints)]
		r.positions[member.id] = spawn
		r.combat[member.id] = &playerCombatState{
			health:         playerMaxHealth,
			maxHealth:      playerMaxHealth,
			lastAttackerID: killerEnvironment,
		}
		msg.Players = append(msg.Players, gameStartPlayer{
			PlayerInfo: PlayerInfo{
				PlayerID:   member.id,
				PlayerName: member.name,
				IsHost:     member == r.host,
			},
			SpawnX: spawn.X,
			SpawnY: spawn.Y,
		})
	}
	return msg
}

// activePlayers returns the non-dead roster ids in join order together with
// their last known positions.
func (r *Room) activePlayers() ([]int, map[int]vec2) {
	ids := make([]int, 0, len(r.roster))
	positions := make(map[int]vec2, len(r.roster))
	for _, member := range r.roster {
		if r.dead[member.id] {
			continue
		}
		ids = append(ids, member.id)
		if pos, ok := r.positions[member.id]; ok {
			positions[member.id] = pos
		}
	}
	return ids, positions
}

func (r *Room) isDead(sessionID int) bool { return r.dead[sessionID] }

// damagePlayer subtracts from the authoritative health store, clamped to
// [0, max]. The upper clamp keeps client-supplied negative damage from
// inflating health past the maximum. It reports the new health and whether
// the id had combat state.
func (r *Room) damagePlayer(sessionID, amount int) (int, bool) {
	state, ok := r.combat[sessionID]
	if !ok {
		return 0, false
	}
	state.health -= amount
	if state.health < 0 {
		state.health = 0
	}
	if state.health > state.maxHealth {
		state.health = state.maxHealth
	}
	return state.health, true
}

// healPlayer adds to the authoritative health store, clamped at max. The
// second result is false when the player was already at full health.
func (r *Room) healPlayer(sessionID, amount int) (int, bool) {
	state, ok := r.combat[sessionID]
	if !ok || state.health >= state.maxHealth {
		if ok {
			return state.health, false
		}
		return 0, false
	}
	state.health += amount
	if state.health > state.maxHealth {
		state.health = state.maxHealth
	}
	return state.health, true
}

// noteAttacker records who dealt the most recent hit to a player.
func (r *Room) noteAttacker(sessionID, attackerID int) {
	if state, ok := r.combat[sessionID]; ok {
		state.lastAttackerID = attackerID
	}
}

func (r *Room) health(sessionID int) int {
	if state, ok := r.combat[sessionID]; ok {
		return state.health
	}
	return 0
}

func (r *Room) maxHealth(sessionID int) int {
	if state, ok := r.combat[sessionID]; ok {
		return state.maxHealth
	}
	return playerMaxHealth
}

// resyncCombat overwrites a player's health after a level-up.
func (r *Room) resyncCombat(sessionID, health, maxHealth int) {
	state, ok := r.combat[sessionID]
	if !ok {
		return
	}
	if maxHealth > 0 {
		state.maxHealth = maxHealth
	}
	state.health = health
	if state.health > state.maxHealth {
		state.health = state.maxHealth
	}
	if state.health < 0 {
		state.health = 0
	}
}

func (r *Room) sessionByID(id int) (*Session, bool) {
	for _, member := range r.roster {
		if member.id == id {
			return member, true
		}
	}
	return nil, false
}

// queue stages a broadcast for the hub to fan out after the current
// operation or tick finishes. Simulation code never touches the transport.
func (r *Room) queue(msg any) {
	r.outbound = append(r.outbound, msg)
}

func (r *Room) drainOutbound() []any {
	if len(r.outbound) == 0 {
		return nil
	}
	drained := r.outbound
	r.outbound = nil
	return drained
}

func (r *Room) rosterInfo() []PlayerInfo {
	players := make([]PlayerInfo, 0, len(r.roster))
	for _, member := range r.roster {
		players = append(players, PlayerInfo{
			PlayerID:   member.id,
			PlayerName: member.name,
			IsHost:     member == r.host,
		})
	}
	return players
}

func (r *Room) rosterUpdate() roomUpdateMessage {
	return roomUpdateMessage{
		Type:      typeRoomUpdate,
		Players:   r.rosterInfo(),
		NewHostID: r.host.id,
	}
}

func (r *Room) info() RoomInfo {
	return RoomInfo{
		RoomID:         r.id,
		RoomName:       r.name,
		CurrentPlayers: len(r.roster),
		MaxPlayers:     r.capacity,
		HostName:       r.host.name,
		IsPlaying:      r.state == RoomPlaying,
	}
}
