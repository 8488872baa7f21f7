package server

import (
	"math"
	"math/rand"
	"testing"
)

// startMatch spins up a hub, joins n players into one room, and starts the
// game, returning the room with its outbound queue drained.
func startMatch(t *testing.T, n int) (*Hub, *Room, []*Session) {
	t.Helper()
	h := newTestHub(t)
	sessions := connectN(h, n)
	created := h.CreateRoom(sessions[0], "match", n)
	if !created.Success {
		t.Fatalf("create failed: %s", created.Message)
	}
	for _, s := range sessions[1:] {
		if res := h.JoinRoom(s, created.RoomID); !res.Success {
			t.Fatalf("join failed: %s", res.Message)
		}
	}
	h.StartGame(sessions[0])
	room, ok := h.roomByID(created.RoomID)
	if !ok {
		t.Fatalf("room disappeared")
	}
	if room.state != RoomPlaying {
		t.Fatalf("room not playing: %v", room.state)
	}
	room.drainOutbound()
	return h, room, sessions
}

func drainByType(room *Room, msgType string) []any {
	var matched []any
	for _, payload := range room.drainOutbound() {
		switch m := payload.(type) {
		case monsterSpawnMessage:
			if m.Type == msgType {
				matched = append(matched, m)
			}
		case monsterUpdateMessage:
			if m.Type == msgType {
				matched = append(matched, m)
			}
		case monsterDamageMessage:
			if m.Type == msgType {
				matched = append(matched, m)
			}
		case monsterDeathMessage:
			if m.Type == msgType {
				matched = append(matched, m)
			}
		case monsterAttackMessage:
			if m.Type == msgType {
				matched = append(matched, m)
			}
		case fogZoneMessage:
			if m.Type == msgType {
				matched = append(matched, m)
			}
		case fogDamageMessage:
			if m.Type == msgType {
				matched = append(matched, m)
			}
		case playerAttackMessage:
			if m.Type == msgType {
				matched = append(matched, m)
			}
		case playerDeathMessage:
			if m.Type == msgType {
				matched = append(matched, m)
			}
		}
	}
	return matched
}

func TestSpawnConvergesToCap(t *testing.T) {
	_, room, _ := startMatch(t, 1)
	mm := room.monsters

	players, positions := room.activePlayers()
	prev := 0
	for i := 0; i < 30; i++ {
		mm.update(monsterSpawnInterval, room, players, positions)
		if grew := mm.count() - prev; grew > monsterSpawnBatch {
			t.Fatalf("spawn check %d added %d monsters, batch limit is %d", i, grew, monsterSpawnBatch)
		}
		if mm.count() > monsterCap {
			t.Fatalf("population %d exceeds cap %d", mm.count(), monsterCap)
		}
		prev = mm.count()
	}
	if mm.count() != monsterCap {
		t.Fatalf("population %d, want cap %d", mm.count(), monsterCap)
	}

	spawns := drainByType(room, typeMonsterSpawn)
	if len(spawns) != monsterCap {
		t.Fatalf("got %d spawn broadcasts, want %d", len(spawns), monsterCap)
	}
}

func TestNoSpawnWithoutPlayers(t *testing.T) {
	_, room, _ := startMatch(t, 1)
	mm := room.monsters

	for i := 0; i < 10; i++ {
		mm.update(monsterSpawnInterval, room, nil, nil)
	}
	if mm.count() != 0 {
		t.Fatalf("spawned %d monsters into an empty room", mm.count())
	}
}

func TestSpawnAvoidsCenterRefuge(t *testing.T) {
	_, room, _ := startMatch(t, 1)
	mm := room.monsters

	players, positions := room.activePlayers()
	for i := 0; i < 30; i++ {
		mm.update(monsterSpawnInterval, room, players, positions)
	}

	// Check the broadcast coordinates: live positions drift toward players
	// as soon as the AI runs.
	centerX, centerY := mm.cmap.PixelWidth()/2, mm.cmap.PixelHeight()/2
	spawns := drainByType(room, typeMonsterSpawn)
	if len(spawns) == 0 {
		t.Fatalf("no spawn broadcasts")
	}
	for _, payload := range spawns {
		msg := payload.(monsterSpawnMessage)
		if d := math.Hypot(msg.X-centerX, msg.Y-centerY); d < centerRefuge {
			t.Errorf("monster %d spawned %f px from center, refuge is %v", msg.MonsterID, d, centerRefuge)
		}
		if msg.X < spawnMargin || msg.X > mm.cmap.PixelWidth()-spawnMargin ||
			msg.Y < spawnMargin || msg.Y > mm.cmap.PixelHeight()-spawnMargin {
			t.Errorf("monster %d spawned outside the margin at (%f, %f)", msg.MonsterID, msg.X, msg.Y)
		}
	}
}

func TestMonsterIDsStartAtFloor(t *testing.T) {
	_, room, _ := startMatch(t, 1)
	mm := room.monsters

	players, positions := room.activePlayers()
	mm.update(monsterSpawnInterval, room, players, positions)
	if mm.count() == 0 {
		t.Fatalf("no monsters spawned")
	}
	for i, m := range mm.monsters {
		if want := firstMonsterID + i; m.id != want {
			t.Errorf("monster %d has id %d, want %d", i, m.id, want)
		}
	}
}

func TestGolemDamageReduction(t *testing.T) {
	m := newMonster(firstMonsterID, MonsterGolem, 500, 500)

	m.damage(100, 7)
	if want := 150 - 70; m.health != want {
		t.Fatalf("golem health %d after 100 raw damage, want %d", m.health, want)
	}
	if !m.alive() {
		t.Fatalf("golem died too early")
	}

	m.damage(200, 7)
	if m.health != 0 || m.state != monsterDead {
		t.Fatalf("golem should be dead at zero: hp=%d state=%s", m.health, m.state)
	}
	if m.lastAttackerID != 7 {
		t.Fatalf("kill credit %d, want 7", m.lastAttackerID)
	}

	// Further damage to a corpse is ignored.
	m.damage(100, 9)
	if m.lastAttackerID != 7 {
		t.Fatalf("dead monster accepted damage")
	}
}

func TestMonsterPursuesNearestPlayer(t *testing.T) {
	cmap := newLargeMap(t)
	rng := rand.New(rand.NewSource(1))
	m := newMonster(firstMonsterID, MonsterBat, 500, 500)

	players := []int{1, 2}
	positions := map[int]vec2{
		1: {X: 900, Y: 500},
		2: {X: 3500, Y: 3500},
	}
	m.update(0.05, players, positions, cmap, rng)

	if m.state != monsterPursuing {
		t.Fatalf("state %s, want %s", m.state, monsterPursuing)
	}
	if m.targetID != 1 {
		t.Fatalf("target %d, want the nearer player 1", m.targetID)
	}
	if m.vel.X <= 0 || m.vel.Y != 0 {
		t.Fatalf("velocity %+v should point toward the target", m.vel)
	}
	if speed := math.Hypot(m.vel.X, m.vel.Y); math.Abs(speed-m.params.speed) > 1e-9 {
		t.Fatalf("speed %f, want %f", speed, m.params.speed)
	}
}

func TestMonsterAttacksInRangeAndCoolsDown(t *testing.T) {
	cmap := newLargeMap(t)
	rng := rand.New(rand.NewSource(1))
	m := newMonster(firstMonsterID, MonsterBat, 500, 500)

	players := []int{1}
	positions := map[int]vec2{1: {X: 520, Y: 500}}

	m.update(0.05, players, positions, cmap, rng)
	if m.state != monsterAttacking || !m.struck {
		t.Fatalf("expected an attack: state=%s struck=%v", m.state, m.struck)
	}
	if m.cooldown != m.params.attackCooldown {
		t.Fatalf("cooldown %f, want %f", m.cooldown, m.params.attackCooldown)
	}

	// Still in range but on cooldown: no second strike.
	m.update(0.05, players, positions, cmap, rng)
	if m.struck {
		t.Fatalf("struck again while on cooldown")
	}
}

func TestMonsterIdlesWithoutPlayers(t *testing.T) {
	cmap := newLargeMap(t)
	rng := rand.New(rand.NewSource(1))
	m := newMonster(firstMonsterID, MonsterGhost, 500, 500)

	m.update(0.05, nil, nil, cmap, rng)
	if m.state != monsterIdle {
		t.Fatalf("state %s, want %s", m.state, monsterIdle)
	}
	if m.vel != (vec2{}) {
		t.Fatalf("idle monster still moving: %+v", m.vel)
	}
}

func TestMonsterStaysInBounds(t *testing.T) {
	cmap := newLargeMap(t)
	rng := rand.New(rand.NewSource(1))
	m := newMonster(firstMonsterID, MonsterBat, 25, 25)

	players := []int{1}
	positions := map[int]vec2{1: {X: -500, Y: -500}}
	for i := 0; i < 100; i++ {
		m.update(0.05, players, positions, cmap, rng)
	}
	if m.pos.X < monsterRadius || m.pos.Y < monsterRadius {
		t.Fatalf("monster escaped the map: %+v", m.pos)
	}
}

func TestMonsterStrikeDamagesPlayer(t *testing.T) {
	_, room, sessions := startMatch(t, 1)
	victim := sessions[0]
	room.positions[victim.id] = vec2{X: 500, Y: 500}

	mm := room.monsters
	m := newMonster(firstMonsterID, MonsterBat, 510, 500)
	mm.monsters = append(mm.monsters, m)

	players, positions := room.activePlayers()
	mm.update(0.05, room, players, positions)

	if want := playerMaxHealth - m.params.attackDamage; room.health(victim.id) != want {
		t.Fatalf("victim health %d, want %d", room.health(victim.id), want)
	}
	attacks := drainByType(room, typeMonsterAttack)
	if len(attacks) != 1 {
		t.Fatalf("got %d monsterAttack broadcasts, want 1", len(attacks))
	}
	attack := attacks[0].(monsterAttackMessage)
	if attack.PlayerID != victim.id || attack.Damage != m.params.attackDamage {
		t.Fatalf("unexpected attack payload: %+v", attack)
	}
}

func TestMonsterSyncCadence(t *testing.T) {
	_, room, _ := startMatch(t, 1)
	mm := room.monsters
	mm.monsters = append(mm.monsters, newMonster(firstMonsterID, MonsterGolem, 3500, 3500))
	room.positions[room.roster[0].id] = vec2{X: 500, Y: 500}
	players, positions := room.activePlayers()
	mm.spawnTimer = -1e9 // keep the spawn schedule out of this test

	dt := 1.0 / float64(tickRate)
	ticksPerSync := int(monsterSyncInterval/dt + 1e-9)
	for i := 0; i < ticksPerSync-1; i++ {
		mm.update(dt, room, players, positions)
	}
	if updates := drainByType(room, typeMonsterUpdate); len(updates) != 0 {
		t.Fatalf("sync fired after %d ticks, cadence is %d", ticksPerSync-1, ticksPerSync)
	}
	mm.update(dt, room, players, positions)
	if updates := drainByType(room, typeMonsterUpdate); len(updates) != 1 {
		t.Fatalf("got %d state broadcasts, want exactly 1", len(updates))
	}
}

func TestDeadMonsterRemovedWithBroadcast(t *testing.T) {
	_, room, sessions := startMatch(t, 1)
	mm := room.monsters
	m := newMonster(firstMonsterID, MonsterBat, 3500, 3500)
	mm.monsters = append(mm.monsters, m)
	mm.spawnTimer = -1e9

	m.damage(m.params.maxHealth, sessions[0].id)
	players, positions := room.activePlayers()
	mm.update(0.05, room, players, positions)

	if mm.count() != 0 {
		t.Fatalf("dead monster still tracked")
	}
	deaths := drainByType(room, typeMonsterDeath)
	if len(deaths) != 1 {
		t.Fatalf("got %d death broadcasts, want 1", len(deaths))
	}
	death := deaths[0].(monsterDeathMessage)
	if death.MonsterID != m.id || death.KillerID != sessions[0].id {
		t.Fatalf("unexpected death payload: %+v", death)
	}
}

func TestGhostInvisibilityExpires(t *testing.T) {
	cmap := newLargeMap(t)
	rng := rand.New(rand.NewSource(1))
	m := newMonster(firstMonsterID, MonsterGhost, 500, 500)

	// Idle long enough that the per-second chance has effectively fired.
	for i := 0; i < 20000 && !m.invisible; i++ {
		m.update(0.05, nil, nil, cmap, rng)
	}
	if !m.invisible {
		t.Fatalf("ghost never turned invisible while idle")
	}

	// Invisibility wears off on its own.
	for i := 0; i < int(ghostInvisibilityDuration/0.05)+1; i++ {
		players := []int{1}
		positions := map[int]vec2{1: {X: 600, Y: 500}}
		m.update(0.05, players, positions, cmap, rng)
	}
	if m.invisible {
		t.Fatalf("invisibility did not expire")
	}
}
