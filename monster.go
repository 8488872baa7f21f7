package server

import (
	"math"
	"math/rand"
)

// MonsterType tags the three archetypes. Per-type behavior differences live
// in monsterParams plus a damage multiplier, so one update function covers
// every type.
type MonsterType string

const (
	MonsterGhost MonsterType = "Ghost"
	MonsterBat   MonsterType = "Bat"
	MonsterGolem MonsterType = "Golem"
)

var monsterTypes = [...]MonsterType{MonsterGhost, MonsterBat, MonsterGolem}

// Monster behavior states, broadcast verbatim inside monsterUpdate messages.
const (
	monsterIdle      = "IDLE"
	monsterPursuing  = "PURSUING"
	monsterAttacking = "ATTACKING"
	monsterDead      = "DEAD"
)

type monsterParams struct {
	maxHealth      int
	speed          float64 // pixels per second
	aggroRadius    float64
	attackRadius   float64
	attackDamage   int
	attackCooldown float64 // seconds
	damageTaken    float64 // multiplier applied to incoming damage
}

var monsterParamsByType = map[MonsterType]monsterParams{
	MonsterGhost: {
		maxHealth:      60,
		speed:          120,
		aggroRadius:    3000,
		attackRadius:   300,
		attackDamage:   25,
		attackCooldown: 2.0,
		damageTaken:    1.0,
	},
	MonsterBat: {
		maxHealth:      50,
		speed:          100,
		aggroRadius:    3000,
		attackRadius:   40,
		attackDamage:   20,
		attackCooldown: 1.8,
		damageTaken:    1.0,
	},
	MonsterGolem: {
		maxHealth:      150,
		speed:          50,
		aggroRadius:    3000,
		attackRadius:   150,
		attackDamage:   50,
		attackCooldown: 4.0,
		damageTaken:    0.7,
	},
}

const (
	ghostInvisibilityChance   = 0.1 // per second, while idle
	ghostInvisibilityDuration = 2.0
)

type monsterState struct {
	id       int
	kind     MonsterType
	params   monsterParams
	pos      vec2
	vel      vec2
	health   int
	state    string
	targetID int

	cooldown  float64 // seconds until the next attack is allowed
	syncTimer float64 // seconds since the last state broadcast

	// Ghost only. Invisibility is cosmetic: it rides along in state
	// broadcasts but never gates targeting.
	invisible    bool
	invisibleFor float64

	lastAttackerID int

	// set for one update cycle when it enters Attacking
	struck bool
}

func newMonster(id int, kind MonsterType, x, y float64) *monsterState {
	params := monsterParamsByType[kind]
	return &monsterState{
		id:             id,
		kind:           kind,
		params:         params,
		pos:            vec2{X: x, Y: y},
		health:         params.maxHealth,
		state:          monsterIdle,
		lastAttackerID: killerEnvironment,
	}
}

func (m *monsterState) alive() bool { return m.state != monsterDead }

// update runs one simulation step of the shared per-type cycle: acquire the
// nearest eligible player, attack when in range and off cooldown, otherwise
// pursue or idle. Movement is validated against the collision map and the
// position is clamped to the map bounds.
func (m *monsterState) update(dt float64, players []int, positions map[int]vec2, cmap *CollisionMap, rng *rand.Rand) {
	if !m.alive() {
		return
	}

	if m.cooldown > 0 {
		m.cooldown -= dt
	}
	if m.invisible {
		m.invisibleFor -= dt
		if m.invisibleFor <= 0 {
			m.invisible = false
		}
	}
	m.struck = false

	targetID, targetPos, found := m.nearestPlayer(players, positions)
	switch {
	case !found:
		m.state = monsterIdle
		m.vel = vec2{}
		if !m.invisible && m.kind == MonsterGhost && rng.Float64() < ghostInvisibilityChance*dt {
			m.invisible = true
			m.invisibleFor = ghostInvisibilityDuration
		}
	case m.withinAttackRange(targetPos) && m.cooldown <= 0:
		m.state = monsterAttacking
		m.targetID = targetID
		m.cooldown = m.params.attackCooldown
		m.vel = vec2{}
		m.struck = true
	default:
		m.state = monsterPursuing
		m.targetID = targetID
		m.moveTowards(targetPos)
	}

	next := vec2{X: m.pos.X + m.vel.X*dt, Y: m.pos.Y + m.vel.Y*dt}
	if cmap != nil && cmap.WallInArea(next.X, next.Y, monsterRadius) {
		m.vel = vec2{}
	} else {
		m.pos = next
	}
	m.clampToBounds(cmap)

	m.syncTimer += dt
}

// damage applies the type-adjusted amount, records kill credit, and flips the
// monster to Dead exactly once when health reaches zero.
func (m *monsterState) damage(amount, attackerID int) {
	if !m.alive() {
		return
	}
	effective := int(float64(amount) * m.params.damageTaken)
	m.health -= effective
	m.lastAttackerID = attackerID
	if m.health <= 0 {
		m.health = 0
		m.state = monsterDead
		m.vel = vec2{}
	}
}

func (m *monsterState) nearestPlayer(players []int, positions map[int]vec2) (int, vec2, bool) {
	bestID := 0
	var bestPos vec2
	best := m.params.aggroRadius * m.params.aggroRadius
	found := false
	for _, id := range players {
		pos, ok := positions[id]
		if !ok {
			continue
		}
		dx := m.pos.X - pos.X
		dy := m.pos.Y - pos.Y
		if d := dx*dx + dy*dy; d < best {
			best = d
			bestID = id
			bestPos = pos
			found = true
		}
	}
	return bestID, bestPos, found
}

func (m *monsterState) withinAttackRange(target vec2) bool {
	dx := m.pos.X - target.X
	dy := m.pos.Y - target.Y
	return dx*dx+dy*dy <= m.params.attackRadius*m.params.attackRadius
}

func (m *monsterState) moveTowards(target vec2) {
	dx := target.X - m.pos.X
	dy := target.Y - m.pos.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		m.vel = vec2{}
		return
	}
	m.vel = vec2{X: dx / dist * m.params.speed, Y: dy / dist * m.params.speed}
}

func (m *monsterState) clampToBounds(cmap *CollisionMap) {
	width, height := mapWidthPx, mapHeightPx
	if cmap != nil {
		width, height = cmap.PixelWidth(), cmap.PixelHeight()
	}
	m.pos.X = math.Min(math.Max(m.pos.X, monsterRadius), width-monsterRadius)
	m.pos.Y = math.Min(math.Max(m.pos.Y, monsterRadius), height-monsterRadius)
}

func (m *monsterState) shouldSync() bool { return m.syncTimer >= monsterSyncInterval }

func (m *monsterState) markSynced() { m.syncTimer = 0 }

func (m *monsterState) snapshot() monsterUpdateMessage {
	return monsterUpdateMessage{
		Type:      typeMonsterUpdate,
		MonsterID: m.id,
		X:         m.pos.X,
		Y:         m.pos.Y,
		VX:        m.vel.X,
		VY:        m.vel.Y,
		HP:        m.health,
		MaxHP:     m.params.maxHealth,
		State:     m.state,
	}
}
