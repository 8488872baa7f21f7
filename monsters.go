package server

import (
	"math"
	"math/rand"
)

// monsterManager owns one room's monster population: throttled spawning up to
// the cap, per-tick AI updates, monster-to-player strikes, the 100 ms state
// sync cadence, and death removal.
type monsterManager struct {
	monsters   []*monsterState
	nextID     int
	spawnTimer float64
	cap        int
	batch      int
	cmap       *CollisionMap
	rng        *rand.Rand
}

func newMonsterManager(cmap *CollisionMap, rng *rand.Rand, cap, batch int) *monsterManager {
	if cap <= 0 {
		cap = monsterCap
	}
	if batch <= 0 {
		batch = monsterSpawnBatch
	}
	return &monsterManager{
		nextID: firstMonsterID,
		cap:    cap,
		batch:  batch,
		cmap:   cmap,
		rng:    rng,
	}
}

// update advances every monster by dt and services the spawn schedule.
// players holds the non-dead roster ids; positions their last known spots.
func (mm *monsterManager) update(dt float64, room *Room, players []int, positions map[int]vec2) {
	mm.spawnTimer += dt
	if mm.spawnTimer >= monsterSpawnInterval {
		mm.spawnTimer = 0
		mm.spawnDeficit(room, players)
	}

	kept := mm.monsters[:0]
	for _, m := range mm.monsters {
		m.update(dt, players, positions, mm.cmap, mm.rng)

		if m.struck && m.alive() {
			mm.strike(room, m)
		}

		if m.shouldSync() {
			room.queue(m.snapshot())
			m.markSynced()
		}

		if !m.alive() {
			room.queue(monsterDeathMessage{
				Type:      typeMonsterDeath,
				MonsterID: m.id,
				DropX:     m.pos.X,
				DropY:     m.pos.Y,
				KillerID:  m.lastAttackerID,
			})
			continue
		}
		kept = append(kept, m)
	}
	mm.monsters = kept
}

// strike applies one monster attack against its current target.
func (mm *monsterManager) strike(room *Room, m *monsterState) {
	target := m.targetID
	if room.isDead(target) {
		return
	}
	newHP, ok := room.damagePlayer(target, m.params.attackDamage)
	if !ok {
		return
	}
	room.noteAttacker(target, killerEnvironment)
	room.queue(monsterAttackMessage{
		Type:      typeMonsterAttack,
		MonsterID: m.id,
		PlayerID:  target,
		Damage:    m.params.attackDamage,
		NewHP:     newHP,
		MaxHP:     room.maxHealth(target),
	})
}

// spawnDeficit tops the population back up toward the cap, at most batch
// monsters per check so the count converges instead of jumping.
func (mm *monsterManager) spawnDeficit(room *Room, players []int) {
	if len(players) == 0 {
		return
	}
	deficit := mm.cap - len(mm.monsters)
	if deficit <= 0 {
		return
	}
	count := deficit
	if count > mm.batch {
		count = mm.batch
	}
	for i := 0; i < count; i++ {
		pos, ok := mm.rollSpawnPosition()
		if !ok {
			continue
		}
		kind := monsterTypes[mm.rng.Intn(len(monsterTypes))]
		m := newMonster(mm.nextID, kind, pos.X, pos.Y)
		mm.nextID++
		mm.monsters = append(mm.monsters, m)
		room.queue(monsterSpawnMessage{
			Type:        typeMonsterSpawn,
			MonsterID:   m.id,
			X:           m.pos.X,
			Y:           m.pos.Y,
			MonsterType: string(m.kind),
		})
	}
}

// rollSpawnPosition samples uniform positions over the map until one clears
// the center refuge and local walls, giving up after a bounded number of
// tries rather than stalling the tick.
func (mm *monsterManager) rollSpawnPosition() (vec2, bool) {
	width, height := mapWidthPx, mapHeightPx
	if mm.cmap != nil {
		width, height = mm.cmap.PixelWidth(), mm.cmap.PixelHeight()
	}
	centerX, centerY := width/2, height/2

	for i := 0; i < monsterSpawnTries; i++ {
		x := spawnMargin + mm.rng.Float64()*(width-2*spawnMargin)
		y := spawnMargin + mm.rng.Float64()*(height-2*spawnMargin)

		if math.Hypot(x-centerX, y-centerY) < centerRefuge {
			continue
		}
		if mm.cmap != nil && mm.cmap.WallInArea(x, y, defaultTile) {
			continue
		}
		return vec2{X: x, Y: y}, true
	}
	return vec2{}, false
}

// damage routes player-dealt damage to a monster by id. It returns the
// monster and true when the id resolved to a living monster.
func (mm *monsterManager) damage(monsterID, amount, attackerID int) (*monsterState, bool) {
	m, ok := mm.byID(monsterID)
	if !ok || !m.alive() {
		return nil, false
	}
	m.damage(amount, attackerID)
	return m, true
}

func (mm *monsterManager) byID(id int) (*monsterState, bool) {
	for _, m := range mm.monsters {
		if m.id == id {
			return m, true
		}
	}
	return nil, false
}

func (mm *monsterManager) count() int { return len(mm.monsters) }
