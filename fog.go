package server

import (
	"math/rand"
	"sort"
)

// fogState drives one room's hazard escalation: a shuffled activation order
// with the designated final zone pinned last, zone activation every interval
// seconds of match time, damage inside active zones once per simulated
// second, and regeneration outside them every other second.
type fogState struct {
	order    []string
	active   map[string]bool
	nextIdx  int
	interval float64
	damage   int
	regen    int

	elapsed   float64
	damageAcc float64
	regenAcc  float64

	cmap *CollisionMap
}

func newFogState(cmap *CollisionMap, rng *rand.Rand, interval float64, damage, regen int) *fogState {
	if interval <= 0 {
		interval = fogActivationInterval
	}
	if damage <= 0 {
		damage = fogDamagePerSecond
	}
	if regen <= 0 {
		regen = fogRegenAmount
	}
	return &fogState{
		order:    buildActivationOrder(cmap, rng),
		active:   make(map[string]bool),
		interval: interval,
		damage:   damage,
		regen:    regen,
		cmap:     cmap,
	}
}

// buildActivationOrder shuffles every zone except the final one, which is
// always appended last regardless of seed.
func buildActivationOrder(cmap *CollisionMap, rng *rand.Rand) []string {
	if cmap == nil {
		return nil
	}
	final := cmap.FinalZone()
	others := make([]string, 0, len(cmap.ZoneNames()))
	for _, name := range cmap.ZoneNames() {
		if name != final {
			others = append(others, name)
		}
	}
	sort.Strings(others)
	rng.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})
	if final != "" {
		others = append(others, final)
	}
	return others
}

// update advances the schedule by dt seconds of match time and applies
// damage and regeneration to the room's authoritative health store.
func (f *fogState) update(dt float64, room *Room, players []int, positions map[int]vec2) {
	f.elapsed += dt

	for f.nextIdx < len(f.order) && f.elapsed >= float64(f.nextIdx+1)*f.interval {
		name := f.order[f.nextIdx]
		f.active[name] = true
		f.nextIdx++
		room.queue(fogZoneMessage{
			Type:        typeFogZone,
			ZoneName:    name,
			Active:      true,
			ElapsedTime: f.elapsed,
		})
	}

	if len(f.active) > 0 {
		f.damageAcc += dt
		for f.damageAcc >= 1 {
			f.damageAcc -= 1
			f.applyDamage(room, players, positions)
		}
	}

	f.regenAcc += dt
	for f.regenAcc >= fogRegenInterval {
		f.regenAcc -= fogRegenInterval
		f.applyRegen(room, players, positions)
	}
}

func (f *fogState) applyDamage(room *Room, players []int, positions map[int]vec2) {
	for _, id := range players {
		pos, ok := positions[id]
		if !ok {
			continue
		}
		zone := f.zoneAt(pos)
		if zone == "" || !f.active[zone] {
			continue
		}
		newHP, ok := room.damagePlayer(id, f.damage)
		if !ok {
			continue
		}
		room.noteAttacker(id, killerEnvironment)
		room.queue(fogDamageMessage{
			Type:     typeFogDamage,
			PlayerID: id,
			Damage:   f.damage,
			NewHP:    newHP,
			ZoneName: zone,
		})
	}
}

func (f *fogState) applyRegen(room *Room, players []int, positions map[int]vec2) {
	for _, id := range players {
		pos, ok := positions[id]
		if !ok {
			continue
		}
		if zone := f.zoneAt(pos); zone != "" && f.active[zone] {
			continue
		}
		newHP, healed := room.healPlayer(id, f.regen)
		if !healed {
			continue
		}
		room.queue(fogDamageMessage{
			Type:     typeFogDamage,
			PlayerID: id,
			Damage:   -f.regen,
			NewHP:    newHP,
		})
	}
}

func (f *fogState) zoneAt(pos vec2) string {
	if f.cmap == nil {
		return ""
	}
	return f.cmap.ZoneAt(pos.X, pos.Y)
}

// activeZones returns the currently active zone names, for diagnostics.
func (f *fogState) activeZones() []string {
	names := make([]string, 0, len(f.active))
	for name := range f.active {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
