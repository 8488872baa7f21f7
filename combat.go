package server

import "math"

// resolveMonsterAttack validates and applies player-vs-monster damage. The
// reported attacker position must sit within the validation range of the
// monster's authoritative position; out-of-range requests are dropped with
// no response so clients can't probe for server-side positions.
func (r *Room) resolveMonsterAttack(attacker *Session, monsterID int, attackerX, attackerY float64, damage int) {
	m, ok := r.monsters.byID(monsterID)
	if !ok || !m.alive() {
		return
	}

	if math.Hypot(attackerX-m.pos.X, attackerY-m.pos.Y) > attackValidationRange {
		return
	}

	if _, ok := r.monsters.damage(monsterID, damage, attacker.id); !ok {
		return
	}
	r.queue(monsterDamageMessage{
		Type:         typeMonsterDamage,
		MonsterID:    m.id,
		NewHP:        m.health,
		DamageAmount: damage,
		AttackerID:   attacker.id,
	})
}

// resolvePlayerAttack applies player-vs-player damage to the authoritative
// health store and broadcasts the result to the whole room. This path has no
// range validation; projectile travel is resolved client-side.
func (r *Room) resolvePlayerAttack(attacker *Session, targetID, damage int, skillType string) {
	target, ok := r.sessionByID(targetID)
	if !ok || r.isDead(target.id) {
		return
	}
	newHP, ok := r.damagePlayer(target.id, damage)
	if !ok {
		return
	}
	r.noteAttacker(target.id, attacker.id)
	r.queue(playerAttackMessage{
		Type:       typePlayerAttack,
		AttackerID: attacker.id,
		TargetID:   target.id,
		Damage:     damage,
		NewHP:      newHP,
		MaxHP:      r.maxHealth(target.id),
		SkillType:  skillType,
	})
}

// checkDeaths runs once per tick after monsters and fog have applied their
// damage. Every roster member whose health reached zero this tick is marked
// dead and ranked by survivor count; once exactly one player of a roster
// larger than one remains, that player wins and the room ends.
func (r *Room) checkDeaths() {
	if r.state != RoomPlaying {
		return
	}

	for _, member := range r.roster {
		if r.dead[member.id] {
			continue
		}
		if r.health(member.id) > 0 {
			continue
		}
		r.dead[member.id] = true
		rank := r.survivorCount() + 1

		killerID := killerEnvironment
		if state, ok := r.combat[member.id]; ok {
			killerID = state.lastAttackerID
		}
		killerName := ""
		if killerID > 0 {
			if killer, ok := r.sessionByID(killerID); ok {
				killerName = killer.name
			}
		}
		r.queue(playerDeathMessage{
			Type:       typePlayerDeath,
			PlayerID:   member.id,
			PlayerName: member.name,
			KillerID:   killerID,
			KillerName: killerName,
			Rank:       rank,
		})
	}

	survivors := r.survivorCount()
	switch {
	case survivors == 1 && len(r.roster) > 1:
		winner := r.lastSurvivor()
		r.state = RoomEnded
		r.winner = winner.id
		r.queue(playerDeathMessage{
			Type:       typePlayerDeath,
			PlayerID:   winner.id,
			PlayerName: winner.name,
			KillerID:   killerVictory,
			Rank:       1,
		})
	case survivors == 0:
		r.state = RoomEnded
	}
}

func (r *Room) survivorCount() int {
	count := 0
	for _, member := range r.roster {
		if !r.dead[member.id] {
			count++
		}
	}
	return count
}

func (r *Room) lastSurvivor() *Session {
	for _, member := range r.roster {
		if !r.dead[member.id] {
			return member
		}
	}
	return nil
}
