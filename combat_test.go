package server

import "testing"

func TestMonsterAttackRangeValidation(t *testing.T) {
	_, room, sessions := startMatch(t, 1)
	attacker := sessions[0]
	m := newMonster(firstMonsterID, MonsterBat, 2000, 2000)
	room.monsters.monsters = append(room.monsters.monsters, m)

	// Reported position outside the validation range: dropped silently.
	room.resolveMonsterAttack(attacker, m.id, 2000+attackValidationRange+1, 2000, 30)
	if m.health != m.params.maxHealth {
		t.Fatalf("out-of-range attack landed: hp=%d", m.health)
	}
	if queued := room.drainOutbound(); len(queued) != 0 {
		t.Fatalf("out-of-range attack produced %d broadcasts, want none", len(queued))
	}

	// Exactly at the boundary counts as in range.
	room.resolveMonsterAttack(attacker, m.id, 2000+attackValidationRange, 2000, 30)
	if want := m.params.maxHealth - 30; m.health != want {
		t.Fatalf("in-range attack: hp=%d, want %d", m.health, want)
	}
	broadcasts := drainByType(room, typeMonsterDamage)
	if len(broadcasts) != 1 {
		t.Fatalf("got %d monsterDamage broadcasts, want 1", len(broadcasts))
	}
	msg := broadcasts[0].(monsterDamageMessage)
	if msg.MonsterID != m.id || msg.NewHP != m.health || msg.AttackerID != attacker.id {
		t.Fatalf("unexpected damage payload: %+v", msg)
	}
}

func TestMonsterAttackUnknownTargetIgnored(t *testing.T) {
	_, room, sessions := startMatch(t, 1)

	room.resolveMonsterAttack(sessions[0], firstMonsterID+99, 2000, 2000, 30)
	if queued := room.drainOutbound(); len(queued) != 0 {
		t.Fatalf("attack on a missing monster produced %d broadcasts", len(queued))
	}
}

func TestPlayerAttackSkipsRangeCheck(t *testing.T) {
	_, room, sessions := startMatch(t, 2)
	attacker, target := sessions[0], sessions[1]

	// Attacker and target can be anywhere on the map.
	room.positions[attacker.id] = vec2{X: 100, Y: 100}
	room.positions[target.id] = vec2{X: 3900, Y: 3900}

	room.resolvePlayerAttack(attacker, target.id, 30, "fireball")
	if want := playerMaxHealth - 30; room.health(target.id) != want {
		t.Fatalf("target health %d, want %d", room.health(target.id), want)
	}
	broadcasts := drainByType(room, typePlayerAttack)
	if len(broadcasts) != 1 {
		t.Fatalf("got %d playerAttack broadcasts, want 1", len(broadcasts))
	}
	msg := broadcasts[0].(playerAttackMessage)
	if msg.AttackerID != attacker.id || msg.TargetID != target.id || msg.SkillType != "fireball" {
		t.Fatalf("unexpected attack payload: %+v", msg)
	}
}

func TestPlayerAttackDeadTargetIgnored(t *testing.T) {
	_, room, sessions := startMatch(t, 2)
	attacker, target := sessions[0], sessions[1]

	room.damagePlayer(target.id, playerMaxHealth)
	room.checkDeaths()
	room.drainOutbound()

	room.resolvePlayerAttack(attacker, target.id, 30, "fireball")
	if queued := room.drainOutbound(); len(queued) != 0 {
		t.Fatalf("attack on a dead player produced %d broadcasts", len(queued))
	}
}

func TestDeathRanksCountDownToWinner(t *testing.T) {
	_, room, sessions := startMatch(t, 4)

	wantRanks := []int{4, 3, 2}
	for i, victim := range sessions[:3] {
		room.damagePlayer(victim.id, playerMaxHealth)
		room.checkDeaths()

		deaths := drainByType(room, typePlayerDeath)
		if i < 2 {
			if len(deaths) != 1 {
				t.Fatalf("death %d: got %d broadcasts, want 1", i, len(deaths))
			}
		} else {
			// Third death also ends the match with the winner broadcast.
			if len(deaths) != 2 {
				t.Fatalf("final death: got %d broadcasts, want death plus win", len(deaths))
			}
		}
		death := deaths[0].(playerDeathMessage)
		if death.PlayerID != victim.id || death.Rank != wantRanks[i] {
			t.Fatalf("death %d: payload %+v, want rank %d", i, death, wantRanks[i])
		}
		if death.KillerID != killerEnvironment {
			t.Fatalf("death %d: killer %d, want %d", i, death.KillerID, killerEnvironment)
		}

		if i == 2 {
			win := deaths[1].(playerDeathMessage)
			if win.PlayerID != sessions[3].id || win.Rank != 1 || win.KillerID != killerVictory {
				t.Fatalf("unexpected win payload: %+v", win)
			}
		}
	}

	if room.state != RoomEnded {
		t.Fatalf("room state %v, want ended", room.state)
	}
	if room.winner != sessions[3].id {
		t.Fatalf("winner %d, want %d", room.winner, sessions[3].id)
	}
}

func TestSimultaneousDeathsShareNoWinner(t *testing.T) {
	_, room, sessions := startMatch(t, 2)

	for _, s := range sessions {
		room.damagePlayer(s.id, playerMaxHealth)
	}
	room.checkDeaths()

	deaths := drainByType(room, typePlayerDeath)
	if len(deaths) != 2 {
		t.Fatalf("got %d death broadcasts, want 2", len(deaths))
	}
	for _, payload := range deaths {
		if msg := payload.(playerDeathMessage); msg.KillerID == killerVictory {
			t.Fatalf("a dead player was declared winner: %+v", msg)
		}
	}
	if room.state != RoomEnded {
		t.Fatalf("room state %v, want ended", room.state)
	}
	if room.winner != 0 {
		t.Fatalf("winner recorded with no survivors: %d", room.winner)
	}
}

func TestSoloDeathEndsWithoutWin(t *testing.T) {
	_, room, sessions := startMatch(t, 1)

	room.damagePlayer(sessions[0].id, playerMaxHealth)
	room.checkDeaths()

	deaths := drainByType(room, typePlayerDeath)
	if len(deaths) != 1 {
		t.Fatalf("got %d death broadcasts, want 1", len(deaths))
	}
	if msg := deaths[0].(playerDeathMessage); msg.KillerID != killerEnvironment {
		t.Fatalf("solo death should not award a win: %+v", msg)
	}
	if room.state != RoomEnded {
		t.Fatalf("room state %v, want ended", room.state)
	}
}

func TestCheckDeathsIdempotentAfterEnd(t *testing.T) {
	_, room, sessions := startMatch(t, 2)

	room.damagePlayer(sessions[0].id, playerMaxHealth)
	room.checkDeaths()
	room.drainOutbound()

	room.checkDeaths()
	if queued := room.drainOutbound(); len(queued) != 0 {
		t.Fatalf("ended room produced %d broadcasts", len(queued))
	}
}

func TestLevelUpResyncsHealth(t *testing.T) {
	h, room, sessions := startMatch(t, 1)
	s := sessions[0]

	h.LevelUp(s, 130, 130)
	if room.health(s.id) != 130 || room.maxHealth(s.id) != 130 {
		t.Fatalf("health %d/%d after level up, want 130/130", room.health(s.id), room.maxHealth(s.id))
	}

	// Reported health above the new max is clamped.
	h.LevelUp(s, 130, 999)
	if room.health(s.id) != 130 {
		t.Fatalf("health %d, want clamp at 130", room.health(s.id))
	}
}

func TestTickIsolatesRoomPanics(t *testing.T) {
	h := newTestHub(t)
	sessions := connectN(h, 2)

	broken := h.CreateRoom(sessions[0], "broken", 4)
	healthy := h.CreateRoom(sessions[1], "healthy", 4)
	h.StartGame(sessions[0])
	h.StartGame(sessions[1])

	brokenRoom, _ := h.roomByID(broken.RoomID)
	healthyRoom, _ := h.roomByID(healthy.RoomID)
	brokenRoom.fog = nil // next tick panics inside this room

	dt := 1.0 / float64(tickRate)
	h.tick(dt)
	h.tick(dt)

	if healthyRoom.elapsed < 2*dt-1e-9 {
		t.Fatalf("healthy room stopped ticking at %f", healthyRoom.elapsed)
	}
	if brokenRoom.state != RoomPlaying {
		t.Fatalf("panic mutated the broken room's state: %v", brokenRoom.state)
	}
}

func TestNegativeDamageCannotInflateHealth(t *testing.T) {
	_, room, sessions := startMatch(t, 2)
	attacker, target := sessions[0], sessions[1]

	room.damagePlayer(target.id, 10)
	room.resolvePlayerAttack(attacker, target.id, -1000, "drain")

	if room.health(target.id) != playerMaxHealth {
		t.Fatalf("health %d, want clamp at %d", room.health(target.id), playerMaxHealth)
	}
	broadcasts := drainByType(room, typePlayerAttack)
	if len(broadcasts) != 1 {
		t.Fatalf("got %d playerAttack broadcasts, want 1", len(broadcasts))
	}
	if msg := broadcasts[0].(playerAttackMessage); msg.NewHP != playerMaxHealth {
		t.Fatalf("broadcast hp %d, want %d", msg.NewHP, playerMaxHealth)
	}
}

func TestPlayerKillAttribution(t *testing.T) {
	_, room, sessions := startMatch(t, 3)
	attacker, victim := sessions[0], sessions[1]

	room.resolvePlayerAttack(attacker, victim.id, playerMaxHealth, "fireball")
	room.checkDeaths()

	deaths := drainByType(room, typePlayerDeath)
	if len(deaths) != 1 {
		t.Fatalf("got %d death broadcasts, want 1", len(deaths))
	}
	msg := deaths[0].(playerDeathMessage)
	if msg.KillerID != attacker.id {
		t.Fatalf("killer id %d, want %d", msg.KillerID, attacker.id)
	}
	if msg.KillerName != attacker.name {
		t.Fatalf("killer name %q, want %q", msg.KillerName, attacker.name)
	}
}

func TestMonsterKillOverridesPlayerAttribution(t *testing.T) {
	_, room, sessions := startMatch(t, 3)
	attacker, victim := sessions[0], sessions[1]

	// A player softens the victim, but a monster lands the killing blow.
	room.resolvePlayerAttack(attacker, victim.id, 50, "fireball")
	room.damagePlayer(victim.id, 30)
	room.positions[victim.id] = vec2{X: 500, Y: 500}
	m := newMonster(firstMonsterID, MonsterBat, 510, 500)
	room.monsters.monsters = append(room.monsters.monsters, m)
	room.monsters.spawnTimer = -1e9

	players := []int{victim.id}
	positions := map[int]vec2{victim.id: room.positions[victim.id]}
	room.monsters.update(0.05, room, players, positions)
	room.checkDeaths()

	deaths := drainByType(room, typePlayerDeath)
	if len(deaths) != 1 {
		t.Fatalf("got %d death broadcasts, want 1", len(deaths))
	}
	msg := deaths[0].(playerDeathMessage)
	if msg.KillerID != killerEnvironment || msg.KillerName != "" {
		t.Fatalf("monster kill attributed to %d %q, want environment", msg.KillerID, msg.KillerName)
	}
}
