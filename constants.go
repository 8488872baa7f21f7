package server

import "time"

const (
	ProtocolVersion   = 1
	writeWait         = 10 * time.Second
	tickRate          = 20 // ticks per second (50 ms simulation step)
	defaultListenPort = 5000

	mapWidthPx    = 4000.0
	mapHeightPx   = 4000.0
	defaultTile   = 32
	spawnMargin   = 100.0 // monsters never spawn this close to the map edge
	centerRefuge  = 400.0 // radius around map center kept monster-free
	monsterRadius = 20.0  // clamp margin when pinning monsters inside the map

	playerMaxHealth = 100

	monsterCap           = 50
	monsterSpawnInterval = 0.5 // seconds between spawn deficit checks
	monsterSpawnBatch    = 5
	monsterSpawnTries    = 50
	monsterSyncInterval  = 0.1 // seconds between per-monster state broadcasts
	firstMonsterID       = 1000

	attackValidationRange = 250.0 // player-vs-monster distance check, pixels

	fogActivationInterval = 120.0 // seconds between zone activations
	fogDamagePerSecond    = 5
	fogRegenAmount        = 4
	fogRegenInterval      = 2.0 // seconds between regeneration ticks

	// killerId values carried by playerDeath broadcasts.
	killerEnvironment = -1
	killerVictory     = 0
)

// Players spawn at one of four fixed points near the map center,
// assigned round-robin by join order when the match starts.
var spawnPoints = [4]vec2{
	{X: 1900, Y: 1900},
	{X: 2100, Y: 1900},
	{X: 1900, Y: 2100},
	{X: 2100, Y: 2100},
}

// TickRate reports the simulation cadence in ticks per second.
func TickRate() int { return tickRate }
