package server

// Outbound payloads. Every message carries a "type" discriminator so the
// client can route it without a second pass over the JSON.

// PlayerInfo describes one roster member inside lobby responses and updates.
type PlayerInfo struct {
	PlayerID   int    `json:"playerId"`
	PlayerName string `json:"playerName"`
	IsHost     bool   `json:"isHost"`
}

// RoomInfo is the lobby-facing summary of a room.
type RoomInfo struct {
	RoomID         int    `json:"roomId"`
	RoomName       string `json:"roomName"`
	CurrentPlayers int    `json:"currentPlayers"`
	MaxPlayers     int    `json:"maxPlayers"`
	HostName       string `json:"hostName"`
	IsPlaying      bool   `json:"isPlaying"`
}

type setNameResult struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type createRoomResult struct {
	Type    string       `json:"type"`
	Success bool         `json:"success"`
	RoomID  int          `json:"roomId,omitempty"`
	Message string       `json:"message"`
	Room    *RoomInfo    `json:"roomInfo,omitempty"`
	Players []PlayerInfo `json:"players,omitempty"`
}

type joinRoomResult struct {
	Type    string       `json:"type"`
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Room    *RoomInfo    `json:"roomInfo,omitempty"`
	Players []PlayerInfo `json:"players,omitempty"`
}

type roomListMessage struct {
	Type  string     `json:"type"`
	Rooms []RoomInfo `json:"rooms"`
}

type roomUpdateMessage struct {
	Type      string       `json:"type"`
	Players   []PlayerInfo `json:"players"`
	NewHostID int          `json:"newHostId"`
}

type gameStartPlayer struct {
	PlayerInfo
	SpawnX float64 `json:"spawnX"`
	SpawnY float64 `json:"spawnY"`
}

type gameStartMessage struct {
	Type      string            `json:"type"`
	StartTime int64             `json:"startTime"`
	Players   []gameStartPlayer `json:"players"`
}

type playerMoveMessage struct {
	Type     string  `json:"type"`
	PlayerID int     `json:"playerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type skillCastMessage struct {
	Type               string  `json:"type"`
	PlayerID           int     `json:"playerId"`
	SkillID            int     `json:"skillId"`
	TargetX            float64 `json:"targetX"`
	TargetY            float64 `json:"targetY"`
	SkillName          string  `json:"skillName"`
	ElementColor       string  `json:"elementColor"`
	BaseDamage         int     `json:"baseDamage"`
	ProjectileSpeed    float64 `json:"projectileSpeed"`
	ProjectileRadius   float64 `json:"projectileRadius"`
	ProjectileLifetime float64 `json:"projectileLifetime"`
}

type projectileMessage struct {
	Type            string  `json:"type"`
	PlayerID        int     `json:"playerId"`
	StartX          float64 `json:"startX"`
	StartY          float64 `json:"startY"`
	TargetMonsterID int     `json:"targetMonsterId"`
	TargetPlayerID  int     `json:"targetPlayerId"`
	SkillType       string  `json:"skillType"`
}

type monsterSpawnMessage struct {
	Type        string  `json:"type"`
	MonsterID   int     `json:"monsterId"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	MonsterType string  `json:"monsterType"`
}

type monsterUpdateMessage struct {
	Type      string  `json:"type"`
	MonsterID int     `json:"monsterId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VX        float64 `json:"vx"`
	VY        float64 `json:"vy"`
	HP        int     `json:"hp"`
	MaxHP     int     `json:"maxHp"`
	State     string  `json:"state"`
}

type monsterDamageMessage struct {
	Type         string `json:"type"`
	MonsterID    int    `json:"monsterId"`
	NewHP        int    `json:"newHp"`
	DamageAmount int    `json:"damageAmount"`
	AttackerID   int    `json:"attackerId"`
}

type monsterDeathMessage struct {
	Type      string  `json:"type"`
	MonsterID int     `json:"monsterId"`
	DropX     float64 `json:"dropX"`
	DropY     float64 `json:"dropY"`
	KillerID  int     `json:"killerId"`
}

type monsterAttackMessage struct {
	Type      string `json:"type"`
	MonsterID int    `json:"monsterId"`
	PlayerID  int    `json:"playerId"`
	Damage    int    `json:"damage"`
	NewHP     int    `json:"newHp"`
	MaxHP     int    `json:"maxHp"`
}

type playerAttackMessage struct {
	Type       string `json:"type"`
	AttackerID int    `json:"attackerId"`
	TargetID   int    `json:"targetId"`
	Damage     int    `json:"damage"`
	NewHP      int    `json:"newHp"`
	MaxHP      int    `json:"maxHp"`
	SkillType  string `json:"skillType"`
}

type fogZoneMessage struct {
	Type        string  `json:"type"`
	ZoneName    string  `json:"zoneName"`
	Active      bool    `json:"active"`
	ElapsedTime float64 `json:"elapsedTime"`
}

// fogDamageMessage doubles as the regeneration broadcast: a negative damage
// value means the player recovered health outside the fog.
type fogDamageMessage struct {
	Type     string `json:"type"`
	PlayerID int    `json:"playerId"`
	Damage   int    `json:"damage"`
	NewHP    int    `json:"newHp"`
	ZoneName string `json:"zoneName,omitempty"`
}

type playerDeathMessage struct {
	Type       string `json:"type"`
	PlayerID   int    `json:"playerId"`
	PlayerName string `json:"playerName"`
	KillerID   int    `json:"killerId"`
	KillerName string `json:"killerName"`
	Rank       int    `json:"rank"`
}

const (
	typeSetNameResult    = "setNameResult"
	typeCreateRoomResult = "createRoomResult"
	typeJoinRoomResult   = "joinRoomResult"
	typeRoomList         = "roomList"
	typeRoomUpdate       = "roomUpdate"
	typeGameStart        = "gameStart"
	typePlayerMove       = "playerMove"
	typeSkillCast        = "skillCast"
	typeProjectile       = "projectile"
	typeMonsterSpawn     = "monsterSpawn"
	typeMonsterUpdate    = "monsterUpdate"
	typeMonsterDamage    = "monsterDamage"
	typeMonsterDeath     = "monsterDeath"
	typeMonsterAttack    = "monsterAttack"
	typePlayerAttack     = "playerAttack"
	typeFogZone          = "fogZone"
	typeFogDamage        = "fogDamage"
	typePlayerDeath      = "playerDeath"
)
