// Package ws runs one websocket session per connected player: it reads
// client messages, routes them to the hub, and writes direct responses.
// Broadcasts go out through the hub's own fanout.
package ws

import (
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"

	server "fog-and-fang/server"
)

// clientMessage is the union of every inbound payload; Type selects which
// fields are meaningful.
type clientMessage struct {
	Type string `json:"type"`

	// setName
	Name string `json:"name"`

	// createRoom / joinRoom
	RoomName   string `json:"roomName"`
	MaxPlayers int    `json:"maxPlayers"`
	RoomID     int    `json:"roomId"`

	// move
	X float64 `json:"x"`
	Y float64 `json:"y"`

	// skillCast
	SkillID            int     `json:"skillId"`
	TargetX            float64 `json:"targetX"`
	TargetY            float64 `json:"targetY"`
	SkillName          string  `json:"skillName"`
	ElementColor       string  `json:"elementColor"`
	BaseDamage         int     `json:"baseDamage"`
	ProjectileSpeed    float64 `json:"projectileSpeed"`
	ProjectileRadius   float64 `json:"projectileRadius"`
	ProjectileLifetime float64 `json:"projectileLifetime"`

	// projectile
	StartX          float64 `json:"startX"`
	StartY          float64 `json:"startY"`
	TargetMonsterID int     `json:"targetMonsterId"`
	TargetPlayerID  int     `json:"targetPlayerId"`
	SkillType       string  `json:"skillType"`

	// attackMonster / attackPlayer
	MonsterID int     `json:"monsterId"`
	AttackerX float64 `json:"attackerX"`
	AttackerY float64 `json:"attackerY"`
	Damage    int     `json:"damage"`
	TargetID  int     `json:"targetId"`

	// levelUp
	NewLevel     int `json:"newLevel"`
	NewMaxHP     int `json:"newMaxHp"`
	NewCurrentHP int `json:"newCurrentHp"`
}

// Handler routes websocket traffic for one hub.
type Handler struct {
	hub    *server.Hub
	logger *slog.Logger
}

// NewHandler constructs a session handler for the given hub.
func NewHandler(hub *server.Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{hub: hub, logger: logger}
}

// Serve registers a session for the connection and pumps its messages until
// the connection drops, at which point the session leaves its room.
func (h *Handler) Serve(conn *websocket.Conn) {
	session := h.hub.Connect(conn)
	defer h.hub.Disconnect(session)

	writeJSON := func(payload any) bool {
		data, err := json.Marshal(payload)
		if err != nil {
			h.logger.Error("marshal response", "session", session.ID(), "error", err)
			return true
		}
		if err := session.WriteMessage(data); err != nil {
			return false
		}
		return true
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Warn("discarding malformed message", "session", session.ID(), "error", err)
			continue
		}

		switch msg.Type {
		case "setName":
			if !writeJSON(h.hub.SetName(session, msg.Name)) {
				return
			}
		case "createRoom":
			if !writeJSON(h.hub.CreateRoom(session, msg.RoomName, msg.MaxPlayers)) {
				return
			}
		case "roomList":
			if !writeJSON(h.hub.RoomList()) {
				return
			}
		case "joinRoom":
			if !writeJSON(h.hub.JoinRoom(session, msg.RoomID)) {
				return
			}
		case "leaveRoom":
			h.hub.LeaveRoom(session)
		case "startGame":
			h.hub.StartGame(session)
		case "move":
			h.hub.Move(session, msg.X, msg.Y)
		case "skillCast":
			h.hub.SkillCast(session, server.SkillCastInput{
				SkillID:            msg.SkillID,
				TargetX:            msg.TargetX,
				TargetY:            msg.TargetY,
				SkillName:          msg.SkillName,
				ElementColor:       msg.ElementColor,
				BaseDamage:         msg.BaseDamage,
				ProjectileSpeed:    msg.ProjectileSpeed,
				ProjectileRadius:   msg.ProjectileRadius,
				ProjectileLifetime: msg.ProjectileLifetime,
			})
		case "projectile":
			h.hub.Projectile(session, server.ProjectileInput{
				StartX:          msg.StartX,
				StartY:          msg.StartY,
				TargetMonsterID: msg.TargetMonsterID,
				TargetPlayerID:  msg.TargetPlayerID,
				SkillType:       msg.SkillType,
			})
		case "attackMonster":
			h.hub.AttackMonster(session, msg.MonsterID, msg.AttackerX, msg.AttackerY, msg.Damage)
		case "attackPlayer":
			h.hub.AttackPlayer(session, msg.TargetID, msg.Damage, msg.SkillType)
		case "levelUp":
			h.hub.LevelUp(session, msg.NewMaxHP, msg.NewCurrentHP)
		default:
			h.logger.Warn("unknown message type", "session", session.ID(), "type", msg.Type)
		}
	}
}
