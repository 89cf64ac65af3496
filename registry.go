package main

import (
	"crypto/rand"
	"strings"
	"sync"
)

// ConnID is the opaque per-connection identifier assigned by the gateway.
type ConnID string

// Gateway delivers one outbound message to one connection. The websocket
// gateway implements it; tests substitute a recorder. Send must not block.
type Gateway interface {
	Send(id ConnID, msg any)
}

// Player holds the data we store server-side
type Player struct {
	ConnID ConnID
	Name   string
}

// Registry owns the code→Room mapping plus a connection→room index so that
// disconnects don't scan every room. Registry lock is always taken before
// any Room lock.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	byConn map[ConnID]string

	cfg     *Config
	content *ContentStore
	gw      Gateway
}

func newRegistry(cfg *Config, content *ContentStore, gw Gateway) *Registry {
	return &Registry{
		rooms:   make(map[string]*Room),
		byConn:  make(map[ConnID]string),
		cfg:     cfg,
		content: content,
		gw:      gw,
	}
}

// newRoomCodeLocked generates a crypto-random room code and ensures it
// doesn't collide with existing rooms. Assumes reg.mu is held.
func (reg *Registry) newRoomCodeLocked() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for {
		buf := make([]byte, roomCodeLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, roomCodeLength)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		code := string(out)

		if _, exists := reg.rooms[code]; !exists {
			return code
		}
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// getRoom resolves a room code, or nil if no such room exists.
func (reg *Registry) getRoom(code string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return reg.rooms[normalizeCode(code)]
}

// CreateRoom makes a new waiting room holding only the creator and notifies
// them of the assigned code. Connections already seated in a room, and
// creations without a display name, are silently ignored.
func (reg *Registry) CreateRoom(connID ConnID, name string) (string, *Player) {
	if name == "" || connID == "" {
		return "", nil
	}

	reg.mu.Lock()

	if _, seated := reg.byConn[connID]; seated {
		reg.mu.Unlock()
		return "", nil
	}

	code := reg.newRoomCodeLocked()
	player := Player{
		ConnID: connID,
		Name:   name,
	}

	room := newRoom(code)
	room.players = append(room.players, player)

	reg.rooms[code] = room
	reg.byConn[connID] = code

	reg.mu.Unlock()

	reg.gw.Send(connID, RoomCreatedMessage{
		Type:     "room-created",
		RoomCode: code,
		Players:  []string{name},
	})

	logf(reg.cfg, "ROOMS: Player %q created room %s", name, code)

	return code, &player
}

// JoinRoom seats a player in an existing room and broadcasts the updated
// roster to everyone in it.
func (reg *Registry) JoinRoom(code string, connID ConnID, name string) error {
	if name == "" || connID == "" {
		return nil
	}

	code = normalizeCode(code)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, seated := reg.byConn[connID]; seated {
		return nil
	}

	room, ok := reg.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if len(room.players) >= maxPlayers {
		return ErrRoomFull
	}

	room.players = append(room.players, Player{
		ConnID: connID,
		Name:   name,
	})
	reg.byConn[connID] = code

	reg.broadcastLocked(room, PlayerJoinedMessage{
		Type:     "player-joined",
		RoomCode: code,
		Players:  room.playerNamesLocked(),
	})

	logf(reg.cfg, "ROOMS: Player %q joined room %s", name, code)

	return nil
}

// DeleteRoom removes a room and its connection index entries. No-op if the
// code is already absent.
func (reg *Registry) DeleteRoom(code string) {
	code = normalizeCode(code)

	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.deleteRoomLocked(code)
}

// deleteRoomLocked assumes reg.mu is already held.
func (reg *Registry) deleteRoomLocked(code string) {
	room, ok := reg.rooms[code]
	if !ok {
		return
	}

	room.mu.Lock()
	for _, p := range room.players {
		delete(reg.byConn, p.ConnID)
	}
	room.players = nil
	if room.challengeTimer != nil {
		room.challengeTimer.Stop()
	}
	room.mu.Unlock()

	delete(reg.rooms, code)

	logf(reg.cfg, "ROOMS: Deleted room %s", code)
}

// RemovePlayer unseats whichever room holds this connection, deleting the
// room when it empties and notifying the remaining player otherwise.
// Returns the affected room code, or false if the connection was not seated.
func (reg *Registry) RemovePlayer(connID ConnID) (string, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, ok := reg.byConn[connID]
	if !ok {
		return "", false
	}
	delete(reg.byConn, connID)

	room, ok := reg.rooms[code]
	if !ok {
		return "", false
	}

	room.mu.Lock()

	dst := room.players[:0]
	for _, p := range room.players {
		if p.ConnID == connID {
			continue
		}
		dst = append(dst, p)
	}
	room.players = dst

	// A departed player's answer must not complete a future barrier.
	delete(room.pending, connID)

	if len(room.players) == 0 {
		room.mu.Unlock()
		reg.deleteRoomLocked(code)
		return code, true
	}

	reg.broadcastLocked(room, PlayerLeftMessage{
		Type:     "player-left",
		RoomCode: code,
		Players:  room.playerNamesLocked(),
	})
	room.mu.Unlock()

	logf(reg.cfg, "ROOMS: Removed a player from room %s", code)

	return code, true
}

// RoomCount reports the number of live rooms.
func (reg *Registry) RoomCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return len(reg.rooms)
}

// broadcastLocked sends msg to every player in the room. Assumes the
// caller holds room.mu.
func (reg *Registry) broadcastLocked(room *Room, msg any) {
	for _, p := range room.players {
		reg.gw.Send(p.ConnID, msg)
	}
}
