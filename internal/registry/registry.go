// Package registry tracks the set of live rooms, creating them on first
// reference and dropping them once the last client leaves.
package registry

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/bullpen/server/internal/metrics"
	"github.com/bullpen/server/internal/room"
	"github.com/bullpen/server/internal/wire"
)

// Registry owns every room's lifecycle. It mirrors the teacher's
// Manager: a mutex-guarded map plus Register/Unregister-shaped methods,
// generalized from one map of *Client to one map of *room.Room.
type Registry struct {
	mu       sync.Mutex
	rooms    map[string]*room.Room
	log      *logrus.Logger
	recorder room.Recorder
}

// New constructs an empty Registry.
func New(log *logrus.Logger) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Registry{rooms: make(map[string]*room.Room), log: log}
}

// SetRecorder attaches rec to every room this Registry creates from now
// on, via Room.SetRecorder.
func (reg *Registry) SetRecorder(rec room.Recorder) {
	reg.mu.Lock()
	reg.recorder = rec
	reg.mu.Unlock()
}

// GetOrCreate returns the room for id, creating it with settings if it
// doesn't already exist. settings is ignored for an already-running room.
func (reg *Registry) GetOrCreate(id string, settings wire.GameSettings) *room.Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if r, ok := reg.rooms[id]; ok {
		return r
	}
	r := room.New(id, settings, reg.remove)
	if reg.recorder != nil {
		r.SetRecorder(reg.recorder)
	}
	reg.rooms[id] = r
	metrics.RoomsActive.Set(float64(len(reg.rooms)))
	reg.log.WithField("room_id", id).Info("room created")
	return r
}

// Get returns the room for id, if it exists.
func (reg *Registry) Get(id string) (*room.Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[id]
	return r, ok
}

// remove is the onEmpty callback handed to every room it creates.
func (reg *Registry) remove(id string) {
	reg.mu.Lock()
	r, ok := reg.rooms[id]
	delete(reg.rooms, id)
	metrics.RoomsActive.Set(float64(len(reg.rooms)))
	reg.mu.Unlock()
	if !ok {
		return
	}
	r.Close()
	reg.log.WithField("room_id", id).Info("room emptied, disposed")
}

// Count returns the number of currently live rooms.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// Shutdown disposes every live room, for process shutdown.
func (reg *Registry) Shutdown() {
	reg.mu.Lock()
	rooms := make([]*room.Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.rooms = make(map[string]*room.Room)
	metrics.RoomsActive.Set(0)
	reg.mu.Unlock()

	for _, r := range rooms {
		r.Close()
	}
}
