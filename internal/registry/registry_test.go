package registry

import (
	"testing"

	"github.com/bullpen/server/internal/wire"
)

type fakeTransport struct{}

func (fakeTransport) Send(data []byte) error { return nil }
func (fakeTransport) Close() error           { return nil }

func TestGetOrCreateReturnsSameRoomOnSecondCall(t *testing.T) {
	reg := New(nil)
	a := reg.GetOrCreate("room-1", wire.DefaultGameSettings())
	b := reg.GetOrCreate("room-1", wire.DefaultGameSettings())
	if a != b {
		t.Fatal("expected the same room instance on a second GetOrCreate")
	}
	if reg.Count() != 1 {
		t.Fatalf("expected 1 live room, got %d", reg.Count())
	}
}

func TestRoomStaysRegisteredDuringDisconnectGrace(t *testing.T) {
	reg := New(nil)
	r := reg.GetOrCreate("room-2", wire.DefaultGameSettings())
	r.AddClient("p1", "alice", fakeTransport{})
	r.RemoveClient("p1")

	// A disconnect alone (within its grace period) must not drop the
	// room from the registry; only the onEmpty callback does that.
	r2, ok := reg.Get("room-2")
	if !ok || r2 != r {
		t.Fatal("expected room-2 to still be registered during its grace period")
	}
}

func TestOnEmptyCallbackRemovesRoomFromRegistry(t *testing.T) {
	reg := New(nil)
	reg.GetOrCreate("room-5", wire.DefaultGameSettings())

	reg.remove("room-5")

	if _, ok := reg.Get("room-5"); ok {
		t.Fatal("expected room-5 to be gone once its onEmpty callback fired")
	}
}

func TestShutdownClearsAllRooms(t *testing.T) {
	reg := New(nil)
	reg.GetOrCreate("room-3", wire.DefaultGameSettings())
	reg.GetOrCreate("room-4", wire.DefaultGameSettings())

	reg.Shutdown()

	if reg.Count() != 0 {
		t.Fatalf("expected 0 rooms after shutdown, got %d", reg.Count())
	}
}
