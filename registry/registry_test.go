package registry

import (
	"path/filepath"
	"testing"
)

func TestTurnoutLifecycle(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "state.json"))
	r.CreateTurnout(5, 22, 2)
	got, ok := r.GetTurnout(5)
	if !ok || got.Address != 22 || got.Subaddress != 2 {
		t.Fatalf("GetTurnout(5) = %+v,%v", got, ok)
	}
	r.RemoveTurnout(5)
	if _, ok := r.GetTurnout(5); ok {
		t.Fatal("turnout 5 still present after RemoveTurnout")
	}
}

func TestStoreAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	r := New(path)
	r.CreateTurnout(1, 10, 0)
	r.CreateSensor(2, 7, true)
	r.CreateOutput(3, 9, false)
	if err := r.Store(); err != nil {
		t.Fatalf("Store: %v", err)
	}

	r2 := New(path)
	if err := r2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := r2.GetTurnout(1); !ok {
		t.Error("turnout 1 missing after reload")
	}
	if _, ok := r2.GetSensor(2); !ok {
		t.Error("sensor 2 missing after reload")
	}
	if _, ok := r2.GetOutput(3); !ok {
		t.Error("output 3 missing after reload")
	}
}

func TestClearWipesTurnoutsAndSensorsOnly(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "state.json"))
	r.CreateTurnout(1, 10, 0)
	r.CreateSensor(2, 7, true)
	r.CreateOutput(3, 9, false)
	r.Clear()

	nt, ns, no := r.Counts()
	if nt != 0 || ns != 0 {
		t.Fatalf("Clear left turnouts/sensors: nt=%d ns=%d", nt, ns)
	}
	if no != 1 {
		t.Fatalf("Clear removed outputs: no=%d, want 1", no)
	}
}

func TestCountsForStoreResponse(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "state.json"))
	r.CreateTurnout(1, 10, 0)
	r.CreateTurnout(2, 11, 0)
	r.CreateSensor(1, 3, false)
	nt, ns, no := r.Counts()
	if nt != 2 || ns != 1 || no != 0 {
		t.Fatalf("Counts() = %d,%d,%d, want 2,1,0", nt, ns, no)
	}
}

func TestLoadMissingFileIsNotError(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "missing.json"))
	if err := r.Load(); err != nil {
		t.Fatalf("Load(missing) = %v, want nil", err)
	}
}
