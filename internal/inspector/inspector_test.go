package inspector

import (
	"testing"

	"github.com/google/uuid"
)

func TestBroadcastWithNoClientsIsANoop(t *testing.T) {
	s := New(uuid.New())
	s.Broadcast(Snapshot{Line: 10, Statement: "PRINT X"})
}

func TestStopWithNoServerStartedIsANoop(t *testing.T) {
	s := New(uuid.New())
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestNewAssignsDistinctRunIDs(t *testing.T) {
	a := New(uuid.New())
	b := New(uuid.New())
	if a.runID == b.runID {
		t.Fatalf("expected distinct run IDs")
	}
}
