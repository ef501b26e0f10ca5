package system

import (
	"time"

	coresys "github.com/l1jgo/simsync/internal/core/system"
	"github.com/l1jgo/simsync/internal/demo"
)

// PhysicsSystem runs one driver invocation per frame. Phase 1 (Simulate).
type PhysicsSystem struct {
	demo *demo.Demo
}

func NewPhysicsSystem(d *demo.Demo) *PhysicsSystem { return &PhysicsSystem{demo: d} }

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhaseSimulate }

func (s *PhysicsSystem) Update(_ time.Duration) { s.demo.Advance() }

// SyncSystem copies body transforms and overlays into the graph. Phase 2 (Sync).
type SyncSystem struct {
	demo *demo.Demo
}

func NewSyncSystem(d *demo.Demo) *SyncSystem { return &SyncSystem{demo: d} }

func (s *SyncSystem) Phase() coresys.Phase { return coresys.PhaseSync }

func (s *SyncSystem) Update(_ time.Duration) { s.demo.SyncVisuals() }
