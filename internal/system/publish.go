package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/l1jgo/simsync/internal/core/system"
	"github.com/l1jgo/simsync/internal/demo"
	"github.com/l1jgo/simsync/internal/net"
	"github.com/l1jgo/simsync/internal/render"
)

// PublishSystem sends a graph snapshot to every bridge session every N
// frames. Instance matrices go out when a buffer changed since the last
// publish, or to sessions that have not had a full snapshot yet.
// Phase 4 (Publish).
type PublishSystem struct {
	demo  *demo.Demo
	store *net.SessionStore
	every int
	frame uint64
	log   *zap.Logger
}

func NewPublishSystem(d *demo.Demo, store *net.SessionStore, every int, log *zap.Logger) *PublishSystem {
	if every < 1 {
		every = 1
	}
	return &PublishSystem{demo: d, store: store, every: every, log: log}
}

func (s *PublishSystem) Phase() coresys.Phase { return coresys.PhasePublish }

func (s *PublishSystem) Update(_ time.Duration) {
	s.frame++
	if s.frame%uint64(s.every) != 0 || s.store.Len() == 0 {
		return
	}

	var delta, key []byte
	s.store.ForEach(func(sess *net.Session) {
		if sess.IsClosed() {
			return
		}
		var err error
		if sess.Keyframe {
			if key == nil {
				key, err = net.EncodeSnapshot(s.Snapshot(true))
			}
			if err == nil {
				sess.Send(key)
				sess.Keyframe = false
			}
		} else {
			if delta == nil {
				delta, err = net.EncodeSnapshot(s.Snapshot(false))
			}
			if err == nil {
				sess.Send(delta)
			}
		}
		if err != nil {
			s.log.Error("snapshot encode failed", zap.Error(err))
			return
		}
		sess.FlushOutput()
	})

	s.demo.Graph().Each(func(n *render.Node) {
		if n.Kind == render.KindInstanced {
			n.ConsumeInstances()
		}
	})
}

// Snapshot captures the graph and settings. full includes every instance
// buffer; otherwise only dirty ones.
func (s *PublishSystem) Snapshot(full bool) *net.Snapshot {
	g := s.demo.Graph()
	snap := &net.Snapshot{
		Frame:    s.frame,
		Scene:    s.demo.Current(),
		Titles:   s.demo.Titles(),
		Settings: s.demo.Settings(),
		Lighting: g.Lighting,
		Nodes:    make([]net.NodeState, 0, g.Len()),
	}
	if err := s.demo.Broken(); err != nil {
		snap.Broken = err.Error()
	}
	g.Each(func(n *render.Node) {
		snap.Nodes = append(snap.Nodes, net.EncodeNode(n, full || n.InstancesDirty()))
	})
	return snap
}
