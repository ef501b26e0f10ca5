package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/l1jgo/simsync/internal/core/system"
	"github.com/l1jgo/simsync/internal/demo"
	"github.com/l1jgo/simsync/internal/net"
)

// SessionSource is the part of net.Server the input phase needs.
type SessionSource interface {
	NewSessions() <-chan *net.Session
	DeadSessions() <-chan uint64
	NotifyDead(sessionID uint64)
}

// InputSystem drains command queues from all bridge sessions and applies
// them to the demo. Phase 0 (Input).
type InputSystem struct {
	source     SessionSource
	store      *net.SessionStore
	demo       *demo.Demo
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(source SessionSource, store *net.SessionStore, d *demo.Demo, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{
		source:     source,
		store:      store,
		demo:       d,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Accept new sessions
	for {
		select {
		case sess := <-s.source.NewSessions():
			s.store.Add(sess)
		default:
			goto doneNew
		}
	}
doneNew:

	// Process dead sessions
	for {
		select {
		case id := <-s.source.DeadSessions():
			s.store.Remove(id)
		default:
			goto doneDead
		}
	}
doneDead:

	// Drain commands from each session (up to maxPerTick per session)
	for id, sess := range s.store.Raw() {
		if sess.IsClosed() {
			s.source.NotifyDead(id)
			s.store.Remove(id)
			continue
		}

		for i := 0; i < s.maxPerTick; i++ {
			select {
			case cmd := <-sess.InQueue:
				s.apply(sess, cmd)
			default:
				goto doneSession
			}
		}
	doneSession:
		sess.FlushOutput()
	}
}

func (s *InputSystem) apply(sess *net.Session, cmd net.Command) {
	scene := s.demo.Current()
	if err := Apply(s.demo, cmd); err != nil {
		s.log.Debug("command failed",
			zap.Uint64("session", sess.ID),
			zap.String("op", cmd.Op),
			zap.Error(err),
		)
		sess.Send(net.EncodeReply(cmd.Op, err))
		return
	}
	if cmd.Op == net.OpScene || s.demo.Current() != scene {
		// new scene, new instanced buffers: everyone needs full matrices
		s.store.ForEach(func(o *net.Session) { o.Keyframe = true })
	}
}
