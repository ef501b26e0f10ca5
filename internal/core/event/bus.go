package event

import "fmt"

// Kind enumerates the events a scene may subscribe to.
type Kind int

const (
	Destroy  Kind = iota // outgoing scene teardown, emitted first in a scene change
	PreStep              // before each physics-driver invocation
	PostStep             // after each physics-driver invocation
	numKinds
)

func (k Kind) String() string {
	switch k {
	case Destroy:
		return "destroy"
	case PreStep:
		return "preStep"
	case PostStep:
		return "postStep"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps the names used by scene scripts to a Kind.
func ParseKind(s string) (Kind, bool) {
	for k := Kind(0); k < numKinds; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Event is delivered to every handler subscribed to its Kind.
type Event struct {
	Kind  Kind
	Scene int // index of the scene that was active when the event fired
}

type Handler func(Event)

// Subscription identifies one registered handler.
type Subscription struct {
	kind Kind
	id   uint64
}

type subscriber struct {
	id uint64
	fn Handler
}

// Registry holds the handlers registered by the active scene, in
// subscription order per Kind. It is owned by the frame loop; there is no locking.
type Registry struct {
	subs   [numKinds][]subscriber
	nextID uint64
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Subscribe registers fn for events of kind k.
func (r *Registry) Subscribe(k Kind, fn Handler) (Subscription, error) {
	if k < 0 || k >= numKinds {
		return Subscription{}, fmt.Errorf("subscribe: unknown event kind %d", int(k))
	}
	if fn == nil {
		return Subscription{}, fmt.Errorf("subscribe %s: nil handler", k)
	}
	r.nextID++
	r.subs[k] = append(r.subs[k], subscriber{id: r.nextID, fn: fn})
	return Subscription{kind: k, id: r.nextID}, nil
}

// Unsubscribe removes the handler behind s. Returns false if it was already gone.
func (r *Registry) Unsubscribe(s Subscription) bool {
	if s.kind < 0 || s.kind >= numKinds {
		return false
	}
	list := r.subs[s.kind]
	for i, sub := range list {
		if sub.id == s.id {
			r.subs[s.kind] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// Emit calls every handler of ev.Kind synchronously. Handlers added or removed
// during dispatch take effect from the next Emit.
func (r *Registry) Emit(ev Event) {
	if ev.Kind < 0 || ev.Kind >= numKinds {
		return
	}
	list := r.subs[ev.Kind]
	if len(list) == 0 {
		return
	}
	snapshot := make([]subscriber, len(list))
	copy(snapshot, list)
	for _, sub := range snapshot {
		sub.fn(ev)
	}
}

// UnsubscribeAll drops every handler of every kind.
func (r *Registry) UnsubscribeAll() {
	for k := range r.subs {
		r.subs[k] = nil
	}
}

// Len returns the number of registered handlers across all kinds.
func (r *Registry) Len() int {
	n := 0
	for k := range r.subs {
		n += len(r.subs[k])
	}
	return n
}
