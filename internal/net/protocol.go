// Package net is the websocket bridge between the frame loop and remote
// viewers or control panels. Clients receive JSON snapshots of the render
// graph and send JSON commands that the frame loop applies during Input.
package net

import (
	"encoding/json"
	"fmt"

	"github.com/l1jgo/simsync/internal/render"
	"github.com/l1jgo/simsync/internal/settings"
)

// Command ops.
const (
	OpSet        = "set"         // Key, Value
	OpScene      = "scene"       // Index
	OpRestart    = "restart"     //
	OpStep       = "step"        //
	OpPause      = "pause"       // Value: optional bool; toggles when absent
	OpRenderMode = "render_mode" // Value: mode name, or "next"
)

// Command is one control message from a client.
type Command struct {
	Op    string `json:"op"`
	Key   string `json:"key,omitempty"`
	Value any    `json:"value,omitempty"`
	Index int    `json:"index,omitempty"`
}

// NodeState is one visible graph node as sent to clients.
type NodeState struct {
	Kind       string        `json:"kind"`
	Name       string        `json:"name"`
	Material   string        `json:"material"`
	Color      uint32        `json:"color"`
	Wireframe  bool          `json:"wireframe,omitempty"`
	Position   [3]float64    `json:"position"`
	Quaternion [4]float64    `json:"quaternion"` // x, y, z, w
	Scale      [3]float64    `json:"scale"`
	Instances  [][16]float64 `json:"instances,omitempty"`
}

// Snapshot is the full state published to clients.
type Snapshot struct {
	Type     string            `json:"type"`
	Frame    uint64            `json:"frame"`
	Scene    int               `json:"scene"`
	Titles   []string          `json:"titles,omitempty"`
	Broken   string            `json:"broken,omitempty"`
	Settings settings.Settings `json:"settings"`
	Lighting render.Lighting   `json:"lighting"`
	Nodes    []NodeState       `json:"nodes"`
}

// Reply reports the outcome of a failed command to the client that sent it.
type Reply struct {
	Type  string `json:"type"`
	Op    string `json:"op"`
	Error string `json:"error"`
}

// EncodeNode converts n. Instance matrices are included when withInstances
// is set and n is instanced.
func EncodeNode(n *render.Node, withInstances bool) NodeState {
	q := render.Orientation(n.Quaternion)
	ns := NodeState{
		Kind:       n.Kind.String(),
		Name:       n.Name,
		Material:   n.Material.Name,
		Color:      n.Material.Color,
		Wireframe:  n.Material.Wireframe,
		Position:   n.Position,
		Quaternion: [4]float64{q.V.X(), q.V.Y(), q.V.Z(), q.W},
		Scale:      n.Scale,
	}
	if withInstances && n.Kind == render.KindInstanced {
		ns.Instances = make([][16]float64, n.Count())
		for i := range ns.Instances {
			ns.Instances[i] = n.MatrixAt(i)
		}
	}
	return ns
}

func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	s.Type = "snapshot"
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func EncodeReply(op string, err error) []byte {
	data, _ := json.Marshal(Reply{Type: "error", Op: op, Error: err.Error()})
	return data
}
