package net

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/l1jgo/simsync/internal/physics"
	"github.com/l1jgo/simsync/internal/render"
)

func TestBridgeRoundTrip(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0", 8, 8, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	go srv.AcceptLoop()
	defer srv.Shutdown(context.Background())

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr().String()+Path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var sess *Session
	select {
	case sess = <-srv.NewSessions():
	case <-time.After(5 * time.Second):
		t.Fatal("no session")
	}
	if !sess.Keyframe {
		t.Fatal("new session does not want a keyframe")
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(Command{Op: OpScene, Index: 2}); err != nil {
		t.Fatal(err)
	}
	select {
	case cmd := <-sess.InQueue:
		if cmd.Op != OpScene || cmd.Index != 2 {
			t.Fatalf("command = %+v", cmd)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("command not queued")
	}

	sess.Send([]byte(`{"type":"hello"}`))
	sess.FlushOutput()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(msg) != `{"type":"hello"}` {
		t.Fatalf("message = %s", msg)
	}

	sess.Close()
	if !sess.IsClosed() {
		t.Fatal("session not closed")
	}
	sess.Send([]byte("dropped"))
	if len(sess.outBuf) != 0 {
		t.Fatal("closed session buffered output")
	}
}

func TestEncodeNode(t *testing.T) {
	n := render.NewInstanced("g", []physics.Shape{{Kind: physics.ShapeSphere, Radius: 1}}, render.SolidMaterial, 2)
	n.SetMatrixAt(1, mgl64.Translate3D(1, 2, 3))
	ns := EncodeNode(n, true)
	if ns.Kind != "instanced" || len(ns.Instances) != 2 || ns.Instances[1][12] != 1 || ns.Instances[1][14] != 3 {
		t.Fatalf("node = %+v", ns)
	}
	if ns.Quaternion != [4]float64{0, 0, 0, 1} {
		t.Fatalf("quaternion = %v", ns.Quaternion)
	}
	if EncodeNode(n, false).Instances != nil {
		t.Fatal("instances sent without request")
	}

	data, err := EncodeSnapshot(&Snapshot{Frame: 3, Nodes: []NodeState{ns}})
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back["type"] != "snapshot" || back["frame"] != 3.0 {
		t.Fatalf("snapshot = %s", data)
	}
}
