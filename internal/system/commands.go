package system

import (
	"errors"
	"fmt"

	"github.com/l1jgo/simsync/internal/demo"
	"github.com/l1jgo/simsync/internal/net"
)

var ErrUnknownOp = errors.New("unknown command op")

// Apply runs one bridge command against d. Called only from the frame loop.
func Apply(d *demo.Demo, cmd net.Command) error {
	switch cmd.Op {
	case net.OpSet:
		return d.Set(cmd.Key, cmd.Value)
	case net.OpScene:
		return d.ChangeScene(cmd.Index)
	case net.OpRestart:
		d.Restart()
		return nil
	case net.OpStep:
		d.StepOnce()
		return nil
	case net.OpPause:
		switch v := cmd.Value.(type) {
		case nil:
			d.TogglePause()
		case bool:
			d.SetPaused(v)
		default:
			return fmt.Errorf("pause: %w: want bool, got %T", demo.ErrUnknownSetting, cmd.Value)
		}
		return nil
	case net.OpRenderMode:
		name, ok := cmd.Value.(string)
		if !ok {
			return fmt.Errorf("render_mode: want string, got %T", cmd.Value)
		}
		if name == "next" {
			return d.CycleRenderMode()
		}
		return d.SetRenderMode(name)
	}
	return fmt.Errorf("%w: %q", ErrUnknownOp, cmd.Op)
}
