package demo

// KeyPress applies the keyboard shortcut for r and reports whether r is bound.
//
//	space  restart the current scene
//	a      toggle AABB overlay
//	c      toggle constraint overlay
//	p      pause
//	s      single step
//	m      next render mode
//	1-9    change scene, when that scene exists
func (d *Demo) KeyPress(r rune) (bool, error) {
	switch {
	case r == ' ':
		d.Restart()
	case r == 'a' || r == 'A':
		d.settings.AABBs = !d.settings.AABBs
	case r == 'c' || r == 'C':
		d.settings.Constraints = !d.settings.Constraints
	case r == 'p' || r == 'P':
		d.TogglePause()
	case r == 's' || r == 'S':
		d.StepOnce()
	case r == 'm' || r == 'M':
		return true, d.CycleRenderMode()
	case r >= '1' && r <= '9':
		return true, d.ChangeSceneByDigit(int(r - '0'))
	default:
		return false, nil
	}
	return true, nil
}
