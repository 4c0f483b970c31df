package common

import (
	"errors"
	"fmt"
)

// ErrModulePaused marks an invocation refused because an operator halted the
// module it targets. Callers match it with errors.Is; the returned error also
// names the halted module.
var ErrModulePaused = errors.New("module halted by operator")

// PauseView exposes the operator-maintained halt switches. The marketplace
// host may leave it nil, in which case nothing is ever halted.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects interactions with a halted module. A nil view or empty module
// name always passes.
func Guard(view PauseView, module string) error {
	if view == nil || module == "" {
		return nil
	}
	if view.IsPaused(module) {
		return fmt.Errorf("%w: %s", ErrModulePaused, module)
	}
	return nil
}
