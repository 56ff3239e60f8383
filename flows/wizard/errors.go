package wizard

import "errors"

var ErrNoSteps = errors.New("wizard requires at least one step")
