package app

import (
	"github.com/vk/mediachain/internal/registry"
	"github.com/vk/mediachain/modules/buffer"
	"github.com/vk/mediachain/modules/mixer"
	"github.com/vk/mediachain/modules/statsink"
	"github.com/vk/mediachain/modules/timer"
	"github.com/vk/mediachain/modules/tone"
)

// coreModules is the definitive list of all component kinds compiled into
// the mediachain binary.
var coreModules = []registry.Module{
	&mixer.Module{},
	&buffer.Module{},
	&timer.Module{},
	&tone.Module{},
	&statsink.Module{},
}

// CoreModules returns a copy of the built-in modules, for callers that want
// to register extra kinds next to them.
func CoreModules() []registry.Module {
	return append([]registry.Module(nil), coreModules...)
}
