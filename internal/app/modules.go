package app

import (
	"github.com/vk/clipforge/internal/registry"
	"github.com/vk/clipforge/steps/manifest"
	"github.com/vk/clipforge/steps/probe"
	"github.com/vk/clipforge/steps/transcript"
)

// coreModules lists the step packages compiled into the binary. The registry
// is populated from this list at startup; a pipeline referencing anything
// else fails assembly with the known-implementations list.
var coreModules = []registry.Module{
	probe.Module{},
	transcript.Module{},
	manifest.Module{},
}
