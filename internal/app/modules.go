package app

import (
	"github.com/specialistvlad/objgraph/internal/registry"
	"github.com/specialistvlad/objgraph/modules/clock"
	"github.com/specialistvlad/objgraph/modules/env_vars"
	"github.com/specialistvlad/objgraph/modules/http_client"
)

// coreModules is the definitive list of all type modules that are compiled
// into the objgraph binary.
var coreModules = []registry.Module{
	&clock.Module{},
	&env_vars.Module{},
	&http_client.Module{},
}
