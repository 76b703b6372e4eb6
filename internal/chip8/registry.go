package chip8

import "github.com/coornio/cubechip-go/internal/registry"

// DefaultRegistry is the process-wide registry every variant's init()
// self-registers into, the Go analogue of REGISTER_CORE static init.
var DefaultRegistry = registry.New()
