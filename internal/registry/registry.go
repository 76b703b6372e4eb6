// Package registry maps guest file extensions to core constructors, the Go
// analogue of the host's GameFileChecker + REGISTER_CORE static-init
// pattern: each core variant self-registers from an init() function, and
// callers validate an incoming program against the resulting table.
package registry

import (
	"fmt"
	"sort"
	"sync"
)

// CoreName identifies a constructible core implementation.
type CoreName string

const (
	CHIP8Modern  CoreName = "CHIP8_MODERN"
	SCHIPModern  CoreName = "SCHIP_MODERN"
	SCHIPLegacy  CoreName = "SCHIP_LEGACY"
	XOChip       CoreName = "XOCHIP"
	MegaChip     CoreName = "MEGACHIP"
	CHIP8X       CoreName = "CHIP8X"
	BytePusher   CoreName = "BYTEPUSHER"
)

// Program describes an incoming guest file, enough to route and validate it
// without holding the file open.
type Program struct {
	Size      uint64
	Extension string // includes the leading dot, e.g. ".ch8"
	SHA1      string // hex digest, may be empty when unknown
}

// SizeValidator reports whether size is acceptable for a core. A nil
// validator always accepts.
type SizeValidator func(size uint64) bool

// Constructor builds a fresh core instance from raw program bytes.
type Constructor func(data []byte) (any, error)

// CoreDescriptor is one core's registration: its name, an optional size
// validator, and its constructor.
type CoreDescriptor struct {
	Name      CoreName
	Validate  SizeValidator
	Construct Constructor
}

// Registry maps extensions to registered cores and tracks which cores are
// installed vs. merely named by the extension table.
type Registry struct {
	mu         sync.RWMutex
	extToCore  map[string]CoreName
	cores      map[CoreName]CoreDescriptor
	programDB  map[string]CoreName // sha1 -> core, accepted but unused (see Open Questions)
	lastError  string
	currentSet CoreName
}

// extension table ported from GameFileChecker::validate's sExtMap, with
// cores outside this implementation's scope falling back to the nearest
// supported one (recorded in DESIGN.md's Open Question resolutions).
var extensionTable = map[string]CoreName{
	".ch8": CHIP8Modern,
	".bnc": CHIP8Modern,
	".c8e": CHIP8Modern, // CHIP8E not implemented, nearest fallback
	".sc8": SCHIPModern,
	".xo8": XOChip,
	".mc8": MegaChip,
	".gc8": MegaChip, // GIGACHIP not implemented, nearest fallback
	".hwc": CHIP8Modern, // HWCHIP64 not implemented, nearest fallback
	".c8x": CHIP8X,
	".c2x": CHIP8X,
	".c4x": CHIP8X,
	".c2h": CHIP8X,
	".c4h": CHIP8X,
	".c8h": CHIP8X,
	".bp":  BytePusher,
	".ch16": BytePusher,
}

// New returns an empty Registry seeded with the standard extension table.
func New() *Registry {
	ext := make(map[string]CoreName, len(extensionTable))
	for k, v := range extensionTable {
		ext[k] = v
	}
	return &Registry{
		extToCore: ext,
		cores:     make(map[CoreName]CoreDescriptor),
		programDB: make(map[string]CoreName),
	}
}

// RegisterCore installs a core descriptor. Intended to be called from each
// variant package's init(); registration order is unobserved.
func (r *Registry) RegisterCore(d CoreDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cores[d.Name] = d
}

// EligibleCores returns the names of every core currently registered,
// sorted for deterministic iteration (e.g. a UI core picker).
func (r *Registry) EligibleCores() []CoreName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]CoreName, 0, len(r.cores))
	for name := range r.cores {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ClearEligibleCores drops every registered core descriptor. Used by tests
// and by a hot-reload path that wants a clean registration pass.
func (r *Registry) ClearEligibleCores() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cores = make(map[CoreName]CoreDescriptor)
}

// LoadProgramDB accepts a sha1->core map (e.g. parsed from an external
// program database) but — matching the host's commented-out database
// branch in GameFileChecker::validate — it is never consulted by
// ValidateProgram. Kept so a future database-driven lookup has a home
// without changing ValidateProgram's contract.
func (r *Registry) LoadProgramDB(entries map[string]CoreName) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.programDB = entries
}

// LastError returns the reason the most recent ValidateProgram call failed,
// or "" if it succeeded.
func (r *Registry) LastError() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastError
}

// ValidateProgram routes p by extension to a registered core and checks its
// size against that core's validator. It does not consult the program
// database even when LoadProgramDB has been called.
func (r *Registry) ValidateProgram(p Program) (CoreName, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.extToCore[p.Extension]
	if !ok {
		r.lastError = fmt.Sprintf("unknown filetype or platform: %q", p.Extension)
		return "", false
	}

	desc, ok := r.cores[name]
	if !ok {
		r.lastError = fmt.Sprintf("core %q not registered", name)
		return "", false
	}

	if desc.Validate != nil && !desc.Validate(p.Size) {
		r.lastError = fmt.Sprintf("program size %d rejected by core %q", p.Size, name)
		return "", false
	}

	r.lastError = ""
	r.currentSet = name
	return name, true
}

// ConstructCore builds a core instance for name from data, failing if the
// core isn't registered.
func (r *Registry) ConstructCore(name CoreName, data []byte) (any, error) {
	r.mu.RLock()
	desc, ok := r.cores[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("registry: core %q not registered", name)
	}
	return desc.Construct(data)
}

// ClearCurrentCore resets the last-validated core marker, e.g. when the
// host tears down a running session.
func (r *Registry) ClearCurrentCore() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentSet = ""
}

// CurrentCore returns the core name set by the most recent successful
// ValidateProgram call.
func (r *Registry) CurrentCore() CoreName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currentSet
}
