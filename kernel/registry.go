// Package kernel implements the native reference controller modules —
// Token and Account — as Go functions registered under a fixed module id,
// dispatched in place of RISC-V interpretation (§4.9). Every module
// implements the same (ExecutionContext) -> ([]ObjectEffect, KernelError)
// contract the RISC-V host provides, so the executor never needs to know
// which path produced a given instruction's effects.
package kernel

import "github.com/units-io/units/core/types"

// ModuleID names a native reference module. The controller object's data
// carries this id immediately after the "UKNM" magic (see Sniff).
type ModuleID [8]byte

var (
	TokenModuleID   = moduleID("token")
	AccountModuleID = moduleID("account")
)

func moduleID(name string) ModuleID {
	var id ModuleID
	copy(id[:], name)
	return id
}

// Magic is the four-byte header that selects the native-module dispatch
// path instead of RISC-V bytecode loading.
var Magic = [4]byte{'U', 'K', 'N', 'M'}

// Module is a native reference controller implementation.
type Module interface {
	// Invoke executes one instruction against ctx and returns the effects
	// it produces. A non-nil *types.KernelFault marks instruction failure
	// (no effects are applied) without implying a host/VM-level fault.
	Invoke(ctx *types.ExecutionContext) ([]types.ObjectEffect, *types.KernelFault)
}

// Registry maps native module ids to their implementations.
type Registry struct {
	modules map[ModuleID]Module
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[ModuleID]Module)}
}

// Register installs module under id, replacing any existing registration.
func (r *Registry) Register(id ModuleID, module Module) {
	r.modules[id] = module
}

// Lookup returns the module registered under id, if any.
func (r *Registry) Lookup(id ModuleID) (Module, bool) {
	m, ok := r.modules[id]
	return m, ok
}

// Sniff reports whether data begins with the native-module magic and, if
// so, the module id that follows it.
func Sniff(data []byte) (ModuleID, bool) {
	if len(data) < 4+len(ModuleID{}) {
		return ModuleID{}, false
	}
	var magic [4]byte
	copy(magic[:], data[:4])
	if magic != Magic {
		return ModuleID{}, false
	}
	var id ModuleID
	copy(id[:], data[4:4+len(id)])
	return id, true
}

// NewDefaultRegistry constructs a Registry with the Token and Account
// reference modules registered under their well-known ids.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(TokenModuleID, NewTokenModule())
	r.Register(AccountModuleID, NewAccountModule())
	return r
}
