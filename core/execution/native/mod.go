// Package native implements a code service for native modules.
//
// A native module is written in Go and packaged with the application. Its
// entry points are plain functions running against the execution context.
//
// Documentation Last Review: 19.10.2026
package native

import (
	"sort"

	"go.dedis.ch/capvm/core/execution"
	"golang.org/x/xerrors"
)

// Module is a table of entry points indexed by name.
//
// - implements execution.Module
type Module map[string]execution.EntryPoint

// EntryPoint implements execution.Module. It returns the entry point for the
// name if it exists.
func (m Module) EntryPoint(name string) (execution.EntryPoint, bool) {
	fn, found := m[name]
	return fn, found && fn != nil
}

// Service is the code service for packaged modules.
//
// - implements execution.Service
type Service struct {
	modules map[string]execution.Module
}

// NewExecution returns a new native code service without any module.
func NewExecution() *Service {
	return &Service{
		modules: map[string]execution.Module{},
	}
}

// Set stores the module using the name as the key. A deployment can run this
// module by using the same name.
func (ns *Service) Set(name string, module execution.Module) {
	if name == "" {
		panic(xerrors.New("module name cannot be empty"))
	}

	// Check if the module is already registered
	if _, ok := ns.modules[name]; ok {
		panic(xerrors.Errorf("module '%s' already registered", name))
	}

	ns.modules[name] = module
}

// Get implements execution.Service. It returns the module registered for the
// name.
func (ns *Service) Get(name string) (execution.Module, error) {
	module, found := ns.modules[name]
	if !found {
		return nil, xerrors.Errorf("'%s': %w", name, execution.ErrUnknownModule)
	}

	return module, nil
}

// Names returns the sorted names of the registered modules.
func (ns *Service) Names() []string {
	names := make([]string, 0, len(ns.modules))
	for name := range ns.modules {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
