package probe

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"zprobe/internal/config"
)

var registry = make(map[string]Module)

// Register adds a module under its own Name(). Called from each module
// package's init(), mirroring the original's static probe_modules[] table
// (spec §2's "Probe-module registry" item) with Go's init-time side effect
// replacing the hand-maintained array.
func Register(m Module) {
	name := m.Name()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("probe: module %q already registered", name))
	}
	registry[name] = m
}

// Lookup returns the module registered under name, if any.
func Lookup(name string) (Module, bool) {
	m, ok := registry[name]
	return m, ok
}

// Names returns every registered module name, for --help listings.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// CloseAll calls Close on every registered module, regardless of whether
// it was the one active for this run, and aggregates every error — used
// at CLI shutdown so an unclean teardown in one module never masks
// another's.
func CloseAll(cfg *config.Config) error {
	var errs *multierror.Error
	for name, m := range registry {
		if err := m.Close(cfg); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("probe: module %q: Close: %w", name, err))
		}
	}
	return errs.ErrorOrNil()
}
