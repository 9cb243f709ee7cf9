package registry

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/charmbracelet/log"

	"github.com/takumiyoshikawa/agentic/internal/command"
)

// Provider is the registration hook a command module exposes. New must return
// exactly one descriptor.
type Provider struct {
	Name string
	New  func() (*command.Descriptor, error)
}

// DiscoveryError records a command module that failed to load. It never
// aborts startup.
type DiscoveryError struct {
	Provider string
	Err      error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("command %q skipped: %v", e.Provider, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

var errNilDescriptor = errors.New("provider returned no descriptor")

// Discover builds a registry from providers in order. Providers that fail,
// panic, or return a malformed or duplicate descriptor are logged and skipped;
// the registry holds whatever loaded cleanly.
func Discover(providers []Provider, logger *log.Logger) (*Registry, []*DiscoveryError) {
	r := New()
	var problems []*DiscoveryError

	for _, p := range providers {
		if err := load(r, p); err != nil {
			derr := &DiscoveryError{Provider: p.Name, Err: err}
			if logger != nil {
				kv := []any{"provider", p.Name, "err", err}
				var pe *command.PanicError
				if errors.As(err, &pe) {
					kv = append(kv, "stack", string(pe.Stack))
				}
				logger.Warn("command discovery failed", kv...)
			}
			problems = append(problems, derr)
			continue
		}
		if logger != nil {
			logger.Debug("command registered", "provider", p.Name)
		}
	}
	return r, problems
}

func load(r *Registry, p Provider) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &command.PanicError{Value: v, Stack: debug.Stack()}
		}
	}()

	if p.New == nil {
		return errNilDescriptor
	}
	d, err := p.New()
	if err != nil {
		return err
	}
	if d == nil {
		return errNilDescriptor
	}
	return r.Register(d)
}
