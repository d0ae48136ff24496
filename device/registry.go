package device

import (
	"fmt"
	"sync"
)

// Factory creates a new device instance. Factories may fail, e.g. when no
// GPU adapter is present on the machine.
type Factory func() (Device, error)

// registry holds registered device factories.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for device selection (first working factory wins).
	// GPU devices register themselves ahead of the software fallback.
	priority = []string{"gogpu", NameSoftware}
)

// Register registers a device factory under the given name.
// This is typically called from init() functions in device packages.
// Registering the same name twice replaces the earlier factory.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a device factory. Useful in tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the names of all registered device factories.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

// New creates a device by name.
func New(name string) (Device, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q not registered", ErrDeviceNotAvailable, name)
	}
	return factory()
}

// Default returns the best available device based on priority: GPU devices
// first, the software fallback last. Factories that fail are skipped.
func Default() (Device, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var firstErr error
	for _, name := range priority {
		factory, ok := factories[name]
		if !ok {
			continue
		}
		dev, err := factory()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return dev, nil
	}

	// Fallback: any registered factory outside the priority list.
	for name, factory := range factories {
		if inPriority(name) {
			continue
		}
		if dev, err := factory(); err == nil {
			return dev, nil
		}
	}

	if firstErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceNotAvailable, firstErr)
	}
	return nil, ErrDeviceNotAvailable
}

func inPriority(name string) bool {
	for _, p := range priority {
		if p == name {
			return true
		}
	}
	return false
}
