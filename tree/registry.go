package tree

import (
	"fmt"
	"sync"
)

var (
	registryMu sync.RWMutex
	openers    = map[string]ContainerOpener{}
)

// RegisterContainer ties a ContainerOpener to a format key and should be
// called for each available container format during app init. Formats that
// were never registered fail closed with ErrUnsupported instead of failing
// the whole process at load time.
func RegisterContainer(format string, opener ContainerOpener) {
	registryMu.Lock()
	openers[format] = opener
	registryMu.Unlock()
}

// ContainerRegistered reports whether an opener exists for the format.
func ContainerRegistered(format string) bool {
	registryMu.RLock()
	_, ok := openers[format]
	registryMu.RUnlock()
	return ok
}

func containerFor(format string) (ContainerOpener, error) {
	registryMu.RLock()
	opener, ok := openers[format]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no container backend registered for %q", ErrUnsupported, format)
	}
	return opener, nil
}
