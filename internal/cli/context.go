// Package cli provides the command-line interface for the loom application.
package cli

import (
	"sync"

	"github.com/medialoom/loom/internal/app"
)

var (
	appMu     sync.Mutex
	globalApp *app.Application
)

// SetApp stores the shared Application for commands to access
func SetApp(a *app.Application) {
	appMu.Lock()
	defer appMu.Unlock()
	globalApp = a
}

// GetApp retrieves the shared Application
func GetApp() *app.Application {
	appMu.Lock()
	defer appMu.Unlock()
	return globalApp
}
