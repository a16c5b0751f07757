package middleware

import "github.com/aretw0/teamboard/pkg/ports"

// Middleware wraps a TeamStore to add behavior.
type Middleware func(ports.TeamStore) ports.TeamStore

// Chain applies middlewares so that the first one is the outermost.
func Chain(store ports.TeamStore, mws ...Middleware) ports.TeamStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
