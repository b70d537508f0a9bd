package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every component that owns a set of routes.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Closer is released when the application shuts down.
type Closer interface {
	Close() error
}
