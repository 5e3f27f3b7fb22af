package interfaces

import "net/http"

// HTTPHandler is the transport served by cmd/server.
type HTTPHandler interface {
	http.Handler
}
