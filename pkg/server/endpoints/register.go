package endpoints

import (
	"github.com/jayeshrk/securelogin/pkg/server"
	"github.com/jayeshrk/securelogin/pkg/server/middleware"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	sessionAuth := middleware.NewSessionAuthenticator(srv.Issuer)

	RegisterAuthEndpoints(srv)
	RegisterDataEndpoints(srv, sessionAuth)
	RegisterSignatureEndpoint(srv)
	RegisterQREndpoint(srv)
	RegisterStatusEndpoint(srv)
}
