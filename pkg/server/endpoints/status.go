package endpoints

import (
	"net/http"

	"github.com/jayeshrk/securelogin/pkg/server"
)

// RegisterStatusEndpoint registers the root health endpoint.
func RegisterStatusEndpoint(srv *server.Server) {
	srv.Router.HandleFunc(
		"/",
		func(writer http.ResponseWriter, request *http.Request) {
			respondWithJSON(writer, http.StatusOK, map[string]string{
				"service": "securelogin",
				"status":  "ok",
			})
		},
	).Methods("GET")
}
