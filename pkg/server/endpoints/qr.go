package endpoints

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jayeshrk/securelogin/pkg/qr"
	"github.com/jayeshrk/securelogin/pkg/server"
)

// RegisterQREndpoint registers the QR rendering of a live one-time code.
// Convenience only; the QR image carries nothing the code's owner does not
// already have by email.
func RegisterQREndpoint(srv *server.Server) {
	// GET /auth/qr-code/{username}
	srv.Router.HandleFunc(
		"/auth/qr-code/{username}",
		func(writer http.ResponseWriter, request *http.Request) {
			username := mux.Vars(request)["username"]

			user, err := srv.Users.FindByUsername(username)
			if err != nil {
				respondWithError(writer, http.StatusNotFound, "No active code")
				return
			}
			if !user.OTP.Live() {
				respondWithError(writer, http.StatusNotFound, "No active code")
				return
			}

			dataURL, err := qr.DataURL(user.Username, *user.OTP.Code)
			if err != nil {
				respondWithError(writer, http.StatusInternalServerError, "QR rendering failed")
				return
			}

			respondWithJSON(writer, http.StatusOK, map[string]string{"qrCode": dataURL})
		},
	).Methods("GET")
}
