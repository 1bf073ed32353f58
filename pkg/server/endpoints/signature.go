package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jayeshrk/securelogin/pkg/server"
	"github.com/jayeshrk/securelogin/pkg/signer"
	"github.com/jayeshrk/securelogin/pkg/vault"
)

// RegisterSignatureEndpoint registers the public signature check.
func RegisterSignatureEndpoint(srv *server.Server) {
	// POST /auth/verify-signature - Anyone may check a signature; a
	// mismatch is a result, not an error
	srv.Router.HandleFunc(
		"/auth/verify-signature",
		func(writer http.ResponseWriter, request *http.Request) {
			var body struct {
				Data      string `json:"data"`
				Signature string `json:"signature"`
			}
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil || body.Data == "" || body.Signature == "" {
				respondWithError(writer, http.StatusBadRequest, "data and signature are required")
				return
			}

			valid, err := srv.Signer.Verify([]byte(body.Data), body.Signature)
			if err != nil {
				respondSignerError(writer, err)
				return
			}

			respondWithJSON(writer, http.StatusOK, map[string]bool{"valid": valid})
		},
	).Methods("POST")
}

func respondSignerError(writer http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vault.ErrConfiguration):
		respondWithError(writer, http.StatusServiceUnavailable, "Encryption key not configured")
	case errors.Is(err, signer.ErrKeyUnavailable):
		respondWithError(writer, http.StatusConflict, "Signing key unavailable")
	default:
		respondWithError(writer, http.StatusInternalServerError, "Signing failed")
	}
}
