package endpoints

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jayeshrk/securelogin/pkg/audit"
	"github.com/jayeshrk/securelogin/pkg/authn"
	"github.com/jayeshrk/securelogin/pkg/model"
	"github.com/jayeshrk/securelogin/pkg/server"
	"github.com/jayeshrk/securelogin/pkg/server/middleware"
	"github.com/jayeshrk/securelogin/pkg/session"
	"github.com/jayeshrk/securelogin/pkg/vault"
)

// RegisterDataEndpoints registers the routes that release encrypted or
// signed material.
func RegisterDataEndpoints(srv *server.Server, sessionAuth *middleware.SessionAuthenticator) {
	router := srv.Router

	// GET /auth/secure-message - Signed message behind a session token;
	// admins only
	router.Handle(
		"/auth/secure-message",
		sessionAuth.Middleware(middleware.RequireRole(
			http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				user, _ := middleware.UserFromContext(request.Context())

				message := "This message is for authorized administrators only."
				signature, err := signPayload(srv, []byte(message))
				if err != nil {
					respondSignerError(writer, err)
					return
				}

				audit.Log(audit.ReleaseEvent{Username: user.Username, Resource: "secure-message"})
				respondWithJSON(writer, http.StatusOK, map[string]string{
					"message":   message,
					"signature": signature,
				})
			}),
			model.RoleAdmin,
		)),
	).Methods("GET")

	// POST /auth/secure-access - Password re-check; returns a vault-encrypted
	// access grant
	router.HandleFunc(
		"/auth/secure-access",
		func(writer http.ResponseWriter, request *http.Request) {
			user, ok := recheckPassword(srv, writer, request, model.RoleAdmin)
			if !ok {
				return
			}

			grant, err := json.Marshal(map[string]string{
				"access":    "granted",
				"username":  user.Username,
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			if err != nil {
				respondWithError(writer, http.StatusInternalServerError, "Access grant failed")
				return
			}

			encrypted, err := srv.Vault.Encrypt(grant)
			if err != nil {
				respondVaultError(writer, err)
				return
			}

			audit.Log(audit.ReleaseEvent{Username: user.Username, Resource: "secure-access"})
			respondWithJSON(writer, http.StatusOK, map[string]string{
				"encryptedData": encrypted,
			})
		},
	).Methods("POST")

	// POST /auth/user-data - Password re-check; encrypted and signed user
	// listing for admins and moderators
	router.HandleFunc(
		"/auth/user-data",
		func(writer http.ResponseWriter, request *http.Request) {
			user, ok := recheckPassword(srv, writer, request, model.RoleAdmin, model.RoleModerator)
			if !ok {
				return
			}

			users, err := srv.Users.List()
			if err != nil {
				respondWithError(writer, http.StatusInternalServerError, "User listing failed")
				return
			}

			listing := make([]map[string]string, 0, len(users))
			for _, u := range users {
				listing = append(listing, map[string]string{
					"username": u.Username,
					"email":    u.Email,
					"role":     u.Role,
				})
			}
			payload, err := json.Marshal(listing)
			if err != nil {
				respondWithError(writer, http.StatusInternalServerError, "User listing failed")
				return
			}

			encrypted, signature, ok := encryptAndSign(srv, writer, payload)
			if !ok {
				return
			}
			persistBlob(srv, "user-data", encrypted, signature)

			audit.Log(audit.SignEvent{Username: user.Username, DataType: "user-data"})
			respondWithJSON(writer, http.StatusOK, map[string]string{
				"data":      encrypted,
				"signature": signature,
			})
		},
	).Methods("POST")

	// POST /auth/system-config - Password re-check; encrypted and signed
	// configuration snapshot for admins
	router.HandleFunc(
		"/auth/system-config",
		func(writer http.ResponseWriter, request *http.Request) {
			user, ok := recheckPassword(srv, writer, request, model.RoleAdmin)
			if !ok {
				return
			}

			snapshot, err := json.Marshal(map[string]interface{}{
				"maxLoginAttempts":      authn.MaxAttempts,
				"otpExpiryMinutes":      2,
				"sessionTimeoutMinutes": int(session.TokenTTL / time.Minute),
				"encryptionEnabled":     srv.Vault.Ready(),
			})
			if err != nil {
				respondWithError(writer, http.StatusInternalServerError, "Snapshot failed")
				return
			}

			encrypted, signature, ok := encryptAndSign(srv, writer, snapshot)
			if !ok {
				return
			}
			persistBlob(srv, "system-config", encrypted, signature)

			audit.Log(audit.SignEvent{Username: user.Username, DataType: "system-config"})
			respondWithJSON(writer, http.StatusOK, map[string]string{
				"config":    encrypted,
				"signature": signature,
			})
		},
	).Methods("POST")

	// POST /auth/decrypt-data - Session-gated decryption of a vault envelope;
	// admins only
	router.Handle(
		"/auth/decrypt-data",
		sessionAuth.Middleware(middleware.RequireRole(
			http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				user, _ := middleware.UserFromContext(request.Context())

				var body struct {
					EncryptedData string `json:"encryptedData"`
				}
				if err := json.NewDecoder(request.Body).Decode(&body); err != nil || body.EncryptedData == "" {
					respondWithError(writer, http.StatusBadRequest, "encryptedData is required")
					return
				}

				plaintext, err := srv.Vault.Decrypt(body.EncryptedData)
				if err != nil {
					respondVaultError(writer, err)
					return
				}

				audit.Log(audit.ReleaseEvent{Username: user.Username, Resource: "decrypt-data"})
				respondWithJSON(writer, http.StatusOK, map[string]string{
					"data": string(plaintext),
				})
			}),
			model.RoleAdmin,
		)),
	).Methods("POST")
}

// recheckPassword runs the full first factor again and enforces a role
// allow-list. Endpoints releasing sensitive material do not trust the
// session alone.
func recheckPassword(srv *server.Server, writer http.ResponseWriter, request *http.Request, roles ...string) (*model.User, bool) {
	var body credentialRequest
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		respondWithError(writer, http.StatusBadRequest, "Malformed request body")
		return nil, false
	}

	user, status, msg := checkPassword(srv, body.Username, body.Password)
	if user == nil {
		respondWithError(writer, status, msg)
		return nil, false
	}

	for _, role := range roles {
		if user.Role == role {
			return user, true
		}
	}
	respondWithError(writer, http.StatusForbidden, "Insufficient privilege")
	return nil, false
}

func signPayload(srv *server.Server, payload []byte) (string, error) {
	if err := srv.Signer.EnsureKeypair(); err != nil {
		return "", err
	}
	return srv.Signer.Sign(payload)
}

// encryptAndSign runs a payload through the vault and the signer, writing
// the error response itself on failure. The signature is detached and
// covers the plaintext payload, so holders of the decrypted data can check
// it without the envelope.
func encryptAndSign(srv *server.Server, writer http.ResponseWriter, payload []byte) (encrypted, signature string, ok bool) {
	encrypted, err := srv.Vault.Encrypt(payload)
	if err != nil {
		respondVaultError(writer, err)
		return "", "", false
	}

	signature, err = signPayload(srv, payload)
	if err != nil {
		respondSignerError(writer, err)
		return "", "", false
	}
	return encrypted, signature, true
}

// persistBlob appends the released aggregate to the signed_blobs audit
// table. Best effort: a failed write never fails the request.
func persistBlob(srv *server.Server, dataType, encrypted, signature string) {
	blob := &model.SignedBlob{
		ID:               uuid.NewString(),
		DataType:         dataType,
		EncryptedContent: encrypted,
		Signature:        signature,
		CreatedAt:        time.Now(),
	}
	if err := srv.Blobs.Save(blob); err != nil {
		log.Printf("signed blob write (%s) failed: %v", dataType, err)
	}
}

func respondVaultError(writer http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vault.ErrConfiguration):
		respondWithError(writer, http.StatusServiceUnavailable, "Encryption key not configured")
	case errors.Is(err, vault.ErrFormat):
		respondWithError(writer, http.StatusBadRequest, "Unrecognized encrypted payload")
	case errors.Is(err, vault.ErrIntegrity):
		respondWithError(writer, http.StatusBadRequest, "Decryption failed")
	default:
		respondWithError(writer, http.StatusInternalServerError, "Encryption failed")
	}
}
