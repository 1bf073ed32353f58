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
	"github.com/jayeshrk/securelogin/pkg/otp"
	"github.com/jayeshrk/securelogin/pkg/qr"
	"github.com/jayeshrk/securelogin/pkg/server"
	"github.com/jayeshrk/securelogin/pkg/store"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type credentialRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type otpRequest struct {
	Username string `json:"username"`
	OTP      string `json:"otp"`
}

// RegisterAuthEndpoints registers the registration and two-factor login
// routes.
func RegisterAuthEndpoints(srv *server.Server) {
	router := srv.Router

	// POST /auth/register - Create an unverified account and send a
	// registration code
	router.HandleFunc(
		"/auth/register",
		func(writer http.ResponseWriter, request *http.Request) {
			var body registerRequest
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				respondWithError(writer, http.StatusBadRequest, "Malformed request body")
				return
			}

			if body.Username == "" || body.Email == "" || body.Password == "" {
				respondWithError(writer, http.StatusBadRequest, "username, email and password are required")
				return
			}

			role := body.Role
			if role == "" {
				role = model.RoleUser
			}
			if !model.ValidRole(role) {
				respondWithError(writer, http.StatusBadRequest, "Invalid role")
				return
			}

			taken, err := srv.Users.UsernameOrEmailTaken(body.Username, body.Email)
			if err != nil {
				respondWithError(writer, http.StatusInternalServerError, "Registration failed")
				return
			}
			if taken {
				respondWithError(writer, http.StatusConflict, "Username or email already in use")
				return
			}

			hash, err := authn.HashPassword(body.Password)
			if err != nil {
				respondWithError(writer, http.StatusInternalServerError, "Registration failed")
				return
			}

			user := &model.User{
				ID:           uuid.NewString(),
				Username:     body.Username,
				Email:        body.Email,
				PasswordHash: hash,
				Role:         role,
				CreatedAt:    time.Now(),
			}
			if err := srv.Users.Create(user); err != nil {
				respondWithError(writer, http.StatusInternalServerError, "Registration failed")
				return
			}

			sendOTP(srv, user, otp.PurposeRegistration)

			respondWithJSON(writer, http.StatusCreated, map[string]string{
				"message": "Registered. Verify your account with the code sent to your email.",
			})
		},
	).Methods("POST")

	// POST /auth/verify-registration - Redeem the registration code
	router.HandleFunc(
		"/auth/verify-registration",
		func(writer http.ResponseWriter, request *http.Request) {
			var body otpRequest
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				respondWithError(writer, http.StatusBadRequest, "Malformed request body")
				return
			}

			user, err := srv.Users.FindByUsername(body.Username)
			if err != nil {
				respondWithError(writer, http.StatusUnauthorized, "Invalid verification code")
				return
			}
			if user.IsVerified {
				respondWithError(writer, http.StatusBadRequest, "Account already verified")
				return
			}

			switch srv.OTP.Verify(user, body.OTP, otp.PurposeRegistration) {
			case otp.Valid:
				if err := srv.Users.MarkVerified(user.ID); err != nil {
					respondWithError(writer, http.StatusInternalServerError, "Verification failed")
					return
				}
				audit.Log(audit.OTPVerifyEvent{Username: user.Username, Purpose: string(otp.PurposeRegistration), Result: "valid"})
				respondWithJSON(writer, http.StatusOK, map[string]string{"message": "Account verified"})
			case otp.Expired:
				// A dead registration code is gone for good; the user
				// starts over.
				_ = srv.OTP.Clear(user)
				audit.Log(audit.OTPVerifyEvent{Username: user.Username, Purpose: string(otp.PurposeRegistration), Result: "expired"})
				respondWithError(writer, http.StatusUnauthorized, "Verification code expired, register again")
			default:
				audit.Log(audit.OTPVerifyEvent{Username: user.Username, Purpose: string(otp.PurposeRegistration), Result: "invalid"})
				respondWithError(writer, http.StatusUnauthorized, "Invalid verification code")
			}
		},
	).Methods("POST")

	// POST /auth/login - First factor; issues a login code on success
	router.HandleFunc(
		"/auth/login",
		func(writer http.ResponseWriter, request *http.Request) {
			var body credentialRequest
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				respondWithError(writer, http.StatusBadRequest, "Malformed request body")
				return
			}

			user, status, msg := checkPassword(srv, body.Username, body.Password)
			if user == nil {
				respondWithError(writer, status, msg)
				return
			}

			sendOTP(srv, user, otp.PurposeLogin)

			respondWithJSON(writer, http.StatusOK, map[string]string{
				"message": "OTP sent to your email",
			})
		},
	).Methods("POST")

	// POST /auth/verify-otp - Second factor; redeems the login code for a
	// session
	router.HandleFunc(
		"/auth/verify-otp",
		func(writer http.ResponseWriter, request *http.Request) {
			var body otpRequest
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				respondWithError(writer, http.StatusBadRequest, "Malformed request body")
				return
			}

			user, err := srv.Users.FindByUsername(body.Username)
			if err != nil {
				respondWithError(writer, http.StatusUnauthorized, "Invalid OTP")
				return
			}

			switch srv.OTP.Verify(user, body.OTP, otp.PurposeLogin) {
			case otp.Expired:
				_ = srv.OTP.Clear(user)
				audit.Log(audit.OTPVerifyEvent{Username: user.Username, Purpose: string(otp.PurposeLogin), Result: "expired"})
				respondWithError(writer, http.StatusUnauthorized, "OTP expired")
				return
			case otp.Invalid:
				audit.Log(audit.OTPVerifyEvent{Username: user.Username, Purpose: string(otp.PurposeLogin), Result: "invalid"})
				respondWithError(writer, http.StatusUnauthorized, "Invalid OTP")
				return
			}

			audit.Log(audit.OTPVerifyEvent{Username: user.Username, Purpose: string(otp.PurposeLogin), Result: "valid"})

			// The session insert clears the OTP, so render the QR artifact
			// from the submitted code first.
			qrCode, err := qr.DataURL(user.Username, body.OTP)
			if err != nil {
				log.Printf("qr render for %s failed: %v", user.Username, err)
			}

			sess, err := srv.Issuer.Issue(user)
			if err != nil {
				respondWithError(writer, http.StatusInternalServerError, "Login failed")
				return
			}
			audit.Log(audit.SessionEvent{Username: user.Username})

			response := map[string]interface{}{
				"message":   "Login successful",
				"token":     sess.Token,
				"expiresAt": sess.ExpiresAt.UTC().Format(time.RFC3339),
			}
			if qrCode != "" {
				response["qrCode"] = qrCode
			}

			// Attestation is best effort: a degraded vault must not block
			// login.
			if attestation, err := attestLogin(srv, user.Username); err != nil {
				log.Printf("login attestation for %s failed: %v", user.Username, err)
			} else {
				response["attestation"] = attestation
			}

			respondWithJSON(writer, http.StatusOK, response)
		},
	).Methods("POST")
}

// sendOTP issues a fresh code and delivers it best effort. A delivery
// failure is logged with the code so an operator can relay it manually.
func sendOTP(srv *server.Server, user *model.User, purpose otp.Purpose) {
	code, err := srv.OTP.Issue(user, purpose)
	if err != nil {
		log.Printf("otp issue for %s failed: %v", user.Username, err)
		return
	}
	audit.Log(audit.OTPIssuedEvent{Username: user.Username, Purpose: string(purpose)})

	if err := srv.Mailer.SendOTP(user.Email, user.Username, code, string(purpose)); err != nil {
		log.Printf("otp delivery for %s failed (code %s): %v", user.Username, code, err)
	}
}

func attestLogin(srv *server.Server, username string) (string, error) {
	if err := srv.Signer.EnsureKeypair(); err != nil {
		return "", err
	}
	return srv.Signer.Attest(username, time.Now())
}

// checkPassword runs the first factor and maps the outcome to an HTTP
// status. A nil user means the attempt was rejected.
func checkPassword(srv *server.Server, username, password string) (*model.User, int, string) {
	user, err := srv.Checker.CheckPassword(username, password)
	if err == nil {
		audit.Log(audit.PasswordEvent{Username: username, Success: true})
		return user, http.StatusOK, ""
	}

	var attemptErr *authn.AttemptError
	switch {
	case errors.Is(err, authn.ErrAccountLocked):
		audit.Log(audit.LockoutEvent{Username: username})
		return nil, http.StatusForbidden, "Account locked due to too many failed attempts"
	case errors.Is(err, authn.ErrNotVerified):
		return nil, http.StatusForbidden, "Account not verified"
	case errors.As(err, &attemptErr):
		audit.Log(audit.PasswordEvent{Username: username, Success: false, Attempts: attemptErr.Attempts})
		return nil, http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, authn.ErrInvalidCredential):
		audit.Log(audit.PasswordEvent{Username: username, Success: false})
		return nil, http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, store.ErrNotFound):
		return nil, http.StatusUnauthorized, "Invalid credentials"
	}
	return nil, http.StatusInternalServerError, "Login failed"
}
