package endpoints

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/jayeshrk/securelogin/pkg/notify"
	"github.com/jayeshrk/securelogin/pkg/server"
	"github.com/jayeshrk/securelogin/pkg/store/storetest"
	"github.com/jayeshrk/securelogin/pkg/vault"
)

const testPassphrase = "a-passphrase-long-enough"

// captureMailer records the last code instead of sending mail, so tests
// can redeem it.
type captureMailer struct {
	LastTo      string
	LastCode    string
	LastPurpose string
}

var _ notify.Mailer = (*captureMailer)(nil)

func (m *captureMailer) SendOTP(to, username, code, purpose string) error {
	m.LastTo = to
	m.LastCode = code
	m.LastPurpose = purpose
	return nil
}

type testEnv struct {
	srv    *server.Server
	mem    *storetest.Memory
	mailer *captureMailer
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithPassphrase(t, testPassphrase)
}

func newTestEnvWithPassphrase(t *testing.T, passphrase string) *testEnv {
	t.Helper()

	mem := storetest.New()
	mailer := &captureMailer{}
	srv := server.NewServer(
		mem.Users(), mem.Sessions(), mem.Keys(), mem.Blobs(),
		vault.New(passphrase), mailer, nil, "localhost", "0",
	)
	RegisterAll(srv)

	return &testEnv{srv: srv, mem: mem, mailer: mailer}
}

// do runs a JSON request through the router and decodes the response body.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	e.srv.Router.ServeHTTP(rec, req)

	decoded := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		// Some middleware rejections are plain text; leave those undecoded.
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec.Code, decoded
}

// register creates and verifies an account through the public endpoints.
func (e *testEnv) register(t *testing.T, username, email, password, role string) {
	t.Helper()

	code, _ := e.do(t, "POST", "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
		"role":     role,
	}, nil)
	if code != 201 {
		t.Fatalf("register %s: status %d", username, code)
	}

	code, _ = e.do(t, "POST", "/auth/verify-registration", map[string]string{
		"username": username,
		"otp":      e.mailer.LastCode,
	}, nil)
	if code != 200 {
		t.Fatalf("verify-registration %s: status %d", username, code)
	}
}

// login completes both factors and returns the session token.
func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()

	code, _ := e.do(t, "POST", "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	if code != 200 {
		t.Fatalf("login %s: status %d", username, code)
	}

	code, body := e.do(t, "POST", "/auth/verify-otp", map[string]string{
		"username": username,
		"otp":      e.mailer.LastCode,
	}, nil)
	if code != 200 {
		t.Fatalf("verify-otp %s: status %d", username, code)
	}

	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("verify-otp %s: no token in response %v", username, body)
	}
	return token
}
