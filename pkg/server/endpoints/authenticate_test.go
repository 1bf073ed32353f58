package endpoints

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayeshrk/securelogin/pkg/model"
)

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"missing fields", map[string]string{"username": "a"}, 400},
		{"invalid role", map[string]string{
			"username": "a", "email": "a@example.com", "password": "pw", "role": "root",
		}, 400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _ := env.do(t, "POST", "/auth/register", tc.body, nil)
			assert.Equal(t, tc.status, code)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice", "alice@example.com", "pw-alice", "user")

	code, body := env.do(t, "POST", "/auth/register", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "pw",
	}, nil)
	assert.Equal(t, 409, code)
	assert.Contains(t, body["error"], "already in use")
}

func TestRegistrationVerificationFlow(t *testing.T) {
	env := newTestEnv(t)

	code, _ := env.do(t, "POST", "/auth/register", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "pw-bob",
	}, nil)
	require.Equal(t, 201, code)
	require.Equal(t, "registration", env.mailer.LastPurpose)
	require.Len(t, env.mailer.LastCode, 6)

	// Login before verification is refused even with the right password.
	code, body := env.do(t, "POST", "/auth/login", map[string]string{
		"username": "bob", "password": "pw-bob",
	}, nil)
	assert.Equal(t, 403, code)
	assert.Contains(t, body["error"], "not verified")

	// A wrong code does not verify.
	code, _ = env.do(t, "POST", "/auth/verify-registration", map[string]string{
		"username": "bob", "otp": "000000",
	}, nil)
	assert.Equal(t, 401, code)

	code, _ = env.do(t, "POST", "/auth/verify-registration", map[string]string{
		"username": "bob", "otp": env.mailer.LastCode,
	}, nil)
	require.Equal(t, 200, code)

	// Verifying twice is refused.
	code, _ = env.do(t, "POST", "/auth/verify-registration", map[string]string{
		"username": "bob", "otp": env.mailer.LastCode,
	}, nil)
	assert.Equal(t, 400, code)
}

func TestExpiredRegistrationCodeMustReregister(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()
	env.srv.OTP.WithClock(func() time.Time { return now })

	code, _ := env.do(t, "POST", "/auth/register", map[string]string{
		"username": "carl", "email": "carl@example.com", "password": "pw-carl",
	}, nil)
	require.Equal(t, 201, code)

	now = now.Add(10*time.Minute + time.Second)
	code, body := env.do(t, "POST", "/auth/verify-registration", map[string]string{
		"username": "carl", "otp": env.mailer.LastCode,
	}, nil)
	assert.Equal(t, 401, code)
	assert.Contains(t, body["error"], "register again")

	// The dead code was cleared.
	user, err := env.mem.Users().FindByUsername("carl")
	require.NoError(t, err)
	assert.False(t, user.OTP.Live())
}

func TestTwoFactorLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "dana", "dana@example.com", "pw-dana", "admin")

	code, _ := env.do(t, "POST", "/auth/login", map[string]string{
		"username": "dana", "password": "pw-dana",
	}, nil)
	require.Equal(t, 200, code)
	require.Equal(t, "login", env.mailer.LastPurpose)

	code, body := env.do(t, "POST", "/auth/verify-otp", map[string]string{
		"username": "dana", "otp": env.mailer.LastCode,
	}, nil)
	require.Equal(t, 200, code)

	token, _ := body["token"].(string)
	assert.Len(t, token, 48)
	assert.NotEmpty(t, body["expiresAt"])
	assert.NotEmpty(t, body["attestation"], "login should carry a signed attestation")
	qrCode, _ := body["qrCode"].(string)
	assert.True(t, strings.HasPrefix(qrCode, "data:image/png;base64,"))

	// The attestation names the user and verifies against our key.
	subject, ok, err := env.srv.Signer.VerifyAttestation(body["attestation"].(string))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dana", subject)

	// The code was consumed with the session issue.
	user, err := env.mem.Users().FindByUsername("dana")
	require.NoError(t, err)
	assert.False(t, user.OTP.Live())
}

func TestRegistrationCodeRedeemsAtLoginVerify(t *testing.T) {
	env := newTestEnv(t)

	code, _ := env.do(t, "POST", "/auth/register", map[string]string{
		"username": "kai", "email": "kai@example.com", "password": "pw-kai",
	}, nil)
	require.Equal(t, 201, code)
	require.Equal(t, "registration", env.mailer.LastPurpose)

	// Purpose scopes a code's validity window, nothing more: any live code
	// redeems here, including one issued at registration for an account
	// that never completed verification.
	code, body := env.do(t, "POST", "/auth/verify-otp", map[string]string{
		"username": "kai", "otp": env.mailer.LastCode,
	}, nil)
	require.Equal(t, 200, code)
	assert.NotEmpty(t, body["token"])

	user, err := env.mem.Users().FindByUsername("kai")
	require.NoError(t, err)
	assert.False(t, user.IsVerified)
	assert.False(t, user.OTP.Live())
}

func TestLoginCodeIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "erin", "erin@example.com", "pw-erin", "user")
	env.login(t, "erin", "pw-erin")

	code, _ := env.do(t, "POST", "/auth/verify-otp", map[string]string{
		"username": "erin", "otp": env.mailer.LastCode,
	}, nil)
	assert.Equal(t, 401, code)
}

func TestExpiredLoginCode(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "finn", "finn@example.com", "pw-finn", "user")

	now := time.Now()
	env.srv.OTP.WithClock(func() time.Time { return now })

	code, _ := env.do(t, "POST", "/auth/login", map[string]string{
		"username": "finn", "password": "pw-finn",
	}, nil)
	require.Equal(t, 200, code)

	now = now.Add(2*time.Minute + time.Second)
	code, body := env.do(t, "POST", "/auth/verify-otp", map[string]string{
		"username": "finn", "otp": env.mailer.LastCode,
	}, nil)
	assert.Equal(t, 401, code)
	assert.Contains(t, body["error"], "expired")
}

func TestLoginLockout(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "gina", "gina@example.com", "pw-gina", "user")

	for i := 0; i < 2; i++ {
		code, _ := env.do(t, "POST", "/auth/login", map[string]string{
			"username": "gina", "password": "wrong",
		}, nil)
		assert.Equal(t, 401, code)
	}

	code, body := env.do(t, "POST", "/auth/login", map[string]string{
		"username": "gina", "password": "wrong",
	}, nil)
	assert.Equal(t, 403, code)
	assert.Contains(t, body["error"], "locked")

	// The correct password no longer helps.
	code, _ = env.do(t, "POST", "/auth/login", map[string]string{
		"username": "gina", "password": "pw-gina",
	}, nil)
	assert.Equal(t, 403, code)
}

func TestLoginUnknownUserIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "hana", "hana@example.com", "pw-hana", "user")

	codeUnknown, bodyUnknown := env.do(t, "POST", "/auth/login", map[string]string{
		"username": "nobody", "password": "whatever",
	}, nil)
	codeWrong, bodyWrong := env.do(t, "POST", "/auth/login", map[string]string{
		"username": "hana", "password": "wrong",
	}, nil)

	assert.Equal(t, codeWrong, codeUnknown)
	assert.Equal(t, bodyWrong["error"], bodyUnknown["error"])
}

func TestDegradedVaultDoesNotBlockLogin(t *testing.T) {
	env := newTestEnvWithPassphrase(t, "short")
	env.register(t, "ivy", "ivy@example.com", "pw-ivy", "user")

	code, body := env.do(t, "POST", "/auth/login", map[string]string{
		"username": "ivy", "password": "pw-ivy",
	}, nil)
	require.Equal(t, 200, code)

	code, body = env.do(t, "POST", "/auth/verify-otp", map[string]string{
		"username": "ivy", "otp": env.mailer.LastCode,
	}, nil)
	require.Equal(t, 200, code)
	assert.NotEmpty(t, body["token"])
	// No attestation without a working vault, but login succeeds.
	assert.Nil(t, body["attestation"])
}

func TestRoleDefaultsToUser(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "jon", "jon@example.com", "pw-jon", "")

	user, err := env.mem.Users().FindByUsername("jon")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	assert.Equal(t, model.RoleUser, user.Role)
}
