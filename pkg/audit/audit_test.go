package audit

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
)

func TestLogFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetWriter(&buf)

	logger.Log(PasswordEvent{Username: "alice", Success: true})

	line := buf.String()
	// <pri>1 timestamp hostname app-name pid msgid sd msg
	// facility 10, severity info(6) => 86
	pattern := `^<86>1 \d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z \S+ securelogin \d+ password \[`
	if ok, _ := regexp.MatchString(pattern, line); !ok {
		t.Errorf("log line does not match RFC 5424 layout: %q", line)
	}
	if !strings.Contains(line, "alice successfully authenticated with password") {
		t.Errorf("missing message text: %q", line)
	}
	if !strings.Contains(line, `user="alice"`) {
		t.Errorf("missing structured data: %q", line)
	}
}

func TestFailedPasswordSeverity(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetWriter(&buf)

	logger.Log(PasswordEvent{Username: "bob", Success: false, Attempts: 2})

	// facility 10, severity warning(4) => 84
	if !strings.HasPrefix(buf.String(), "<84>1 ") {
		t.Errorf("expected warning priority, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "attempt 2") {
		t.Errorf("attempt count missing: %q", buf.String())
	}
}

func TestEscapeSDValue(t *testing.T) {
	cases := map[string]string{
		`plain`:        `"plain"`,
		`with"quote`:   `"with\"quote"`,
		`back\slash`:   `"back\\slash"`,
		`brack]et`:     `"brack\]et"`,
	}
	for in, want := range cases {
		if got := escapeSDValue(in); got != want {
			t.Errorf("escapeSDValue(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestEventMessages(t *testing.T) {
	cases := []struct {
		event Event
		id    string
		want  string
	}{
		{LockoutEvent{Username: "eve"}, "lockout", "eve locked after repeated failed attempts"},
		{UnlockEvent{Username: "eve"}, "unlock", "eve unlocked by an administrator"},
		{OTPIssuedEvent{Username: "dan", Purpose: "login"}, "otp-issued", "one-time code issued to dan for login"},
		{OTPVerifyEvent{Username: "dan", Purpose: "login", Result: "expired"}, "otp-verify", "one-time code for dan verified as expired"},
		{SessionEvent{Username: "dan"}, "session", "session issued for dan"},
		{SignEvent{Username: "ada", DataType: "user-data"}, "sign", "ada signed and stored a user-data record"},
		{ReleaseEvent{Username: "ada", Resource: "secure-message"}, "release", "ada fetched secure-message"},
	}
	for _, tc := range cases {
		if tc.event.MessageID() != tc.id {
			t.Errorf("%T message id = %q, want %q", tc.event, tc.event.MessageID(), tc.id)
		}
		if tc.event.Message() != tc.want {
			t.Errorf("%T message = %q, want %q", tc.event, tc.event.Message(), tc.want)
		}
	}
}
