package audit

import "fmt"

// PasswordEvent records the outcome of a password check.
type PasswordEvent struct {
	Username string
	Success  bool
	Attempts int
}

func (e PasswordEvent) MessageID() string { return "password" }

func (e PasswordEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated with password", e.Username)
	}
	return fmt.Sprintf("%s failed password authentication (attempt %d)", e.Username, e.Attempts)
}

func (e PasswordEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e PasswordEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {"user": e.Username},
		SDIDAuth: {
			"authenticator": "password",
			"success":       fmt.Sprintf("%t", e.Success),
		},
	}
}

// LockoutEvent records an account reaching the failed-attempt threshold.
type LockoutEvent struct {
	Username string
}

func (e LockoutEvent) MessageID() string { return "lockout" }

func (e LockoutEvent) Message() string {
	return fmt.Sprintf("%s locked after repeated failed attempts", e.Username)
}

func (e LockoutEvent) Severity() Severity { return SeverityWarning }

func (e LockoutEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {"user": e.Username},
		SDIDAction:  {"operation": "lock"},
	}
}

// UnlockEvent records an administrative unlock.
type UnlockEvent struct {
	Username string
}

func (e UnlockEvent) MessageID() string { return "unlock" }

func (e UnlockEvent) Message() string {
	return fmt.Sprintf("%s unlocked by an administrator", e.Username)
}

func (e UnlockEvent) Severity() Severity { return SeverityNotice }

func (e UnlockEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {"user": e.Username},
		SDIDAction:  {"operation": "unlock"},
	}
}

// OTPIssuedEvent records a one-time code being issued.
type OTPIssuedEvent struct {
	Username string
	Purpose  string
}

func (e OTPIssuedEvent) MessageID() string { return "otp-issued" }

func (e OTPIssuedEvent) Message() string {
	return fmt.Sprintf("one-time code issued to %s for %s", e.Username, e.Purpose)
}

func (e OTPIssuedEvent) Severity() Severity { return SeverityInfo }

func (e OTPIssuedEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {"user": e.Username},
		SDIDAction:  {"operation": "otp-issue", "purpose": e.Purpose},
	}
}

// OTPVerifyEvent records a one-time code verification attempt.
type OTPVerifyEvent struct {
	Username string
	Purpose  string
	Result   string
}

func (e OTPVerifyEvent) MessageID() string { return "otp-verify" }

func (e OTPVerifyEvent) Message() string {
	return fmt.Sprintf("one-time code for %s verified as %s", e.Username, e.Result)
}

func (e OTPVerifyEvent) Severity() Severity {
	if e.Result == "valid" {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e OTPVerifyEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {"user": e.Username},
		SDIDAction:  {"operation": "otp-verify", "purpose": e.Purpose, "result": e.Result},
	}
}

// SessionEvent records a session token being issued.
type SessionEvent struct {
	Username string
}

func (e SessionEvent) MessageID() string { return "session" }

func (e SessionEvent) Message() string {
	return fmt.Sprintf("session issued for %s", e.Username)
}

func (e SessionEvent) Severity() Severity { return SeverityInfo }

func (e SessionEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {"user": e.Username},
		SDIDAction:  {"operation": "session-issue"},
	}
}

// SignEvent records data being signed and persisted.
type SignEvent struct {
	Username string
	DataType string
}

func (e SignEvent) MessageID() string { return "sign" }

func (e SignEvent) Message() string {
	return fmt.Sprintf("%s signed and stored a %s record", e.Username, e.DataType)
}

func (e SignEvent) Severity() Severity { return SeverityInfo }

func (e SignEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {"user": e.Username},
		SDIDAction:  {"operation": "sign", "type": e.DataType},
	}
}

// ReleaseEvent records protected data being decrypted and released.
type ReleaseEvent struct {
	Username string
	Resource string
}

func (e ReleaseEvent) MessageID() string { return "release" }

func (e ReleaseEvent) Message() string {
	return fmt.Sprintf("%s fetched %s", e.Username, e.Resource)
}

func (e ReleaseEvent) Severity() Severity { return SeverityInfo }

func (e ReleaseEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {"user": e.Username},
		SDIDAction:  {"operation": "release", "resource": e.Resource},
	}
}
