package api

import "strings"

// IsAuthExpiredMessage reports whether a failure message looks like an
// auth-expiry or authorization rejection.
//
// This is a heuristic: the backend returns free-text (often localized)
// messages rather than structured error codes, so the only available signal
// is a case-insensitive substring match against a fixed set of terms. Kept
// isolated here so the matching rules are unit-testable on their own.
func IsAuthExpiredMessage(msg string) bool {
	m := strings.ToLower(msg)
	if m == "" {
		return false
	}

	if strings.Contains(m, "unauthorized") || strings.Contains(m, "forbidden") {
		return true
	}

	if strings.Contains(m, "no autorizado") {
		return true
	}

	expired := strings.Contains(m, "expired") || strings.Contains(m, "expirad") ||
		strings.Contains(m, "vencid")

	if strings.Contains(m, "token") && (expired || strings.Contains(m, "invalid") || strings.Contains(m, "inválid")) {
		return true
	}

	if (strings.Contains(m, "session") || strings.Contains(m, "sesión") || strings.Contains(m, "sesion")) && expired {
		return true
	}

	return strings.Contains(m, "auth") && expired
}
