package logger

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"credential",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// MaxValueRunes is the longest string attribute value written as is.
const MaxValueRunes = 256

// clippedSuffix marks a clipped string value.
const clippedSuffix = "...[clipped]"

// redactSensitive redacts string attributes whose key suggests a secret.
// Record attributes are user data and may well be named "password".
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		if IsSensitiveKey(a.Key) && a.Value.String() != "" {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// clipLong shortens string values longer than MaxValueRunes.
func clipLong(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if s := a.Value.String(); utf8.RuneCountInString(s) > MaxValueRunes {
			return slog.String(a.Key, Clip(s))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = clipLong(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}
	return a
}

// Clip returns s cut to MaxValueRunes runes plus a marker, or s itself
// when it is short enough.
func Clip(s string) string {
	if utf8.RuneCountInString(s) <= MaxValueRunes {
		return s
	}
	return string([]rune(s)[:MaxValueRunes]) + clippedSuffix
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
