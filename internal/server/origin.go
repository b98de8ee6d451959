// Package server normalizes and validates HTTP origins for WebSocket
// upgrade requests to enforce configured access control.
package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// originPolicy decides which browser origins may upgrade. Requests without
// an Origin header are always allowed: only browsers send one, and the
// check exists to stop cross-site WebSocket hijacking, not native clients.
type originPolicy struct {
	log      *slog.Logger
	allowAll bool
	allowed  map[string]struct{}
}

func newOriginPolicy(origins []string, log *slog.Logger) *originPolicy {
	normalized, allowAll := normalizeOrigins(origins, log)

	allowed := make(map[string]struct{}, len(normalized))
	for _, origin := range normalized {
		allowed[origin] = struct{}{}
	}

	return &originPolicy{
		log:      log,
		allowAll: allowAll,
		allowed:  allowed,
	}
}

func (op *originPolicy) check(r *http.Request) bool {
	originHeader := r.Header.Get("Origin")
	if originHeader == "" {
		return true
	}

	if op.allowAll {
		return true
	}

	normalized, ok := normalizeOrigin(originHeader)
	if ok {
		if _, exists := op.allowed[normalized]; exists {
			return true
		}
	}

	op.log.Warn("blocked upgrade from disallowed origin",
		"origin", originHeader, "remote", r.RemoteAddr)
	return false
}

func normalizeOrigins(origins []string, log *slog.Logger) ([]string, bool) {
	if len(origins) == 0 {
		return nil, false
	}

	normalized := make([]string, 0, len(origins))
	allowAll := false

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}

		if trimmed == "*" {
			allowAll = true
			continue
		}

		normalizedOrigin, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn("ignoring invalid origin in configuration", "origin", origin)
			continue
		}

		normalized = append(normalized, normalizedOrigin)
	}

	return normalized, allowAll
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}

	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}

	normalized := strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host)
	return normalized, true
}
