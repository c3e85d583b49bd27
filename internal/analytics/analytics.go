package analytics

import (
	"context"
	"net/http"
	"strings"
)

type CtxKey string

const (
	ctxEnvelopeKey CtxKey = "analytics_envelope"
)

// Envelope is what we store with every event.
type Envelope struct {
	SessionID      string
	Platform       string
	AppVersion     string
	DeviceLocale   string
	SourceEventKey string
}

// FromRequest extracts event envelope fields from request.
func FromRequest(r *http.Request) Envelope {
	platform := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Platform")))
	switch platform {
	case "web", "ios", "android":
	default:
		platform = "unknown"
	}

	locale := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if locale == "" {
		locale = strings.TrimSpace(r.Header.Get("X-Device-Locale"))
	}

	return Envelope{
		SessionID:      strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:       platform,
		AppVersion:     strings.TrimSpace(r.Header.Get("X-App-Version")),
		DeviceLocale:   locale,
		SourceEventKey: SourceEventKeyFromRequest(r),
	}
}

// Client-provided idempotency key (optional).
// If present and duplicated, the event is stored once.
func SourceEventKeyFromRequest(r *http.Request) string {
	k := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if k != "" {
		return k
	}
	return strings.TrimSpace(r.Header.Get("X-Source-Event-Key"))
}

func WithEnvelope(ctx context.Context, env Envelope) context.Context {
	return context.WithValue(ctx, ctxEnvelopeKey, env)
}

func EnvelopeFromContext(ctx context.Context) (Envelope, bool) {
	env, ok := ctx.Value(ctxEnvelopeKey).(Envelope)
	return env, ok
}

// Middleware attaches the request envelope so deeper layers can record
// events without seeing the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithEnvelope(r.Context(), FromRequest(r))))
	})
}
