package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/obsidianstack/framewatch/internal/config"
)

// ModeAPIKey is the only mode that enforces a check.
const ModeAPIKey = "apikey"

// enabled reports whether cfg demands a key and returns the resolved value.
func enabled(cfg config.AuthConfig) (string, bool) {
	if cfg.Mode != ModeAPIKey {
		return "", false
	}
	key := cfg.Key()
	return key, key != ""
}

func keyMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// Middleware wraps next with an API key check on cfg.Header.
// Rejected requests get 401 with a JSON error body.
func Middleware(cfg config.AuthConfig) func(http.Handler) http.Handler {
	key, on := enabled(cfg)
	return func(next http.Handler) http.Handler {
		if !on {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !keyMatches(r.Header.Get(cfg.Header), key) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// APIKeyInterceptor returns a gRPC UnaryServerInterceptor that enforces API key
// authentication on every incoming call.
//
// gRPC lowercases metadata keys, so cfg.Header is matched case-insensitively.
func APIKeyInterceptor(cfg config.AuthConfig) grpc.UnaryServerInterceptor {
	key, on := enabled(cfg)
	header := strings.ToLower(cfg.Header)
	return func(
		ctx context.Context,
		req interface{},
		_ *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !on {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		vals := md.Get(header)
		if len(vals) == 0 || !keyMatches(vals[0], key) {
			return nil, status.Error(codes.Unauthenticated, "invalid api key")
		}

		return handler(ctx, req)
	}
}
