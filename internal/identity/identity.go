// Package identity provides anonymous per-device identity primitives.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"stepwise/internal/domain"
	"stepwise/internal/store"
)

const (
	AnonCookieName    = "stepwise_anon_id"
	TabHeaderName     = "X-Stepwise-Tab-ID"
	DefaultTabIDValue = "default"
	anonCookieMaxAge  = 30 * 24 * time.Hour
)

type contextKey int

const (
	readerIDKey contextKey = iota
	nicknameKey
	tabIDKey
)

var (
	anonIDPattern = regexp.MustCompile(`^anon_[a-f0-9]{32}$`)
	tabIDPattern  = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)
)

// WithIdentity returns a context carrying the reader identity and tab ID.
func WithIdentity(ctx context.Context, readerID, nickname, tabID string) context.Context {
	ctx = context.WithValue(ctx, readerIDKey, readerID)
	ctx = context.WithValue(ctx, nicknameKey, nickname)
	return context.WithValue(ctx, tabIDKey, tabID)
}

// ReaderIDFromContext extracts the reader ID from the request context.
func ReaderIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(readerIDKey).(string); ok {
		return v
	}
	return ""
}

// NicknameFromContext extracts the reader nickname from the request context.
func NicknameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(nicknameKey).(string); ok {
		return v
	}
	return ""
}

// TabIDFromContext extracts the browser-tab ID from the request context.
func TabIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(tabIDKey).(string); ok {
		return v
	}
	return DefaultTabIDValue
}

func generateAnonID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate anonymous id: %w", err)
	}
	return "anon_" + hex.EncodeToString(buf), nil
}

func isValidAnonID(id string) bool {
	return anonIDPattern.MatchString(id)
}

func sanitizeTabID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || !tabIDPattern.MatchString(id) {
		return DefaultTabIDValue
	}
	return id
}

func deriveNickname(readerID string) string {
	if len(readerID) > 13 {
		return "reader-" + readerID[len(readerID)-8:]
	}
	return "reader"
}

func ensureReader(ctx context.Context, repo store.Repository, readerID string) error {
	reader, err := repo.GetReader(ctx, readerID)
	if err != nil {
		return err
	}
	if reader != nil {
		return nil
	}

	now := time.Now()
	return repo.UpsertReader(ctx, &domain.Reader{
		ReaderID:   readerID,
		Nickname:   deriveNickname(readerID),
		LastSeenAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func setAnonCookie(w http.ResponseWriter, id string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AnonCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(anonCookieMaxAge.Seconds()),
		Expires:  time.Now().Add(anonCookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

func getOrCreateAnonID(w http.ResponseWriter, r *http.Request, isDev bool) (string, error) {
	if c, err := r.Cookie(AnonCookieName); err == nil && isValidAnonID(c.Value) {
		// Refresh the sliding expiry on every request.
		setAnonCookie(w, c.Value, isDev)
		return c.Value, nil
	}

	id, err := generateAnonID()
	if err != nil {
		return "", err
	}
	setAnonCookie(w, id, isDev)
	return id, nil
}

func tabIDFromRequest(r *http.Request) string {
	tid := r.Header.Get(TabHeaderName)
	if tid == "" {
		tid = r.URL.Query().Get("tab_id")
	}
	return sanitizeTabID(tid)
}

// Middleware injects anonymous per-device identity and per-tab session ID.
func Middleware(repo store.Repository, isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			readerID, err := getOrCreateAnonID(w, r, isDev)
			if err != nil {
				http.Error(w, `{"error":"failed to establish anonymous identity"}`, http.StatusInternalServerError)
				return
			}

			if err := ensureReader(r.Context(), repo, readerID); err != nil {
				http.Error(w, `{"error":"failed to initialize anonymous reader"}`, http.StatusInternalServerError)
				return
			}

			ctx := WithIdentity(r.Context(), readerID, deriveNickname(readerID), tabIDFromRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
