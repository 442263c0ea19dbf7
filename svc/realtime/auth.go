package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrymomot/botfleet/pkg/logger"
	"github.com/dmitrymomot/botfleet/svc/auth"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

const maxBodySize = 64 << 10

type claimsKey struct{}

// ClaimsFromContext returns the verified token claims of an authenticated request.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	token, profile, err := h.tokens.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		h.logger.ErrorContext(r.Context(), "login failed", logger.Error(err))
		writeError(w, http.StatusBadGateway, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": profile})
}

func (h *Handler) verifyToken(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		var in tokenRequest
		_ = decodeBody(r, &in)
		token = in.Token
	}

	claims, err := h.tokens.Verify(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "user": claims})
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		claims, err := h.tokens.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func bearerToken(r *http.Request) string {
	v := r.Header.Get("Authorization")
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return ""
}

// decodeBody accepts JSON or form-encoded bodies.
func decodeBody(r *http.Request, v any) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v); err != nil {
			return errors.Join(ErrBadRequest, err)
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	switch in := v.(type) {
	case *credentials:
		in.Email = r.PostForm.Get("email")
		in.Password = r.PostForm.Get("password")
	case *tokenRequest:
		in.Token = r.PostForm.Get("token")
	}
	return nil
}
