package web

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	spotifyapi "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/brunovale/go-spotify-match/internal/errs"
	"github.com/brunovale/go-spotify-match/internal/match"
	"github.com/brunovale/go-spotify-match/internal/session"
	"github.com/brunovale/go-spotify-match/internal/spotify"
)

const stateCookieName = "oauth_state"

// Handlers contains the HTTP handlers for the match application.
type Handlers struct {
	auth     *spotifyauth.Authenticator
	sessions *session.Store
	service  *match.Service
	logger   *log.Logger
}

// NewHandlers creates a Handlers instance.
func NewHandlers(auth *spotifyauth.Authenticator, sessions *session.Store, service *match.Service, logger *log.Logger) *Handlers {
	return &Handlers{
		auth:     auth,
		sessions: sessions,
		service:  service,
		logger:   logger,
	}
}

// Home serves the embedded front page (GET /).
func (h *Handlers) Home(staticFS fs.FS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := fs.ReadFile(staticFS, "index.html")
		if err != nil {
			http.Error(w, "page not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}
}

// Login initiates the OAuth flow for one user slot
// (GET /match/login/{slot}).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	slot, err := session.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_user_slot", err.Error())
		return
	}

	sess := h.sessions.Ensure(w, r)

	state, err := generateOAuthState()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "failed to generate state")
		return
	}

	// State cookie guards the callback against CSRF; the pending slot tells
	// the callback which user position this login belongs to.
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})
	h.sessions.SetPendingSlot(sess.ID, slot)

	h.logger.Info("redirecting user to provider auth", "slot", slot)
	http.Redirect(w, r, h.auth.AuthURL(state, spotifyauth.ShowDialog), http.StatusTemporaryRedirect)
}

// Callback completes the OAuth flow (GET /match/callback).
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.FromRequest(r)
	if sess == nil {
		http.Redirect(w, r, "/?error=session_unavailable", http.StatusTemporaryRedirect)
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	clearStateCookie(w)
	if err != nil || r.URL.Query().Get("state") != stateCookie.Value {
		http.Redirect(w, r, "/?error=state_mismatch", http.StatusTemporaryRedirect)
		return
	}

	slot, ok := h.sessions.TakePendingSlot(sess.ID)
	if !ok {
		http.Redirect(w, r, "/?error=user_identification_failed", http.StatusTemporaryRedirect)
		return
	}

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		h.logger.Warn("provider auth callback error", "err", errMsg)
		http.Redirect(w, r, "/?error=auth_failed", http.StatusTemporaryRedirect)
		return
	}

	token, err := h.auth.Token(r.Context(), stateCookie.Value, r)
	if err != nil {
		h.logger.Error("token exchange failed", "err", err)
		h.sessions.ClearSlot(sess.ID, slot)
		http.Redirect(w, r, "/?error=auth_failed", http.StatusTemporaryRedirect)
		return
	}

	// Fetch the profile snapshot once at login; it lives and dies with the
	// slot's credential.
	client := spotifyapi.New(h.auth.Client(r.Context(), token))
	user, err := client.CurrentUser(r.Context())
	if err != nil {
		h.logger.Error("profile fetch failed", "err", err)
		h.sessions.ClearSlot(sess.ID, slot)
		http.Redirect(w, r, "/?error=auth_failed", http.StatusTemporaryRedirect)
		return
	}

	h.sessions.SetCredential(sess.ID, slot, token)
	h.sessions.SetProfile(sess.ID, slot, &session.Profile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		ImageURL:    largestUserImage(user.Images),
		Country:     user.Country,
		Product:     user.Product,
		URI:         string(user.URI),
	})

	h.logger.Info("user authenticated", "slot", slot, "user", user.DisplayName)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// AuthStatus reports per-slot login state (GET /match/auth/status).
func (h *Handlers) AuthStatus(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.FromRequest(r)
	if sess == nil {
		writeJSON(w, http.StatusOK, match.Status{})
		return
	}
	writeJSON(w, http.StatusOK, h.service.AuthStatus(sess.ID))
}

// Calculate runs the compatibility analysis (GET /match/calculate).
func (h *Handlers) Calculate(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.FromRequest(r)
	if sess == nil {
		writeJSONError(w, http.StatusUnauthorized, "authentication_required",
			"No active session. Log in both users first.")
		return
	}

	timeRange, err := spotify.ParseTimeRange(r.URL.Query().Get("time_range"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_time_range", err.Error())
		return
	}

	result, err := h.service.Calculate(r.Context(), sess.ID, timeRange)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CreatePlaylist materializes the cached analysis into a playlist
// (POST /match/create-playlist).
func (h *Handlers) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.FromRequest(r)
	if sess == nil {
		writeJSONError(w, http.StatusUnauthorized, "authentication_required",
			"No active session. Log in both users first.")
		return
	}

	result, err := h.service.CreatePlaylist(r.Context(), sess.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Logout clears the whole session (POST /match/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := h.sessions.FromRequest(r); sess != nil {
		h.sessions.Delete(sess.ID)
	}
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// writeError translates engine error kinds into status codes and JSON
// bodies. The engine classifies; this layer renders.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var upstream *errs.UpstreamError

	switch {
	case errors.Is(err, errs.ErrAuthRequired), errors.Is(err, errs.ErrTokenRefreshFailed):
		writeJSONError(w, http.StatusUnauthorized, "authentication_required",
			"Session invalid or expired. Log in again.")
	case errors.Is(err, errs.ErrRateLimited):
		writeJSONError(w, http.StatusTooManyRequests, "rate_limit_exceeded",
			"Provider request limit exceeded. Wait a moment and try again.")
	case errors.Is(err, errs.ErrUpstreamTimeout):
		writeJSONError(w, http.StatusGatewayTimeout, "upstream_timeout",
			"The provider took too long to respond. Try again.")
	case errors.Is(err, errs.ErrMissingInput):
		writeJSONError(w, http.StatusBadRequest, "missing_tracks",
			"No analysis available for this session. Recalculate the match first.")
	case errors.As(err, &upstream):
		h.logger.Error("upstream failure", "endpoint", upstream.Endpoint, "err", err)
		writeJSONError(w, http.StatusBadGateway, "upstream_error",
			"Could not fetch data from the provider. Try again later.")
	default:
		h.logger.Error("internal error", "err", err)
		writeJSONError(w, http.StatusInternalServerError, "internal_server_error",
			"Internal error while calculating compatibility.")
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

func largestUserImage(images []spotifyapi.Image) string {
	best := ""
	bestWidth := spotifyapi.Numeric(-1)
	for _, img := range images {
		if img.Width > bestWidth {
			best = img.URL
			bestWidth = img.Width
		}
	}
	return best
}

// generateOAuthState creates a random state string for OAuth.
func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
