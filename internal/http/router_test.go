package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/mail"
	"github.com/charahub/charahub/internal/service"
	"github.com/charahub/charahub/internal/store"
	"github.com/charahub/charahub/internal/store/drivers/sqlite"
	"github.com/charahub/charahub/pkg/cryptox"
	"github.com/charahub/charahub/pkg/idx"
	"github.com/charahub/charahub/pkg/jwtx"
)

type nullMailer struct{}

func (nullMailer) Send(context.Context, mail.Message) error { return nil }

type testEnv struct {
	router   *Router
	store    store.Store
	sessions *jwtx.Signer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	sessions := jwtx.NewSigner("test-session-secret-test-session", "charahub-test", time.Hour)
	logger := slog.New(slog.DiscardHandler)

	referrals := &service.ReferralService{Store: st}
	verifications := &service.VerificationService{Store: st}

	r := NewRouter(sessions, "https://charahub.test", "test", st, nil, logger)
	r.AuthService = &service.AuthService{Store: st, Sessions: sessions}
	r.SignupService = &service.SignupService{
		Store:         st,
		Referrals:     referrals,
		Verifications: verifications,
		Mailer:        nullMailer{},
		BaseURL:       "https://charahub.test",
	}
	r.VerificationService = verifications
	r.ReferralService = referrals
	r.CharacterService = &service.CharacterService{Store: st}
	r.SocialService = &service.SocialService{Store: st}
	r.LeaderboardService = &service.LeaderboardService{Store: st}
	r.ApplyRoutes()

	return &testEnv{router: r, store: st, sessions: sessions}
}

func (e *testEnv) seedUser(t *testing.T, email, password string) domain.User {
	t.Helper()

	u := domain.User{
		ID:         idx.New().String(),
		Email:      email,
		Name:       "Handler Test User",
		IsApproved: true,
	}
	if password != "" {
		hash, err := cryptox.HashPassword(password)
		require.NoError(t, err)
		u.PasswordHash = hash
	}
	require.NoError(t, e.store.Users().CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) seedCode(t *testing.T, createdBy, code string, maxUses int) domain.ReferralCode {
	t.Helper()

	rc := domain.ReferralCode{
		ID:        idx.New().String(),
		Code:      domain.NormalizeCode(code),
		CreatedBy: createdBy,
		MaxUses:   maxUses,
		IsActive:  true,
	}
	require.NoError(t, e.store.ReferralCodes().CreateReferralCode(context.Background(), rc))
	return rc
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestSignInEndpoint(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "member@example.com", "correct horse battery")

	t.Run("200 with user payload", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/signin", "", map[string]string{
			"email":    user.Email,
			"password": "correct horse battery",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		require.Equal(t, true, body["success"])
		require.NotEmpty(t, body["token"])
		got := body["user"].(map[string]any)
		require.Equal(t, user.ID, got["id"])
		require.Equal(t, user.Email, got["email"])
	})

	t.Run("400 on missing fields", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/signin", "", map[string]string{"email": user.Email})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("404 with needsSignup for unknown email", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/signin", "", map[string]string{
			"email":    "stranger@example.com",
			"password": "whatever-pass",
		})
		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeBody(t, rec)
		require.Equal(t, false, body["success"])
		require.Equal(t, true, body["needsSignup"])
	})

	t.Run("401 on wrong password", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/signin", "", map[string]string{
			"email":    user.Email,
			"password": "incorrect horse",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSignupEndpoint(t *testing.T) {
	env := newTestEnv(t)
	referrer := env.seedUser(t, "referrer@example.com", "")
	env.seedCode(t, referrer.ID, "WELCOME10", 10)

	t.Run("200 with check-your-email message", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
			"email":        "fresh@example.com",
			"name":         "Fresh Face",
			"referralCode": "welcome10",
			"password":     "hunter2-hunter2",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		require.Equal(t, true, body["success"])
		require.Contains(t, body["message"], "email")
	})

	t.Run("400 on duplicate email", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
			"email":        "fresh@example.com",
			"name":         "Fresh Again",
			"referralCode": "WELCOME10",
			"password":     "hunter2-hunter2",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("400 on unknown referral code", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
			"email":        "another@example.com",
			"name":         "Another",
			"referralCode": "NOSUCH",
			"password":     "hunter2-hunter2",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		// Property: no account row is left behind.
		_, err := env.store.Users().GetUserByEmail(context.Background(), "another@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("400 on missing fields", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"email": "x@example.com"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestVerifyEndpoint(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "pending@example.com", "")

	token, err := env.router.VerificationService.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	t.Run("redirects on success", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/auth/verify?token="+token, "", nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "https://charahub.test/dashboard?verified=1", rec.Header().Get("Location"))
	})

	t.Run("replay is 400", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/auth/verify?token="+token, "", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing token is 400", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/auth/verify", "", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReferralEndpoints(t *testing.T) {
	env := newTestEnv(t)
	referrer := env.seedUser(t, "referrer@example.com", "")
	rc := env.seedCode(t, referrer.ID, "JOINUS", 5)

	t.Run("validate returns referral id", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/referral/validate", "", map[string]string{"referralCode": "joinus"})
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		require.Equal(t, true, body["valid"])
		require.Equal(t, rc.ID, body["referralId"])
	})

	t.Run("validate unknown code is 404", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/referral/validate", "", map[string]string{"referralCode": "NOSUCH"})
		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeBody(t, rec)
		require.Equal(t, false, body["valid"])
		require.NotEmpty(t, body["error"])
	})

	t.Run("attach requires a session", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/referral/attach", "", map[string]string{"referralCode": "JOINUS"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("attach approves the account", func(t *testing.T) {
		orphan := domain.User{
			ID:         idx.New().String(),
			Email:      "oauth@example.com",
			Name:       "OAuth User",
			IsVerified: true,
		}
		require.NoError(t, env.store.Users().CreateUser(context.Background(), orphan))

		session, err := env.sessions.Sign(orphan.ID, orphan.Email, orphan.Name, true, false)
		require.NoError(t, err)

		rec := env.do(t, http.MethodPost, "/referral/attach", session, map[string]string{"referralCode": "JOINUS"})
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		require.Equal(t, true, body["approved"])

		// Second attach is a 400.
		rec = env.do(t, http.MethodPost, "/referral/attach", session, map[string]string{"referralCode": "JOINUS"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCharacterEndpoints(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "artist@example.com", "")
	session, err := env.sessions.Sign(owner.ID, owner.Email, owner.Name, true, true)
	require.NoError(t, err)

	t.Run("create requires a session", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/characters", "", map[string]string{"name": "Ember"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	var characterID string
	t.Run("create then fetch", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/characters", session, map[string]string{
			"name":    "Ember",
			"tagline": "a fox with opinions",
			"species": "fox",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		characterID = body["id"].(string)
		require.Equal(t, owner.ID, body["ownerId"])
		require.Equal(t, "public", body["visibility"])

		rec = env.do(t, http.MethodGet, "/characters/"+characterID, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("update by a stranger is 403", func(t *testing.T) {
		stranger := env.seedUser(t, "stranger@example.com", "")
		strangerSession, err := env.sessions.Sign(stranger.ID, stranger.Email, stranger.Name, true, true)
		require.NoError(t, err)

		rec := env.do(t, http.MethodPut, "/characters/"+characterID, strangerSession, map[string]string{"name": "Stolen"})
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("public listing", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/characters", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		require.Len(t, body["characters"], 1)
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.do(t, http.MethodDelete, "/characters/"+characterID, session, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodGet, "/characters/"+characterID, "", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSocialAndLeaderboardEndpoints(t *testing.T) {
	env := newTestEnv(t)
	artist := env.seedUser(t, "artist@example.com", "")
	fan := env.seedUser(t, "fan@example.com", "")
	fanSession, err := env.sessions.Sign(fan.ID, fan.Email, fan.Name, true, true)
	require.NoError(t, err)

	artistSession, err := env.sessions.Sign(artist.ID, artist.Email, artist.Name, true, true)
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/characters", artistSession, map[string]string{"name": "Ember"})
	require.Equal(t, http.StatusCreated, rec.Code)
	characterID := decodeBody(t, rec)["id"].(string)

	t.Run("follow and favorite", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/users/"+artist.ID+"/follow", fanSession, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodPost, "/characters/"+characterID+"/favorite", fanSession, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("self follow is 400", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/users/"+fan.ID+"/follow", fanSession, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("leaderboard reflects the edges", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/leaderboard", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)

		top := body["topCharacters"].([]any)
		require.Len(t, top, 1)
		require.Equal(t, characterID, top[0].(map[string]any)["characterId"])

		creators := body["topCreators"].([]any)
		require.Len(t, creators, 1)
		require.Equal(t, artist.ID, creators[0].(map[string]any)["userId"])
	})
}

func TestUploadImageMethodGate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/upload-image", "", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decodeBody(t, rec)["status"])

	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "ok", body["checks"].(map[string]any)["database"])
}
