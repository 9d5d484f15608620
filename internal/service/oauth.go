package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charahub/charahub/internal/domain"
	"github.com/charahub/charahub/internal/store"
	"github.com/charahub/charahub/pkg/idx"
	"github.com/charahub/charahub/pkg/jwtx"
	"github.com/charahub/charahub/pkg/slogx"
)

var (
	ErrUnknownProvider = errors.New("unknown oauth provider")
	ErrOAuthExchange   = errors.New("oauth code exchange failed")
)

// OAuthProvider is the external identity provider contract: endpoints plus
// client credentials. Only the authorization-code flow is supported.
type OAuthProvider struct {
	Name         string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// OAuthService is a thin pass-through to external OAuth providers. Accounts
// created here arrive verified (the provider vouched for the email) but
// unapproved; approval still requires attaching a referral code.
type OAuthService struct {
	Store      store.Store
	Sessions   *jwtx.Signer
	Providers  map[string]OAuthProvider
	HTTPClient *http.Client
}

func (s *OAuthService) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// AuthCodeURL builds the provider consent-page redirect URL.
func (s *OAuthService) AuthCodeURL(provider, state, redirectURI string) (string, error) {
	p, ok := s.Providers[provider]
	if !ok {
		return "", ErrUnknownProvider
	}

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", p.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", strings.Join(p.Scopes, " "))
	q.Set("state", state)

	return p.AuthURL + "?" + q.Encode(), nil
}

type oauthTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type oauthIdentity struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// HandleCallback exchanges the authorization code, fetches the identity,
// finds or creates the matching account, and mints a session.
func (s *OAuthService) HandleCallback(
	ctx context.Context,
	provider, code, redirectURI string,
) (domain.User, string, error) {
	log := slogx.FromContext(ctx)

	p, ok := s.Providers[provider]
	if !ok {
		return domain.User{}, "", ErrUnknownProvider
	}
	if code == "" {
		return domain.User{}, "", ErrInvalidInput
	}

	identity, err := s.fetchIdentity(ctx, p, code, redirectURI)
	if err != nil {
		log.Warn("oauth identity fetch failed",
			slog.String("provider", provider),
			slog.Any("error", err),
		)
		return domain.User{}, "", ErrOAuthExchange
	}
	if identity.Email == "" {
		return domain.User{}, "", ErrOAuthExchange
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		// Existing account, regardless of how it was created.
	case errors.Is(err, store.ErrNotFound):
		user = domain.User{
			ID:         idx.New().String(),
			Email:      identity.Email,
			Name:       identity.Name,
			IsVerified: true, // provider-verified email
			IsApproved: false,
		}
		if user.Name == "" {
			user.Name = identity.Email
		}
		if err := s.Store.Users().CreateUser(ctx, user); err != nil {
			// A concurrent callback for the same identity created it first.
			if errors.Is(err, store.ErrAlreadyExists) {
				user, err = s.Store.Users().GetUserByEmail(ctx, identity.Email)
				if err != nil {
					return domain.User{}, "", err
				}
			} else {
				return domain.User{}, "", err
			}
		} else {
			log.Info("account created via oauth",
				slog.String("user_id", user.ID),
				slog.String("provider", provider),
			)
		}
	default:
		return domain.User{}, "", err
	}

	session, err := s.Sessions.Sign(user.ID, user.Email, user.Name, user.IsVerified, user.IsApproved)
	if err != nil {
		return domain.User{}, "", err
	}

	return user, session, nil
}

func (s *OAuthService) fetchIdentity(
	ctx context.Context,
	p OAuthProvider,
	code, redirectURI string,
) (oauthIdentity, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("client_id", p.ClientID)
	form.Set("client_secret", p.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return oauthIdentity{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return oauthIdentity{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return oauthIdentity{}, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, snippet)
	}

	var token oauthTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return oauthIdentity{}, err
	}
	if token.AccessToken == "" {
		return oauthIdentity{}, errors.New("token endpoint returned no access_token")
	}

	infoReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return oauthIdentity{}, err
	}
	infoReq.Header.Set("Authorization", "Bearer "+token.AccessToken)

	infoResp, err := s.httpClient().Do(infoReq)
	if err != nil {
		return oauthIdentity{}, err
	}
	defer infoResp.Body.Close()

	if infoResp.StatusCode != http.StatusOK {
		return oauthIdentity{}, fmt.Errorf("userinfo endpoint returned %d", infoResp.StatusCode)
	}

	var identity oauthIdentity
	if err := json.NewDecoder(infoResp.Body).Decode(&identity); err != nil {
		return oauthIdentity{}, err
	}
	return identity, nil
}
