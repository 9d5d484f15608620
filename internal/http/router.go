package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/charahub/charahub/internal/images"
	"github.com/charahub/charahub/internal/service"
	"github.com/charahub/charahub/internal/store"
	"github.com/charahub/charahub/pkg/httpx"
	"github.com/charahub/charahub/pkg/jwtx"
	"github.com/charahub/charahub/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	sessions      *jwtx.Signer
	publicBaseURL string
	buildVersion  string
	startTime     time.Time
	logger        *slog.Logger

	store store.Store
	cache *redis.Client

	AuthService         *service.AuthService
	SignupService       *service.SignupService
	VerificationService *service.VerificationService
	ReferralService     *service.ReferralService
	OAuthService        *service.OAuthService
	CharacterService    *service.CharacterService
	SocialService       *service.SocialService
	LeaderboardService  *service.LeaderboardService
	Images              *images.Client
}

func NewRouter(
	sessions *jwtx.Signer,
	publicBaseURL, buildVersion string,
	st store.Store,
	cache *redis.Client,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		sessions:      sessions,
		publicBaseURL: publicBaseURL,
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		store:         st,
		cache:         cache,
		logger:        logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerReferrals()
	r.registerCharacters()
	r.registerSocial()
	r.registerDiscovery()
	r.registerUploads()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /auth/signin - strict rate limit by IP (authentication attempts)
	signin := &SignInHandler{AuthService: r.AuthService}
	r.Mux.Handle("POST /auth/signin",
		httpx.Chain(signin,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/signup - strict rate limit by IP (public account creation)
	signup := &SignupHandler{SignupService: r.SignupService}
	r.Mux.Handle("POST /auth/signup",
		httpx.Chain(signup,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /auth/verify - clicked from email, moderate by IP
	verify := &VerifyHandler{
		VerificationService: r.VerificationService,
		RedirectURL:         r.publicBaseURL + "/dashboard?verified=1",
	}
	r.Mux.Handle("GET /auth/verify",
		httpx.Chain(verify,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	oauth := &OAuthHandler{OAuthService: r.OAuthService, PublicBaseURL: r.publicBaseURL}
	r.Mux.Handle("GET /auth/oauth/{provider}",
		httpx.Chain(http.HandlerFunc(oauth.HandleStart),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /auth/oauth/{provider}/callback",
		httpx.Chain(http.HandlerFunc(oauth.HandleCallback),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerReferrals() {
	h := &ReferralHandler{ReferralService: r.ReferralService}

	// POST /referral/validate - public pre-signup check, strict by IP so
	// codes cannot be enumerated.
	r.Mux.Handle("POST /referral/validate",
		httpx.Chain(http.HandlerFunc(h.HandleValidate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /referral/attach - authenticated, strict by user
	r.Mux.Handle("POST /referral/attach",
		httpx.Chain(http.HandlerFunc(h.HandleAttach),
			httpx.AuthnMiddleware(r.sessions),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)

	// POST /referral/mint - authenticated, moderate by user
	r.Mux.Handle("POST /referral/mint",
		httpx.Chain(http.HandlerFunc(h.HandleMint),
			httpx.AuthnMiddleware(r.sessions),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerCharacters() {
	h := &CharactersHandler{CharacterService: r.CharacterService}

	// Reads are public; an optional session widens visibility to unlisted
	// profiles owned by the viewer.
	r.Mux.Handle("GET /characters",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.OptionalAuthnMiddleware(r.sessions),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /characters/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.OptionalAuthnMiddleware(r.sessions),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// Mutations require a session.
	r.Mux.Handle("POST /characters",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.AuthnMiddleware(r.sessions),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /characters/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			httpx.AuthnMiddleware(r.sessions),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /characters/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			httpx.AuthnMiddleware(r.sessions),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSocial() {
	h := &SocialHandler{SocialService: r.SocialService}

	r.Mux.Handle("POST /users/{id}/follow",
		httpx.Chain(http.HandlerFunc(h.HandleFollow),
			httpx.AuthnMiddleware(r.sessions),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /users/{id}/follow",
		httpx.Chain(http.HandlerFunc(h.HandleUnfollow),
			httpx.AuthnMiddleware(r.sessions),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /characters/{id}/favorite",
		httpx.Chain(http.HandlerFunc(h.HandleFavorite),
			httpx.AuthnMiddleware(r.sessions),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /characters/{id}/favorite",
		httpx.Chain(http.HandlerFunc(h.HandleUnfavorite),
			httpx.AuthnMiddleware(r.sessions),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerDiscovery() {
	h := &LeaderboardHandler{LeaderboardService: r.LeaderboardService}

	r.Mux.Handle("GET /leaderboard",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerUploads() {
	h := &UploadImageHandler{Images: r.Images}

	// POST only; the mux answers GET /upload-image with 405.
	r.Mux.Handle("POST /upload-image",
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.sessions),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.cache),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
