package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sundialhq/sundial/internal/service"
	"github.com/sundialhq/sundial/internal/store"
	"github.com/sundialhq/sundial/pkg/httpx"
	"github.com/sundialhq/sundial/pkg/jwtx"
	"github.com/sundialhq/sundial/pkg/slogx"
)

// csrfExemptPaths skip the double-submit check: they either establish the
// session (and thus the CSRF cookie) or carry no ambient authority.
var csrfExemptPaths = []string{
	"/api/auth/login",
	"/api/auth/register",
	"/api/auth/csrf",
	"/api/health",
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec     *jwtx.Codec
	transport httpx.Transport
	cookies   *CookieWriter
	logger    *slog.Logger

	store store.Store

	UserService    *service.UserService
	SessionService *service.SessionService
	InviteService  *service.InviteService
	EventService   *service.EventService
	AssistService  *service.AssistService
	Mailer         *service.Mailer
}

func NewRouter(
	codec *jwtx.Codec,
	transport httpx.Transport,
	cookies *CookieWriter,
	clientOrigin string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:       http.NewServeMux(),
		codec:     codec,
		transport: transport,
		cookies:   cookies,
		store:     st,
		logger:    logger,
	}

	// Global middleware chain. The CSRF guard only exists in cookie mode:
	// bearer clients carry no ambient credentials to forge.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Metrics(),
		httpx.CORS(clientOrigin),
	}
	if transport == httpx.TransportCookie {
		r.middlewares = append(r.middlewares, httpx.CSRFGuard(csrfExemptPaths...))
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerInvites()
	r.registerEvents()
	r.registerAssist()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Users:     r.UserService,
		Sessions:  r.SessionService,
		Events:    r.EventService,
		Transport: r.transport,
		Cookies:   r.cookies,
	}

	// Credential endpoints get the strict profile to slow brute force.
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Logout works with or without a live session.
	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.OptionalAuth(r.codec, r.transport),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("GET /api/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.RequireAuth(r.codec, r.transport),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// CSRF bootstrap only exists in cookie mode; bearer mode has no guard.
	if r.transport == httpx.TransportCookie {
		r.Mux.Handle("GET /api/auth/csrf",
			httpx.Chain(http.HandlerFunc(h.HandleCSRF),
				httpx.RateLimitByIP(httpx.LenientLimit),
			),
		)
	}
}

func (r *Router) registerInvites() {
	h := &InviteHandler{
		Invites:   r.InviteService,
		Users:     r.UserService,
		Sessions:  r.SessionService,
		Events:    r.EventService,
		Mailer:    r.Mailer,
		Transport: r.transport,
		Cookies:   r.cookies,
	}

	r.Mux.Handle("POST /api/invites/create",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RequireAuth(r.codec, r.transport),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Accept is a signup path for anonymous callers, so strict by IP.
	r.Mux.Handle("POST /api/invites/accept",
		httpx.Chain(http.HandlerFunc(h.HandleAccept),
			httpx.OptionalAuth(r.codec, r.transport),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerEvents() {
	h := &EventHandler{Events: r.EventService}

	requireAuth := httpx.RequireAuth(r.codec, r.transport)

	r.Mux.Handle("GET /api/events",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			requireAuth,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /api/events",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			requireAuth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /api/events/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			requireAuth,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PUT /api/events/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			requireAuth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /api/events/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			requireAuth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAssist() {
	h := &AssistHandler{Assist: r.AssistService}

	requireAuth := httpx.RequireAuth(r.codec, r.transport)

	// Assist endpoints call out to a paid upstream, so writes stay moderate.
	r.Mux.Handle("POST /api/assist/improve-description",
		httpx.Chain(http.HandlerFunc(h.HandleImproveDescription),
			requireAuth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/assist/generate-agenda",
		httpx.Chain(http.HandlerFunc(h.HandleGenerateAgenda),
			requireAuth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/assist/smart-suggestions",
		httpx.Chain(http.HandlerFunc(h.HandleSmartSuggestions),
			requireAuth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/assist/conflict-check",
		httpx.Chain(http.HandlerFunc(h.HandleConflictCheck),
			requireAuth,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /api/health",
		httpx.Chain(&HealthHandler{Store: r.store},
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics", promhttp.Handler())
}
