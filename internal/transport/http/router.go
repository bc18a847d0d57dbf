package http

import (
	"context"
	"net/http"

	"github.com/go-account-api/internal/application/address"
	"github.com/go-account-api/internal/application/profile"
	"github.com/go-account-api/internal/application/user"
	"github.com/go-account-api/internal/application/verification"
	"github.com/go-account-api/internal/config"
	"github.com/go-account-api/internal/domain"
	jwtinfra "github.com/go-account-api/internal/infrastructure/jwt"
	"github.com/go-account-api/internal/transport/http/handler"
	appmiddleware "github.com/go-account-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const verifyLimitMessage = "Too many OTP verification attempts. Try again later."

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	Identities  IdentityRepository
	Addresses   AddressRepository
	Profiles    ProfileRepository
	OTPProvider verification.Provider
	// VerifyWindow backs the verify-otp limiter. Nil keeps the window in memory.
	VerifyWindow appmiddleware.WindowStore
	JWTProvider  *jwtinfra.Provider // optional
	Logger       *zerolog.Logger
}

// NewRouter builds and returns the application router. Background limiter
// goroutines stop when ctx is cancelled.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(appmiddleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := func(next http.Handler) http.Handler { return next }
	ownerMw := authMw
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
		ownerMw = appmiddleware.OptionalAuth(deps.JWTProvider)
	}

	// 5 requests/second, burst of 10 on the public wizard endpoints.
	publicRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	window := deps.VerifyWindow
	var memWindow *appmiddleware.MemoryWindowStore
	if window == nil {
		memWindow = appmiddleware.NewMemoryWindowStore(cfg.VerifyRateWindow)
		window = memWindow
	}
	verifyRL := appmiddleware.NewWindowLimiter(window, cfg.VerifyRateLimit, cfg.VerifyRateWindow, verifyLimitMessage)

	go func() {
		<-ctx.Done()
		publicRL.Close()
		if memWindow != nil {
			memWindow.Close()
		}
	}()

	svcDeps := verification.ServiceDeps{
		Store:    deps.Identities,
		Provider: deps.OTPProvider,
		Config:   verification.Config{CountryCode: cfg.OTPCountryCode, Channel: domain.Channel(cfg.OTPChannel)},
		Logger:   log,
	}
	if deps.JWTProvider != nil {
		svcDeps.Signer = deps.JWTProvider
	}

	verifyH := handler.NewVerificationHandler(verification.NewService(svcDeps))
	userH := handler.NewUserHandler(user.NewService(deps.Identities))
	addressH := handler.NewAddressHandler(address.NewService(deps.Addresses))
	profileH := handler.NewProfileHandler(profile.NewService(deps.Profiles))
	healthH := handler.NewHealthHandler()

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		// ── Login wizard (public) ────────────────────────────────────────────
		r.Route("/auth", func(r chi.Router) {
			r.With(publicRL.Limit).Post("/check-email", verifyH.CheckEmail)
			r.With(publicRL.Limit).Post("/submit-phone", verifyH.SubmitPhone)
			r.With(publicRL.Limit).Post("/send-otp", verifyH.SendOTP)
			r.With(verifyRL.Limit).Post("/verify-otp", verifyH.VerifyOTP)

			r.Group(func(r chi.Router) {
				r.Use(authMw)
				r.Get("/users", userH.List)
				r.Get("/users/{id}", userH.Get)
			})
		})

		// ── Address book, scoped to the bearer when a token is sent ──────────
		r.Route("/addresses", func(r chi.Router) {
			r.Use(ownerMw)
			r.Post("/", addressH.Create)
			r.Get("/", addressH.List)
			r.Get("/{id}", addressH.Get)
			r.Put("/{id}", addressH.Update)
			r.Delete("/{id}", addressH.Delete)
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Post("/", profileH.Create)
			r.Get("/", profileH.List)
			r.Get("/{id}", profileH.Get)
			r.Put("/{id}", profileH.Update)
			r.Delete("/{id}", profileH.Delete)
		})
	})

	return r
}
