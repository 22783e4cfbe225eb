package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/bizops/internal/metrics"
	"github.com/atinyakov/bizops/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the sandbox
// API.
//
// Routes:
//
//	POST   /api/auth/send-otp               → authHandler.SendOTP (rate limited)
//	POST   /api/auth/otp-verify             → authHandler.VerifyOTP (rate limited)
//	GET    /api/auth/profile                → authHandler.Profile
//	POST   /api/employee/all-list           → businessHandler.ListEmployees
//	POST   /api/employee/add                → businessHandler.AddEmployee
//	PUT    /api/employee/update/{id}        → businessHandler.UpdateEmployee
//	DELETE /api/employee/delete/{id}        → businessHandler.DeleteEmployee
//	POST   /api/employee/attendance         → businessHandler.Attendance
//	POST   /api/employee/mark-attendance    → businessHandler.MarkAttendance
//	POST   /api/hrm/companies/list          → businessHandler.ListCompanies
//	POST   /api/hrm/companies/add           → businessHandler.AddCompany
//	PUT    /api/hrm/companies/update/{id}   → businessHandler.UpdateCompany
//	POST   /api/invoice/list                → businessHandler.ListInvoices
//	POST   /api/invoice/create              → businessHandler.CreateInvoice
//	POST   /api/gym/members                 → businessHandler.ListMembers
//	POST   /api/gym/members/add             → businessHandler.AddMember
//	GET    /metrics                         → Prometheus exposition
//
// Everything outside /api/auth/send-otp and /api/auth/otp-verify requires a
// bearer token.
func NewRouter(
	authHandler *AuthHandler,
	businessHandler *BusinessHandler,
	verifier middleware.TokenVerifier,
	limiter *middleware.RateLimiter,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter.Handler)
			}
			r.Post("/auth/send-otp", authHandler.SendOTP)
			r.Post("/auth/otp-verify", authHandler.VerifyOTP)
		})

		// Protected group: requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(verifier, logger))

			r.Get("/auth/profile", authHandler.Profile)

			r.Route("/employee", func(r chi.Router) {
				r.Post("/all-list", businessHandler.ListEmployees)
				r.Post("/add", businessHandler.AddEmployee)
				r.Put("/update/{id}", businessHandler.UpdateEmployee)
				r.Delete("/delete/{id}", businessHandler.DeleteEmployee)
				r.Post("/attendance", businessHandler.Attendance)
				r.Post("/mark-attendance", businessHandler.MarkAttendance)
			})

			r.Route("/hrm/companies", func(r chi.Router) {
				r.Post("/list", businessHandler.ListCompanies)
				r.Post("/add", businessHandler.AddCompany)
				r.Put("/update/{id}", businessHandler.UpdateCompany)
			})

			r.Route("/invoice", func(r chi.Router) {
				r.Post("/list", businessHandler.ListInvoices)
				r.Post("/create", businessHandler.CreateInvoice)
			})

			r.Route("/gym", func(r chi.Router) {
				r.Post("/members", businessHandler.ListMembers)
				r.Post("/members/add", businessHandler.AddMember)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeFail(w, http.StatusNotFound, "Not found")
	})

	return r
}
