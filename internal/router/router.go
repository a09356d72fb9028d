package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/certify-api/internal/config"
	"github.com/noah-isme/certify-api/internal/handler"
	"github.com/noah-isme/certify-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CourseHandler      *handler.CourseHandler
	AssignmentHandler  *handler.AssignmentHandler
	SubmissionHandler  *handler.SubmissionHandler
	EvaluationHandler  *handler.EvaluationHandler
	EnrollmentHandler  *handler.EnrollmentHandler
	CertificateHandler *handler.CertificateHandler
	ResultsHandler     *handler.ResultsHandler
	UploadHandler      *handler.UploadHandler
	DoubtHandler       *handler.DoubtHandler
	AnalyticsHandler   *handler.AnalyticsHandler
	DashboardHandler   *handler.DashboardHandler
	UserHandler        *handler.UserHandler
	VerifierHandler    *handler.VerifierRequestHandler
	HealthProbes       map[string]handler.HealthProbe

	JWTMiddleware         fiber.Handler
	OptionalJWTMiddleware fiber.Handler
	VerifyLimiter         fiber.Handler
	SubmitLimiter         fiber.Handler
	ApplyLimiter          fiber.Handler
	ExposeMetrics         bool
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	if deps.ExposeMetrics {
		app.Get("/metrics", observability.MetricsHandler())
	}

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	jwtMiddleware := orNoop(deps.JWTMiddleware)
	optionalJWT := orNoop(deps.OptionalJWTMiddleware)

	if deps.CourseHandler != nil {
		courses := api.Group("/courses", jwtMiddleware)
		if deps.EnrollmentHandler != nil {
			deps.EnrollmentHandler.RegisterCourseRoutes(courses)
		}
		if deps.EvaluationHandler != nil {
			deps.EvaluationHandler.RegisterCourseRoutes(courses)
		}
		if deps.ResultsHandler != nil {
			deps.ResultsHandler.RegisterCourseRoutes(courses)
		}
		if deps.DoubtHandler != nil {
			deps.DoubtHandler.RegisterCourseRoutes(courses)
		}
		deps.CourseHandler.Register(courses)
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware)
		if deps.SubmissionHandler != nil {
			deps.SubmissionHandler.RegisterAssignmentRoutes(assignments, optional(deps.SubmitLimiter)...)
		}
		deps.AssignmentHandler.Register(assignments)
	}

	if deps.SubmissionHandler != nil {
		submissions := api.Group("/submissions", jwtMiddleware)
		if deps.EvaluationHandler != nil {
			deps.EvaluationHandler.Register(submissions)
		}
		deps.SubmissionHandler.Register(submissions)
	}

	if deps.EnrollmentHandler != nil {
		enrollments := api.Group("/enrollments", jwtMiddleware)
		if deps.CertificateHandler != nil {
			deps.CertificateHandler.RegisterEnrollmentRoutes(enrollments)
		}
		deps.EnrollmentHandler.Register(enrollments)
	}

	// Verification is public, so the group only decodes a token when present.
	if deps.CertificateHandler != nil {
		certificates := api.Group("/certificates", optionalJWT)
		deps.CertificateHandler.Register(certificates, optional(deps.VerifyLimiter)...)
	}

	if deps.UploadHandler != nil {
		uploads := api.Group("/uploads", jwtMiddleware)
		deps.UploadHandler.Register(uploads)
	}

	if deps.DoubtHandler != nil {
		deps.DoubtHandler.Register(api.Group("/doubts", jwtMiddleware))
	}

	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(api.Group("/dashboard", jwtMiddleware))
	}

	if deps.AnalyticsHandler != nil {
		deps.AnalyticsHandler.Register(api.Group("/analytics", jwtMiddleware))
	}

	if deps.UserHandler != nil {
		deps.UserHandler.Register(api.Group("/users", jwtMiddleware))
	}

	// Applications are filed anonymously; review needs an admin token.
	if deps.VerifierHandler != nil {
		verifierRequests := api.Group("/verifier-requests", optionalJWT)
		deps.VerifierHandler.Register(verifierRequests, optional(deps.ApplyLimiter)...)
	}
}

func orNoop(h fiber.Handler) fiber.Handler {
	if h != nil {
		return h
	}
	return func(c *fiber.Ctx) error { return c.Next() }
}

func optional(h fiber.Handler) []fiber.Handler {
	if h == nil {
		return nil
	}
	return []fiber.Handler{h}
}
