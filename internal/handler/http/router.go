package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// Handlers groups every handler the router mounts.
type Handlers struct {
	Policy       PolicyHandler
	Employee     EmployeeHandler
	Attendance   AttendanceHandler
	Leave        LeaveHandler
	Payroll      PayrollHandler
	Marketplace  MarketplaceHandler
	Audit        AuditHandler
	Assistant    AssistantHandler
	Notification NotificationHandler
}

type RouterOptions struct {
	AllowedOrigins []string
	Env            string
	LogLevel       slog.Level

	// Idempotency wraps the money-moving POSTs. Nil disables it.
	Idempotency func(http.Handler) http.Handler
	// ChatLimiter bounds assistant requests per employee. Nil disables it.
	ChatLimiter *middleware.RateLimiter
}

func passthrough(next http.Handler) http.Handler { return next }

func NewRouter(JWTService jwt.Service, h Handlers, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-policy-engine"),
		slog.String("version", "v1.0.0"),
		slog.String("env", opts.Env),
	)

	idempotent := opts.Idempotency
	if idempotent == nil {
		idempotent = passthrough
	}
	chatLimit := passthrough
	if opts.ChatLimiter != nil {
		chatLimit = opts.ChatLimiter.Handler
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", middleware.IdempotencyHeader},
		ExposedHeaders:   []string{"Link", "Retry-After", middleware.ReplayedHeader},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RealIP)

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	admin := middleware.RequireAccess(user.AccessAdmin())
	managerWith := func(p user.Permission) func(http.Handler) http.Handler {
		return middleware.RequireAccess(user.AccessManagerWithPermission(p))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Authenticates with its own short-lived token
		r.Get("/notifications/stream", h.Notification.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/policy", func(r chi.Router) {
				r.Get("/", h.Policy.Get)
				r.With(admin).Put("/", h.Policy.Update)
			})

			r.Route("/employees", func(r chi.Router) {
				r.With(managerWith(user.PermissionEmployeeViewAll)).Get("/", h.Employee.List)
				r.With(admin).Post("/", h.Employee.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Employee.Get)
					r.Get("/verification", h.Employee.GetVerification)
					r.With(admin).Put("/", h.Employee.Update)
					r.With(admin).Delete("/", h.Employee.Delete)
				})
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/check-in", h.Attendance.CheckIn)
				r.Post("/check-out", h.Attendance.CheckOut)
				r.Post("/break/start", h.Attendance.StartBreak)
				r.Post("/break/end", h.Attendance.EndBreak)
				r.Get("/today", h.Attendance.Today)
				r.Get("/my", h.Attendance.ListMy)
				r.Post("/selfie", h.Attendance.UploadSelfie)
				r.Get("/selfies/*", h.Attendance.GetSelfie)

				// Approvers named on the request are checked by the service
				r.Route("/pending", func(r chi.Router) {
					r.Get("/", h.Attendance.ListPending)
					r.Post("/{id}/approve", h.Attendance.ApprovePending)
					r.Post("/{id}/reject", h.Attendance.RejectPending)
				})
			})

			r.Route("/leave", func(r chi.Router) {
				r.Post("/", h.Leave.Create)
				r.Get("/my", h.Leave.ListMy)
				r.Get("/balance", h.Leave.GetMyBalance)
				r.Get("/balance/{employeeID}", h.Leave.GetBalance)
				r.With(managerWith(user.PermissionLeaveViewAll)).Get("/", h.Leave.List)

				r.Route("/{id}", func(r chi.Router) {
					r.With(managerWith(user.PermissionLeaveApprove)).Post("/approve", h.Leave.Approve)
					r.With(managerWith(user.PermissionLeaveApprove)).Post("/reject", h.Leave.Reject)
					r.With(admin).Delete("/", h.Leave.Delete)
				})
			})

			r.Route("/payroll", func(r chi.Router) {
				r.With(admin).Post("/adjustments", h.Payroll.CreateAdjustment)
				r.With(admin).Post("/auto-adjustments", h.Payroll.GenerateAutoAdjustments)
				r.Get("/adjustments", h.Payroll.ListAdjustments)
				r.With(managerWith(user.PermissionPayrollView)).Get("/summary", h.Payroll.CompanySummary)
				r.Get("/summary/me", h.Payroll.Summary)
				r.Get("/summary/{employeeID}", h.Payroll.Summary)
			})

			r.Route("/marketplace", func(r chi.Router) {
				manage := managerWith(user.PermissionMarketplaceManage)

				r.Get("/items", h.Marketplace.ListItems)
				r.With(manage).Post("/items", h.Marketplace.CreateItem)
				r.Get("/wallet", h.Marketplace.Wallet)
				r.With(manage, idempotent).Post("/wallets/{employeeID}/grant", h.Marketplace.GrantPoints)

				r.Route("/orders", func(r chi.Router) {
					r.With(idempotent).Post("/", h.Marketplace.Purchase)
					r.Get("/my", h.Marketplace.ListMyOrders)
					r.With(manage).Get("/", h.Marketplace.ListOrders)
					r.With(manage, idempotent).Post("/{id}/approve", h.Marketplace.ApproveOrder)
					r.With(manage, idempotent).Post("/{id}/reject", h.Marketplace.RejectOrder)
					r.With(idempotent).Post("/{id}/consume", h.Marketplace.ConsumeOrder)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Get("/audit", h.Audit.ListAudit)
				r.Get("/records/deleted", h.Audit.ListDeleted)
				r.Post("/records/deleted/{id}/restore", h.Audit.Restore)
				r.Delete("/records/{kind}/{id}", h.Audit.DeleteRecord)
			})

			r.With(chatLimit).Post("/assistant/chat", h.Assistant.Chat)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.Notification.List)
				r.Post("/read", h.Notification.MarkAsRead)
				r.Post("/read-all", h.Notification.MarkAllAsRead)
				r.Get("/sse-token", h.Notification.GetSSEToken)
			})
		})
	})
	return r
}
