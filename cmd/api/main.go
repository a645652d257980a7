package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/config"
	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/audit"
	appHTTP "github.com/cmlabs-hris/hris-policy-engine/internal/handler/http"
	"github.com/cmlabs-hris/hris-policy-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/llm"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/storage"
	"github.com/cmlabs-hris/hris-policy-engine/internal/repository/postgresql"
	assistantService "github.com/cmlabs-hris/hris-policy-engine/internal/service/assistant"
	attendanceService "github.com/cmlabs-hris/hris-policy-engine/internal/service/attendance"
	auditService "github.com/cmlabs-hris/hris-policy-engine/internal/service/audit"
	employeeService "github.com/cmlabs-hris/hris-policy-engine/internal/service/employee"
	"github.com/cmlabs-hris/hris-policy-engine/internal/service/file"
	leaveService "github.com/cmlabs-hris/hris-policy-engine/internal/service/leave"
	marketplaceService "github.com/cmlabs-hris/hris-policy-engine/internal/service/marketplace"
	notificationService "github.com/cmlabs-hris/hris-policy-engine/internal/service/notification"
	payrollService "github.com/cmlabs-hris/hris-policy-engine/internal/service/payroll"
	policyService "github.com/cmlabs-hris/hris-policy-engine/internal/service/policy"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{ApplicationName: "hris-policy-engine"})
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	txManager := postgresql.NewTxManager(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	policyRepo := postgresql.NewPolicyRepository(db)
	logRepo := postgresql.NewAttendanceLogRepository(db)
	pendingRepo := postgresql.NewPendingAttendanceRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	adjustmentRepo := postgresql.NewAdjustmentRepository(db)
	itemRepo := postgresql.NewMarketplaceItemRepository(db)
	orderRepo := postgresql.NewMarketplaceOrderRepository(db)
	auditRepo := postgresql.NewAuditRepository(db)
	deletedRepo := postgresql.NewDeletedRecordRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)

	// Deleting or restoring a leave request also moves the balance it consumed
	registry := auditService.Registry(postgresql.NewRecordStores(db))
	registry[audit.KindLeaveRequest] = leaveService.NewRecordStore(registry[audit.KindLeaveRequest], employeeRepo)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	holidays := calendar.NewClient(cfg.Holiday.BaseURL, cfg.Holiday.Timeout)
	model, err := llm.NewClient(cfg.Assistant.BaseURL, cfg.Assistant.APIKey, cfg.Assistant.Model, cfg.Assistant.Timeout)
	if err != nil {
		log.Fatal("Failed to initialize assistant model client:", err)
	}

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatal("Failed to initialize local storage:", err)
	}
	fileService := file.NewFileService(fileStorage)

	hub := sse.NewHub()
	notifier := notificationService.NewNotificationService(notificationRepo, hub, notificationService.Config{})
	recorder := auditService.NewRecorder(auditRepo)

	recordSvc, err := auditService.NewRecordService(txManager, deletedRepo, auditRepo, recorder, registry)
	if err != nil {
		log.Fatal("Failed to initialize record service:", err)
	}
	policySvc := policyService.NewPolicyService(policyRepo, recorder)
	employeeSvc := employeeService.NewEmployeeService(employeeRepo, policySvc, recordSvc, recorder)
	attendanceSvc := attendanceService.NewAttendanceService(txManager, logRepo, pendingRepo, employeeRepo, policySvc, holidays, notifier, recorder)
	leaveSvc := leaveService.NewLeaveService(txManager, leaveRequestRepo, employeeRepo, recordSvc, notifier, recorder)
	payrollSvc := payrollService.NewPayrollService(adjustmentRepo, employeeRepo, logRepo, pendingRepo, leaveRequestRepo, policySvc, holidays, recorder)
	marketplaceSvc := marketplaceService.NewMarketplaceService(txManager, itemRepo, orderRepo, employeeRepo, notifier, recorder)
	assistantSvc := assistantService.NewAssistantService(model, assistantService.NewTools(assistantService.Services{
		Attendance:  attendanceSvc,
		Leave:       leaveSvc,
		Payroll:     payrollSvc,
		Employees:   employeeSvc,
		Policies:    policySvc,
		Marketplace: marketplaceSvc,
	}))

	var scheduler *cron.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = cron.NewScheduler()
		jobs := cron.NewAttendanceJobs(policyRepo, policySvc, employeeRepo, attendanceSvc, payrollSvc)
		jobs.RegisterJobs(scheduler, cfg.Jobs.PendingInterval)
		scheduler.Start()
	}

	routerOpts := appHTTP.RouterOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Env:            cfg.App.Env,
		LogLevel:       logLevel,
		ChatLimiter:    middleware.NewRateLimiter(cfg.Assistant.RatePerMinute, cfg.Assistant.Burst),
	}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to redis:", err)
		}
		defer rdb.Close()
		routerOpts.Idempotency = middleware.Idempotency(rdb, cfg.Redis.IdempotencyTTL)
	} else {
		slog.Warn("REDIS_ADDR not set, Idempotency-Key headers are ignored")
	}

	router := appHTTP.NewRouter(JWTService, appHTTP.Handlers{
		Policy:       appHTTP.NewPolicyHandler(policySvc),
		Employee:     appHTTP.NewEmployeeHandler(employeeSvc),
		Attendance:   appHTTP.NewAttendanceHandler(attendanceSvc, fileService),
		Leave:        appHTTP.NewLeaveHandler(leaveSvc),
		Payroll:      appHTTP.NewPayrollHandler(payrollSvc),
		Marketplace:  appHTTP.NewMarketplaceHandler(marketplaceSvc),
		Audit:        appHTTP.NewAuditHandler(recordSvc),
		Assistant:    appHTTP.NewAssistantHandler(assistantSvc),
		Notification: appHTTP.NewNotificationHandler(notifier, JWTService),
	}, routerOpts)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutdown signal received")

	// Streams end when the hub closes, so close it before draining the server
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Forced shutdown", "error", err)
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	notifier.Stop()
	slog.Info("Server exited gracefully")
}
