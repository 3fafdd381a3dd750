package app

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	transport "service-enrollment/internal/http"
	"service-enrollment/internal/http/handlers"
	"service-enrollment/internal/repository"
	"service-enrollment/internal/schedule"
	"service-enrollment/internal/service"
)

type Options struct {
	Dialect         repository.Dialect
	StorageTimeout  time.Duration
	ConflictPolicy  schedule.ParsePolicy
	IdentityBaseURL string
}

type App struct {
	handler http.Handler
}

func New(db *sql.DB, opts Options, logger *zap.Logger) *App {
	txManager := repository.NewSQLTxManager(db, opts.Dialect, opts.StorageTimeout)
	guard := service.NewAuthorizationGuard()
	ledger := service.NewLedger(guard, opts.ConflictPolicy, logger.Named("ledger"))

	enrollmentService := service.NewEnrollmentService(txManager, guard, ledger, logger.Named("enrollment"))
	adminService := service.NewAdminService(txManager, guard, ledger, logger.Named("admin"))

	var resolver service.IdentityResolver = service.NewDirectoryIdentityResolver(txManager)
	if baseURL := strings.TrimSpace(opts.IdentityBaseURL); baseURL != "" {
		resolver = service.NewIdentityHTTPClient(baseURL, service.DefaultIdentityHTTPClient())
	}

	router := transport.NewRouter(
		handlers.NewEnrollmentHandler(enrollmentService),
		handlers.NewAdminHandler(adminService),
		resolver,
		txManager,
		logger.Named("http"),
	)

	return &App{handler: router.Handler()}
}

func (a *App) Handler() http.Handler {
	return a.handler
}
