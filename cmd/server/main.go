package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeprep/internal/api"
	"codeprep/internal/api/handler"
	"codeprep/internal/app/scheduler"
	"codeprep/internal/app/service"
	"codeprep/internal/app/worker"
	"codeprep/internal/common/security"
	"codeprep/internal/domain/repository"
	"codeprep/internal/platform/config"
	"codeprep/internal/platform/database"
	"codeprep/internal/platform/evaluator"
	"codeprep/internal/platform/llm"
	"codeprep/internal/platform/logger"
	"codeprep/internal/platform/payment"
	"codeprep/internal/platform/queue"
	"codeprep/internal/platform/session"

	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	config.Load()
	cfg := config.AppConfig

	log := logger.Must(cfg.IsProduction())
	defer log.Sync()
	log.Info("Configuration loaded", zap.String("env", cfg.Environment))

	// 2. Initialize JWT
	security.InitJWT()

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), time.Minute)
	if err := database.Migrate(migrateCtx, database.DB); err != nil {
		migrateCancel()
		log.Fatal("Database migration failed", zap.Error(err))
	}
	migrateCancel()
	log.Info("Database connected and migrated")

	// 4. Initialize Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()
	log.Info("Redis connected", zap.String("addr", cfg.RedisAddr))

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	problemRepo := repository.NewPgProblemRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)
	interviewRepo := repository.NewPgInterviewRepository(database.DB)
	communityRepo := repository.NewPgCommunityRepository(database.DB)
	paymentRepo := repository.NewPgPaymentRepository(database.DB)
	tx := database.NewTransactor(database.DB)

	// 6. External collaborators
	llm.RegisterProvider("gemini", func() (llm.Provider, error) {
		return llm.NewGeminiClient(context.Background(), llm.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		})
	})
	provider, err := llm.NewProvider(cfg.LLMProvider)
	if err != nil {
		log.Warn("LLM provider unavailable, interview features will use fallbacks",
			zap.String("provider", cfg.LLMProvider), zap.Error(err))
		provider = llm.Disabled{}
	}
	prompts, err := llm.LoadPrompts()
	if err != nil {
		log.Fatal("Failed to load prompt templates", zap.Error(err))
	}

	sessions := session.NewStore(queue.RDB, cfg.SessionTTL, cfg.SessionTurns)
	evalClient := evaluator.NewClient(cfg.EvaluatorURL, cfg.EvaluatorToken, cfg.EvaluatorTimeout)
	gateway := payment.NewRazorpayClient(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.PaymentTimeout)
	jobQueue := queue.NewExecutionQueue(queue.RDB, cfg.ExecutionQueueName)
	locker := queue.NewLocker(queue.RDB, cfg.ExecutionLockPrefix)

	// 7. Initialize Services
	services := api.Services{
		Auth:       service.NewAuthService(userRepo, log),
		User:       service.NewUserService(userRepo, submissionRepo),
		Problem:    service.NewProblemService(problemRepo, submissionRepo, userRepo, tx, log),
		Submission: service.NewSubmissionService(submissionRepo, problemRepo, userRepo, tx, jobQueue, evalClient, log),
		Interview:  service.NewInterviewService(interviewRepo, sessions, provider, prompts, cfg.LLMTimeout, log),
		Community:  service.NewCommunityService(communityRepo, userRepo, tx, cfg.CommunityPostTTL, log),
		Payment:    service.NewPaymentService(paymentRepo, userRepo, tx, gateway, log),
	}

	// 8. Initialize Execution Worker (as a goroutine)
	executionWorker := worker.NewExecutionWorker(jobQueue, locker, submissionRepo, problemRepo, evalClient, log, worker.Options{
		LockTTL:     cfg.ExecutionLockTTL,
		MaxAttempts: cfg.ExecutionMaxAttempts,
	})
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		executionWorker.Start(workerCtx)
	}()

	// 9. Maintenance jobs
	maintenance := scheduler.NewManager(cfg.MaintenanceSpec, communityRepo, userRepo, log)
	if err := maintenance.Start(); err != nil {
		log.Fatal("Failed to schedule maintenance jobs", zap.Error(err))
	}

	// 10. Initialize Router & HTTP Server
	router := api.NewRouter(services, api.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Cookie: handler.CookieConfig{
			Name:   cfg.CookieName,
			TTL:    cfg.JWTExp,
			Secure: cfg.IsProduction(),
		},
		AuthProxySecret: cfg.AuthProxyKey,
		Health: func(ctx context.Context) error {
			if err := database.DB.PingContext(ctx); err != nil {
				return err
			}
			return queue.RDB.Ping(ctx).Err()
		},
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 70 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 11. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("Server starting", zap.String("port", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Could not listen", zap.String("port", cfg.APIPort), zap.Error(err))
		}
	}()

	<-stop

	log.Info("Shutting down server...")
	maintenance.Stop()
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn("Execution worker did not stop before shutdown deadline")
	}

	log.Info("Server and worker stopped gracefully")
}
