package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"swimProgressAPI/handlers"
	"swimProgressAPI/internal/notification"
	"swimProgressAPI/internal/workers"
	"swimProgressAPI/middleware"
	"swimProgressAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	redisClient         *redis.Client
	userService         *services.UserService
	notificationService *services.NotificationService
	activityService     *services.ActivityService
	goalService         *services.GoalService
	streakService       *services.StreakService
	levelService        *services.LevelService
	badgeService        *services.BadgeService
	leaderboardService  *services.LeaderboardService
	challengeService    *services.ChallengeService
	fcmService          *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	// Redis only backs the leaderboard cache, so a missing REDIS_URL is
	// a degraded mode rather than a startup failure.
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Printf("Warning: invalid REDIS_URL, leaderboard cache disabled: %v", err)
		} else {
			redisClient = redis.NewClient(opts)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				log.Printf("Warning: Redis unreachable, leaderboard cache disabled: %v", err)
				redisClient = nil
			} else {
				log.Println("Redis leaderboard cache enabled")
			}
		}
	}

	notificationService = services.NewNotificationService(dbPool)
	userService = services.NewUserService(dbPool)
	activityService = services.NewActivityService(dbPool, notificationService)
	goalService = services.NewGoalService(dbPool, notificationService)
	streakService = services.NewStreakService(dbPool)
	levelService = services.NewLevelService(dbPool)
	badgeService = services.NewBadgeService(dbPool)
	leaderboardService = services.NewLeaderboardService(dbPool, redisClient)
	challengeService = services.NewChallengeService(dbPool)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	// Initialize handlers
	activityHandler := handlers.NewActivityHandler(activityService)
	goalHandler := handlers.NewGoalHandler(goalService, streakService)
	streakHandler := handlers.NewStreakHandler(streakService)
	levelHandler := handlers.NewLevelHandler(levelService)
	badgeHandler := handlers.NewBadgeHandler(badgeService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	challengeHandler := handlers.NewChallengeHandler(challengeService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	workers.StartSweepWorker(workerCtx, dbPool)

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "swimProgress-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/badges/catalog", badgeHandler.GetCatalog).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/activities", activityHandler.IngestActivity).Methods("POST")

	protected.HandleFunc("/goals", goalHandler.ListGoals).Methods("GET")
	protected.HandleFunc("/goals", goalHandler.CreateGoal).Methods("POST")
	protected.HandleFunc("/goals/{goalId}/complete", goalHandler.CompleteGoal).Methods("POST")
	protected.HandleFunc("/goals/{goalId}/cancel", goalHandler.CancelGoal).Methods("POST")
	protected.HandleFunc("/goals/{goalId}", goalHandler.DeleteGoal).Methods("DELETE")
	protected.HandleFunc("/dashboard", goalHandler.GetDashboard).Methods("GET")

	protected.HandleFunc("/streaks", streakHandler.GetStreaks).Methods("GET")
	protected.HandleFunc("/streaks/freeze-tokens", streakHandler.GrantFreezeTokens).Methods("POST")

	protected.HandleFunc("/level", levelHandler.GetLevel).Methods("GET")

	protected.HandleFunc("/badges", badgeHandler.GetMyBadges).Methods("GET")
	protected.HandleFunc("/badges/earned", badgeHandler.GetEarnedBadges).Methods("GET")
	protected.HandleFunc("/stats", badgeHandler.GetStats).Methods("GET")
	protected.HandleFunc("/stats/periods", badgeHandler.GetPeriodStats).Methods("GET")

	protected.HandleFunc("/leaderboard", leaderboardHandler.GetLeaderboard).Methods("GET")
	protected.HandleFunc("/leaderboard/me", leaderboardHandler.GetMyRank).Methods("GET")

	protected.HandleFunc("/challenges", challengeHandler.ListChallenges).Methods("GET")
	protected.HandleFunc("/challenges", challengeHandler.CreateChallenge).Methods("POST")
	protected.HandleFunc("/challenges/{challengeId}", challengeHandler.GetChallenge).Methods("GET")
	protected.HandleFunc("/challenges/{challengeId}/join", challengeHandler.JoinChallenge).Methods("POST")
	protected.HandleFunc("/challenges/{challengeId}/leave", challengeHandler.LeaveChallenge).Methods("POST")
	protected.HandleFunc("/challenges/{challengeId}/invite", challengeHandler.GetInvite).Methods("GET")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/{notificationId}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	// CORS configuration
	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if redisClient != nil {
		redisClient.Close()
	}

	log.Println("Server shutdown complete")
}
