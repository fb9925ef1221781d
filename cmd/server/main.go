package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"remat-backend/internal/config"
	"remat-backend/internal/database"
	"remat-backend/internal/handlers"
	"remat-backend/internal/metrics"
	"remat-backend/internal/middleware"
	"remat-backend/internal/models"
	"remat-backend/internal/rewards"
	"remat-backend/internal/services"
	"remat-backend/internal/services/roads"
	"remat-backend/internal/websocket"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚀 REMAT BACKEND SERVER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("📂 Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Invalid configuration")
		log.Printf("   Error: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	log.Printf("✅ Configuration loaded (auth mode: %s)", cfg.Auth.Mode)

	log.Println("🔌 Connecting to database...")
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Database connection failed")
		log.Printf("   Error: %v", err)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	defer db.Close()

	log.Println("🔄 Running database migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ FATAL ERROR: Database migrations failed: %v", err)
	}
	log.Println("✅ Database migrations completed")

	log.Println("🌱 Seeding database with initial data...")
	if err := database.SeedBins(db); err != nil {
		log.Fatalf("❌ FATAL ERROR: Bins seeding failed: %v", err)
	}
	if cfg.Auth.Mode == config.AuthModeLocal {
		for _, email := range cfg.Auth.AdminEmails {
			if err := database.SeedAdmin(db, email, cfg.Auth.AdminPassword); err != nil {
				log.Fatalf("❌ FATAL ERROR: Admin seeding failed: %v", err)
			}
		}
	}
	log.Println("✅ Seeding completed")

	// Rewards
	policy := rewards.DefaultPolicy()
	if cfg.RewardPolicyFile != "" {
		policy, err = rewards.LoadPolicyFile(cfg.RewardPolicyFile)
		if err != nil {
			log.Fatalf("❌ FATAL ERROR: Reward policy: %v", err)
		}
	}
	calculator := rewards.NewCalculator(policy)

	// Live bin feed for admin dashboards
	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)
	log.Println("✅ WebSocket hub started")

	depositProcessor := services.NewDepositProcessor(database.NewDepositStore(db), calculator, wsHub)

	routePlanner := services.NewRoutePlanner(
		services.NewRouteOptimizer(),
		roads.NewClient(cfg.Routing.OSRMBaseURL, cfg.Routing.Timeout),
	)
	log.Printf("✅ Routing via %s (timeout %s)", cfg.Routing.OSRMBaseURL, cfg.Routing.Timeout)

	classifier := services.NewHTTPClassifier(cfg.Classifier.URL, cfg.Classifier.Timeout)
	if cfg.Classifier.URL == "" {
		log.Println("⚠️  CLASSIFIER_URL not set, waste detection disabled")
	}

	var addressResolver services.AddressResolver
	if geocoder, err := services.NewGeocodingService(cfg.GoogleMapsAPIKey); err != nil {
		log.Printf("⚠️  Reverse geocoding disabled: %v", err)
	} else {
		addressResolver = geocoder
	}

	// Firebase backs ID token verification in firebase mode and push
	// notifications in both modes
	firebaseApp, err := services.NewFirebaseApp(ctx, cfg.Firebase.CredentialsBase64, cfg.Firebase.CredentialsFile)
	if err != nil {
		if cfg.Auth.Mode == config.AuthModeFirebase {
			log.Fatalf("❌ FATAL ERROR: Firebase is required when AUTH_MODE=firebase: %v", err)
		}
		log.Printf("⚠️  Firebase unavailable: %v (push notifications disabled)", err)
	}

	var pickupNotifier services.PickupNotifier
	if firebaseApp != nil {
		fcmService, err := services.NewFCMService(ctx, firebaseApp, database.NewTokenStore(db))
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM: %v (push notifications disabled)", err)
		} else {
			pickupNotifier = fcmService
			log.Println("✅ Firebase Cloud Messaging initialized")
		}
	}

	adminEmails := middleware.AdminEmailSet(cfg.Auth.AdminEmails)

	var (
		verifier    middleware.TokenVerifier
		localIssuer *middleware.HMACVerifier
	)
	switch cfg.Auth.Mode {
	case config.AuthModeLocal:
		localIssuer, err = middleware.NewHMACVerifier(cfg.Auth.JWTSecret)
		if err != nil {
			log.Fatal(err)
		}
		verifier = localIssuer
	default:
		verifier, err = middleware.NewFirebaseVerifier(ctx, firebaseApp, cfg.Auth.AdminEmails)
		if err != nil {
			log.Fatalf("❌ FATAL ERROR: Firebase auth: %v", err)
		}
	}
	requireAuth := middleware.Auth(verifier)
	requireAdmin := middleware.RequireRole(models.RoleAdmin)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint (authentication handled in handler via query param)
	r.Get("/ws", websocket.HandleWebSocket(wsHub, verifier, websocket.NewUpgrader(cfg.AllowedOrigins)))

	r.Route("/auth", func(r chi.Router) {
		if localIssuer != nil {
			r.Post("/login", handlers.Login(db, localIssuer))
			r.Post("/register", handlers.Register(db, localIssuer, adminEmails))
		}

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			if localIssuer == nil {
				// Firebase clients sign in on the device; login only checks the profile exists
				r.Post("/login", handlers.GetMe(db))
			}
			r.Post("/signup", handlers.Signup(db))
			r.Get("/me", handlers.GetMe(db))
			r.Delete("/me", handlers.DeleteMe(db))
		})
	})

	// Bin panel display (no auth, the panel shows its own bin)
	r.Get("/bin/panel/{id}", handlers.GetBin(db))

	r.Route("/api", func(r chi.Router) {
		r.Get("/bins", handlers.GetBins(db))
		r.Get("/bins/nearby", handlers.GetNearbyBins(db))
		r.Get("/bins/{id}", handlers.GetBin(db))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(requireAdmin)

			r.Post("/bins", handlers.CreateBin(db))
			r.Patch("/bins/{id}", handlers.UpdateBin(db, wsHub))
			r.Delete("/bins/{id}", handlers.DeleteBin(db))

			r.Post("/route/optimize", handlers.OptimizeRoute(routePlanner))
			r.Post("/route/collect", handlers.CollectRoute(db, routePlanner))
		})
	})

	r.Route("/user", func(r chi.Router) {
		r.Get("/leaderboard", handlers.GetLeaderboard(db))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/detect-waste", handlers.DetectWaste(classifier, calculator))
			r.Post("/recycle/{bin_id}", handlers.RecycleAtBin(depositProcessor))
			r.Get("/transactions", handlers.GetTransactions(db))
			r.Post("/fcm-token", handlers.RegisterFCMToken(db))

			r.Get("/pickup-requests", handlers.GetMyPickupRequests(db))
			r.Post("/pickup-requests", handlers.CreatePickupRequest(db, addressResolver))
			r.Get("/pickup-requests/{id}", handlers.GetMyPickupRequest(db))
			r.Patch("/pickup-requests/{id}/location", handlers.UpdatePickupLocation(db))
			r.Delete("/pickup-requests/{id}", handlers.DeletePickupRequest(db))
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(requireAdmin)

		r.Get("/pickup-requests", handlers.ListPickupRequests(db))
		r.Get("/pickup-requests/{id}", handlers.GetPickupRequest(db))
		r.Patch("/pickup-requests/{id}/accept", handlers.AcceptPickupRequest(db, pickupNotifier))
		r.Patch("/pickup-requests/{id}/reject", handlers.RejectPickupRequest(db, pickupNotifier))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("🛑 Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("⚠️  Graceful shutdown failed: %v", err)
		}
	}()

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("✅ ALL INITIALIZATION COMPLETE")
	log.Printf("🚀 Server starting on http://localhost:%s", cfg.Port)
	log.Println("🔌 Ready to accept requests!")
	log.Println("═══════════════════════════════════════════════════════════════════")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: Server failed to start")
		log.Printf("   Error: %v", err)
		log.Printf("   Port: %s", cfg.Port)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal(err)
	}
	log.Println("👋 Server stopped")
}
