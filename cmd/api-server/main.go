package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"anihub/internal/admin"
	"anihub/internal/catalog"
	"anihub/internal/events"
	"anihub/internal/lookup"
	"anihub/internal/mapping"
	"anihub/internal/provider"
	"anihub/internal/resolver"
	"anihub/pkg/database"
	"anihub/pkg/utils"
)

func main() {
	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	providerCfg := utils.LoadProviderConfig()
	if err := provider.EnsureExecutable(providerCfg); err != nil {
		// complain and keep serving; provider calls fail per-request
		// until the script shows up
		log.Printf("[main] provider script check: %v", err)
	}

	resolverCfg := utils.LoadResolverConfig()
	authCfg := utils.LoadAuthConfig()

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// CORS for all routes, like the original serving layer
	router.Use(cors.Default())

	hub := events.NewHub()
	router.GET("/ws", events.WSHandler(hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_clients": stats.WSClients,
		})
	})

	// Reconciliation engine wiring
	repo := mapping.NewRepo(db)
	res := resolver.New(lookup.NewMALClient(resolverCfg), resolverCfg.MatchThreshold)
	svc := mapping.NewService(repo, res, hub, resolverCfg.CacheLookupFailures, resolverCfg.Workers)

	// Public catalog routes
	prov := provider.New(providerCfg)
	catalog.NewHandler(prov, svc).RegisterRoutes(router)

	// Admin (JWT protected)
	tokens := admin.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	admin.NewHandler(repo, hub, tokens, authCfg).RegisterRoutes(router.Group("/admin"))

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	httpSrv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP API server listening on :%s", port)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}

	log.Println("server stopped")
}
