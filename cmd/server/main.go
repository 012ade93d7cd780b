package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"pollichat/internal/capabilities"
	"pollichat/internal/config"
	"pollichat/internal/gateway"
	"pollichat/internal/handler"
	"pollichat/internal/middleware"
	"pollichat/internal/repository/fsstore"
	"pollichat/internal/service/attach"
	serviceChat "pollichat/internal/service/chat"
	"pollichat/internal/service/conversation"
	"pollichat/internal/service/extract"
	"pollichat/internal/service/skills"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"gateway", cfg.GatewayBaseURL,
	)

	// Filesystem conversation store
	store, err := fsstore.New(cfg.ChatsDir, logger)
	if err != nil {
		log.Fatalf("Failed to open conversation store: %v", err)
	}
	logger.Info("conversation store ready", "dir", cfg.ChatsDir)

	// Initialize capability registry
	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}
	logger.Info("capability registry initialized")

	// Gateway client
	gatewayClient := gateway.NewClient(cfg.GatewayBaseURL)

	// PDF extraction: remote model first, local parser as fallback
	extractor := extract.NewExtractor(
		[]extract.Strategy{
			extract.NewRemoteStrategy(gatewayClient, cfg.ExtractionModel),
			extract.NewLocalStrategy(),
		},
		store,
		logger,
	)

	// Conversation assembly services
	skillLoader := skills.NewLoader(cfg.SkillsDir, logger)
	normalizer := attach.NewNormalizer(cfg.MaxAttachmentBytes, logger)
	assembler := conversation.NewAssembler(skillLoader, extractor, capabilityRegistry, logger)

	chatService := serviceChat.NewService(store, assembler, gatewayClient, normalizer, logger)

	// Create handlers
	chatHandler := handler.NewChatHandler(chatService, logger)
	balanceHandler := handler.NewBalanceHandler(gatewayClient, logger)
	modelsHandler := handler.NewModelsHandler(capabilityRegistry, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Chat routes
	mux.HandleFunc("POST /chat", chatHandler.SendMessage)
	mux.HandleFunc("GET /chat", chatHandler.ListConversations)
	mux.HandleFunc("DELETE /chat", chatHandler.DeleteConversation)

	// Account routes
	mux.HandleFunc("GET /balance", balanceHandler.GetBalance)

	// Model capability routes
	mux.HandleFunc("GET /models", modelsHandler.ListModels)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → APIKey → Routes
	root = middleware.APIKey(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be first to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "x-api-key"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second, // extraction plus completion can be slow
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
