package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"noteblog/internal/auth"
	"noteblog/internal/categories"
	"noteblog/internal/config"
	"noteblog/internal/db"
	"noteblog/internal/feed"
	mcpserver "noteblog/internal/mcp"
	"noteblog/internal/notes"
	"noteblog/internal/share"
	"noteblog/internal/users"
	"noteblog/internal/web"

	"github.com/mark3labs/mcp-go/server"
)

func main() {
	// Config
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Logger
	logger := cfg.Logger(os.Stdout)
	if cfg.JWTSecret == config.DevJWTSecret {
		logger.Warn("dev mode: JWT_SECRET not set, using the development secret")
	}

	// Context for startup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to MongoDB
	logger.Info("connecting to MongoDB", "uri", cfg.MongoURI, "database", cfg.Database)
	store, err := db.Connect(ctx, cfg.MongoURI, cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	logger.Info("connected to MongoDB")

	// Wire dependencies
	noteRepo := notes.NewRepo(store.DB)
	catRepo := categories.NewRepo(store.DB)
	userRepo := users.NewRepo(store.DB)
	for name, repo := range map[string]interface{ EnsureIndexes(context.Context) error }{
		"notes":      noteRepo,
		"categories": catRepo,
		"users":      userRepo,
	} {
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Warn("failed to ensure indexes", "collection", name, "error", err)
		}
	}

	composer := feed.NewComposer(catRepo, userRepo, logger)
	noteSvc := notes.NewService(noteRepo, catRepo, composer, share.NewLinks(cfg.FrontendURL), logger)
	catSvc := categories.NewService(catRepo, noteRepo, logger)

	noteHandler := notes.NewHandler(noteSvc, logger)
	catHandler := categories.NewHandler(catSvc, logger)
	userHandler := users.NewHandler(userRepo, logger)
	tokens := auth.NewTokens(cfg.JWTSecret)

	// Create MCP server
	mcpSrv := mcpserver.NewServer(noteSvc, catSvc)

	// HTTP router
	mux := http.NewServeMux()

	// Notes
	mux.Handle("POST /api/notes", tokens.RequireFunc(noteHandler.CreateNote))
	mux.HandleFunc("GET /api/notes", noteHandler.PublicFeed)
	mux.Handle("GET /api/notes/my-notes", tokens.RequireFunc(noteHandler.MyNotes))
	mux.HandleFunc("GET /api/notes/global/recent", noteHandler.GlobalFeed)
	mux.HandleFunc("GET /api/notes/user/{userId}", noteHandler.ByAuthor)
	mux.HandleFunc("GET /api/notes/{slug}", noteHandler.GetNote)
	mux.Handle("PUT /api/notes/{id}", tokens.RequireFunc(noteHandler.UpdateNote))
	mux.Handle("DELETE /api/notes/{id}", tokens.RequireFunc(noteHandler.DeleteNote))
	mux.Handle("POST /api/notes/{id}/like", tokens.RequireFunc(noteHandler.ToggleLike))
	mux.Handle("POST /api/notes/{id}/toggle-global", tokens.RequireFunc(noteHandler.ToggleGlobal))
	mux.Handle("POST /api/notes/{id}/share", tokens.RequireFunc(noteHandler.Share))
	mux.HandleFunc("GET /api/notes/share/{shareLink}", noteHandler.GetShared)
	mux.HandleFunc("GET /api/notes/shared/{shareLink}", noteHandler.GetShared)
	mux.HandleFunc("GET /api/notes/qr/{shareLink}", noteHandler.QRCode)
	mux.HandleFunc("GET /s/{shareLink}", noteHandler.SharePreview)

	// Categories
	mux.HandleFunc("GET /api/categories", catHandler.List)
	mux.Handle("GET /api/categories/my-categories", tokens.RequireFunc(catHandler.Mine))
	mux.Handle("POST /api/categories", tokens.RequireFunc(catHandler.Create))
	mux.HandleFunc("GET /api/categories/{slug}", catHandler.Get)
	mux.HandleFunc("GET /api/categories/{slug}/notes", noteHandler.CategoryFeed)
	mux.Handle("PUT /api/categories/{id}", tokens.RequireFunc(catHandler.Update))
	mux.Handle("DELETE /api/categories/{id}", tokens.RequireFunc(catHandler.Delete))
	mux.Handle("POST /api/categories/{categoryId}/notes/{noteId}", tokens.RequireFunc(noteHandler.AssignCategory))

	// Users
	mux.Handle("GET /api/auth/me", tokens.RequireFunc(userHandler.Me))
	mux.HandleFunc("GET /api/auth/users/{username}", userHandler.Profile)

	// MCP endpoint (HTTP transport)
	// MCP uses POST for requests and GET for SSE streams
	mcpHTTP := server.NewStreamableHTTPServer(mcpSrv)
	mux.Handle("POST /mcp", mcpHTTP)
	mux.Handle("GET /mcp", mcpHTTP)
	mux.Handle("DELETE /mcp", mcpHTTP)

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		web.JSON(w, map[string]string{"status": "ok", "message": "Server is running"}, http.StatusOK)
	})

	// Frontend
	mux.Handle("/", web.SPA(cfg.StaticDir))

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      web.RequestLogger(logger, web.CORS(cfg.FrontendURL, mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
		if err := store.Close(shutdownCtx); err != nil {
			logger.Error("database close error", "error", err)
		}
	}()

	logger.Info("server starting", "port", cfg.Port)
	logger.Info("endpoints available",
		"api", "http://localhost:"+cfg.Port+"/api",
		"mcp", "http://localhost:"+cfg.Port+"/mcp",
		"frontend", cfg.FrontendURL,
	)

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}

	<-done
	logger.Info("server stopped")
}
