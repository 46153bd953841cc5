package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatbug/backend/auth"
	"chatbug/backend/chat"
	"chatbug/backend/config"
	"chatbug/backend/database"
	"chatbug/backend/handlers"
	"chatbug/backend/middleware"
	"chatbug/backend/presence"
	ws "chatbug/backend/websocket"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
)

func main() {
	cfg := config.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := database.Connect(ctx, cfg.MongoDBURI)
	if err != nil {
		log.Fatalf("MongoDB: %v", err)
	}
	defer database.Disconnect(client)

	db := client.Database(cfg.DBName)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("MongoDB indexes: %v", err)
	}

	userStore := database.NewUserStore(db)
	roomStore := database.NewRoomStore(db)
	messageStore := database.NewMessageStore(db)

	var presenceCache presence.Cache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("Redis unavailable at %s, presence cache disabled: %v", cfg.RedisAddr, err)
		} else {
			log.Printf("Presence cache enabled on %s", cfg.RedisAddr)
			presenceCache = presence.NewRedisCache(rdb)
		}
		defer rdb.Close()
	}

	tracker := presence.NewTracker(userStore, presenceCache)
	registry := chat.NewRegistry()
	typing := chat.NewTypingTracker(chat.DefaultTypingTTL)
	coordinator := chat.NewCoordinator(roomStore, messageStore, tracker, registry, typing, cfg.MaxMessageLength)
	go coordinator.RunTypingSweep(ctx)

	verifier := auth.NewVerifier(userStore, cfg.JWTSecret)
	authHandler := &handlers.AuthHandler{Users: userStore, JWTSecret: cfg.JWTSecret}
	userHandler := &handlers.UserHandler{Users: userStore}
	roomHandler := &handlers.RoomHandler{Rooms: roomStore, Messages: messageStore}

	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "Backend is running!")
	}).Methods("GET")

	router.HandleFunc("/register", authHandler.Register).Methods("POST")
	router.HandleFunc("/login", authHandler.Login).Methods("POST")
	router.Handle("/ws", ws.NewHandler(verifier, coordinator))

	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWT(cfg.JWTSecret))
	api.HandleFunc("/users", userHandler.List).Methods("GET")
	api.HandleFunc("/users/{id}", userHandler.Get).Methods("GET")
	api.HandleFunc("/rooms", roomHandler.List).Methods("GET")
	api.HandleFunc("/rooms", roomHandler.Create).Methods("POST")
	api.HandleFunc("/rooms/{id}/join", roomHandler.Join).Methods("POST")
	api.HandleFunc("/rooms/{id}/messages", roomHandler.History).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      c.Handler(router),
		IdleTimeout:  120 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", serverAddr, err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal %s, shutting down server...", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully.")
}
