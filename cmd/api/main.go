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

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"marketchat/internal/adapter/api"
	"marketchat/internal/adapter/api/handler"
	apimiddleware "marketchat/internal/adapter/api/middleware"
	"marketchat/internal/adapter/api/router"
	"marketchat/internal/adapter/repository"
	"marketchat/internal/domain/entity"
	domainrepo "marketchat/internal/domain/repository"
	"marketchat/internal/infrastructure/firebase"
	"marketchat/internal/infrastructure/jwtauth"
	"marketchat/internal/infrastructure/mongodb"
	"marketchat/internal/infrastructure/websocket"
	"marketchat/internal/usecase"
	"marketchat/pkg/config"
	"marketchat/pkg/logger"
)

type stores struct {
	messages domainrepo.MessageRepository
	users    domainrepo.UserRepository
	ads      domainrepo.AdRepository
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.SetDebug(cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var firebaseApp *fbapp.App
	var opt option.ClientOption
	if cfg.StoreDriver == "firestore" || cfg.AuthProvider == "firebase" {
		opt = firebaseCredentials(cfg)

		firebaseApp, err = fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
	}

	st, err := openStores(ctx, cfg, opt)
	if err != nil {
		logger.Fatal("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer st.close()

	var verifier usecase.TokenVerifier
	var devTokenHandler *handler.DevTokenHandler
	switch cfg.AuthProvider {
	case "firebase":
		authClient, err := firebaseApp.Auth(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase Auth: %v", err)
		}
		verifier = firebase.NewFirebaseAuthClient(authClient)

	case "jwt":
		jwtClient := jwtauth.NewJWTAuthClient(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.JWTExpiry)*time.Second)
		verifier = jwtClient
		devTokenHandler = handler.NewDevTokenHandler(jwtClient)

	default:
		logger.Fatal("Unknown AUTH_PROVIDER %q", cfg.AuthProvider)
	}

	messageUseCase := usecase.NewMessageUseCase(st.messages, st.users, st.ads)

	wsManager := websocket.NewManager()
	gateway := websocket.NewGateway(wsManager, messageUseCase)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(verifier)

	router.Setup(e, router.Handlers{
		Message:   handler.NewMessageHandler(messageUseCase),
		WebSocket: handler.NewWebSocketHandler(gateway, authMiddleware, cfg.WSAllowedOrigins),
		Health:    handler.NewHealthHandler(gateway),
		DevToken:  devTokenHandler,
	}, authMiddleware, cfg.Environment)

	go func() {
		log.Printf("Starting server on port %s (store=%s, auth=%s)...", cfg.ServerPort, cfg.StoreDriver, cfg.AuthProvider)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutdown signal received; shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func firebaseCredentials(cfg *config.Config) option.ClientOption {
	if cfg.FirebaseServiceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		return option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccountJSON))
	}

	if _, err := os.Stat(cfg.FirebaseServiceAccountPath); os.IsNotExist(err) {
		log.Fatalf("Service account file does not exist: %s", cfg.FirebaseServiceAccountPath)
	}

	log.Printf("Using Firebase service account from file: %s", cfg.FirebaseServiceAccountPath)
	return option.WithCredentialsFile(cfg.FirebaseServiceAccountPath)
}

func openStores(ctx context.Context, cfg *config.Config, opt option.ClientOption) (*stores, error) {
	switch cfg.StoreDriver {
	case "firestore":
		client, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
		if err != nil {
			return nil, err
		}

		return &stores{
			messages: repository.NewFirestoreMessageRepository(client),
			users:    repository.NewFirestoreUserRepository(client),
			ads:      repository.NewFirestoreAdRepository(client),
			close:    func() { client.Close() },
		}, nil

	case "mongo":
		conn, err := mongodb.NewMongoConnection(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}

		if err := repository.EnsureMessageIndexes(ctx, conn.Database); err != nil {
			conn.Close(context.Background())
			return nil, err
		}

		return &stores{
			messages: repository.NewMongoMessageRepository(conn.Database),
			users:    repository.NewMongoUserRepository(conn.Database),
			ads:      repository.NewMongoAdRepository(conn.Database),
			close:    func() { conn.Close(context.Background()) },
		}, nil

	case "memory":
		users := repository.NewMemoryUserRepository()
		ads := repository.NewMemoryAdRepository()
		if cfg.IsDevelopment() {
			seedDevelopmentDirectory(users, ads)
		}

		return &stores{
			messages: repository.NewMemoryMessageRepository(),
			users:    users,
			ads:      ads,
			close:    func() {},
		}, nil
	}

	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

// seedDevelopmentDirectory gives the in-memory store a buyer, a seller and an
// approved ad to message about.
func seedDevelopmentDirectory(users *repository.MemoryUserRepository, ads *repository.MemoryAdRepository) {
	users.Put(&entity.User{ID: "buyer", Username: "Demo Buyer"})
	users.Put(&entity.User{ID: "seller", Username: "Demo Seller"})
	ads.Put(&entity.Ad{ID: "demo-ad", SellerID: "seller", Title: "Demo listing", Status: entity.AdStatusApproved})

	logger.Info("Seeded in-memory directory with users buyer, seller and ad demo-ad")
}
