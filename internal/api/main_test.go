package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"testing"
	"time"

	"nodal/internal/config"
	"nodal/internal/database"
	"nodal/internal/migrate"
	"nodal/internal/storage"
	"nodal/internal/websocket"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const testRootDomain = "nodal.test"

var (
	testServer *Server
	testRouter http.Handler
)

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_api_db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		log.Fatalf("Could not start postgres: %s", err)
	}
	defer func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			log.Printf("Could not terminate postgres: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("Could not get connection string: %s", err)
	}
	if err := migrate.Up(ctx, connStr); err != nil {
		log.Fatalf("Could not apply migrations: %s", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}
	defer pool.Close()

	tempDir, err := os.MkdirTemp("", "api-storage-test")
	if err != nil {
		log.Fatalf("Could not create temp dir: %s", err)
	}
	defer os.RemoveAll(tempDir)

	cfg := &config.Config{
		JWT:     config.JWTConfig{Secret: "api_test_secret", TTL: time.Hour},
		Upload:  config.UploadConfig{TTL: time.Hour},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"*"}},
		AppHost: testRootDomain,
		Storage: config.StorageConfig{
			Provider:      "local",
			Path:          tempDir,
			PublicBaseURL: "http://localhost:8080",
		},
	}

	localStorage, err := storage.NewLocalStorage(cfg.Storage.Path, cfg.Storage.PublicBaseURL, cfg.JWT.Secret, cfg.Upload.TTL)
	if err != nil {
		log.Fatalf("Could not create local storage: %s", err)
	}

	logger := zap.NewNop()
	wsHub := websocket.NewHub(logger)
	go wsHub.Run(ctx)

	testServer, err = NewServer(cfg, database.NewStore(pool), localStorage, wsHub, logger)
	if err != nil {
		log.Fatalf("Could not create server: %s", err)
	}
	testRouter = testServer.Routes()

	return m.Run()
}
