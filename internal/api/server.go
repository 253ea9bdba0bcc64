package api

import (
	"nodal/internal/config"
	"nodal/internal/database"
	"nodal/internal/storage"
	"nodal/internal/websocket"

	"github.com/jaevor/go-nanoid"
	"go.uber.org/zap"
)

type Server struct {
	config     *config.Config
	store      *database.Store
	storage    storage.Provider
	wsHub      *websocket.Hub
	log        *zap.Logger
	metrics    *Metrics
	newTraceID func() string
}

func NewServer(cfg *config.Config, store *database.Store, provider storage.Provider, wsHub *websocket.Hub, logger *zap.Logger) (*Server, error) {
	generateID, err := nanoid.Standard(21)
	if err != nil {
		return nil, err
	}
	return &Server{
		config:     cfg,
		store:      store,
		storage:    provider,
		wsHub:      wsHub,
		log:        logger,
		metrics:    NewMetrics(),
		newTraceID: generateID,
	}, nil
}
