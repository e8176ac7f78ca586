package handler

import (
	"github.com/graphconnect/graphconnect/internal/config"
	"github.com/graphconnect/graphconnect/internal/database"
	"github.com/graphconnect/graphconnect/internal/logger"
	"github.com/graphconnect/graphconnect/internal/service"
)

// Version is reported by the health and index endpoints
const Version = "0.1.0"

// Handler holds all HTTP handlers
type Handler struct {
	db      *database.Postgres
	rdb     *database.Redis
	log     *logger.Logger
	cfg     *config.Config
	mailSvc *service.MailService
}

// New creates a new Handler instance. db and rdb may be nil when the
// corresponding feature is disabled.
func New(db *database.Postgres, rdb *database.Redis, log *logger.Logger, cfg *config.Config, mailSvc *service.MailService) *Handler {
	return &Handler{
		db:      db,
		rdb:     rdb,
		log:     log,
		cfg:     cfg,
		mailSvc: mailSvc,
	}
}
