package container

import (
	"log/slog"

	"github.com/porchlight-app/server/internal/models"
	"github.com/porchlight-app/server/internal/services"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Logger        *slog.Logger
	MongoDBClient *mongo.Client
	RedisClient   *redis.Client

	EventService     *services.EventService
	RsvpService      *services.RsvpService
	DirectoryService *services.DirectoryService
	PushService      *services.PushService
}

// NewContainer creates a new dependency injection container
func NewContainer(
	logger *slog.Logger,
	mongoDBClient *mongo.Client,
	redisClient *redis.Client,
) *Container {
	repo := models.MongodbNewRepo(mongoDBClient)

	return &Container{
		Logger:           logger,
		MongoDBClient:    mongoDBClient,
		RedisClient:      redisClient,
		EventService:     services.NewEventService(repo, repo),
		RsvpService:      services.NewRsvpService(repo, repo, repo),
		DirectoryService: services.NewDirectoryService(repo, repo),
		PushService:      services.NewPushService(repo),
	}
}
