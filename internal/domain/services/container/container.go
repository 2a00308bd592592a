package container

import (
	"context"
	"sync"
	"time"

	"condo-http-service/internal/domain/services"
	"condo-http-service/internal/infrastructure/config"
	"condo-http-service/internal/infrastructure/storage"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client
	store  storage.BlobStore
	log    *zap.Logger

	// 基础服务
	jwtService   services.InterfaceJWTService
	redisService services.InterfaceRedisService

	// 业务服务
	userService           services.InterfaceUserService
	apartmentService      services.InterfaceApartmentService
	invoiceService        services.InterfaceInvoiceService
	lockerItemService     services.InterfaceLockerItemService
	complaintService      services.InterfaceComplaintService
	surveyService         services.InterfaceSurveyService
	surveyResponseService services.InterfaceSurveyResponseService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器，redisClient 为 nil 时不使用缓存
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client, store storage.BlobStore, log *zap.Logger) *ServiceContainer {
	if db == nil {
		panic("database connection is nil")
	}
	if cfg == nil {
		panic("config is nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	// 测试Redis连接，失败时不使用缓存
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("redis ping failed, survey results will not be cached", zap.Error(err))
			redisClient = nil
		}
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
		store:  store,
		log:    log,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.jwtService = services.NewJWTService(c.config, c.db, c.log)

	if c.redis != nil {
		c.redisService = services.NewRedisService(c.redis)
	}

	c.userService = services.NewUserService(c.db, c.config, c.store, c.redisService, c.log)
	c.apartmentService = services.NewApartmentService(c.db, c.config, c.log)
	c.invoiceService = services.NewInvoiceService(c.db, c.config, c.store, c.log)
	c.lockerItemService = services.NewLockerItemService(c.db, c.config, c.log)
	c.complaintService = services.NewComplaintService(c.db, c.config)
	c.surveyService = services.NewSurveyService(c.db, c.config, c.redisService, c.log)
	c.surveyResponseService = services.NewSurveyResponseService(c.db, c.config, c.redisService, c.log)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "store":
		return c.store
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "user":
		return c.userService
	case "apartment":
		return c.apartmentService
	case "invoice":
		return c.invoiceService
	case "locker_item":
		return c.lockerItemService
	case "complaint":
		return c.complaintService
	case "survey":
		return c.surveyService
	case "survey_response":
		return c.surveyResponseService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// GetConfig 获取配置
func (c *ServiceContainer) GetConfig() *config.Config {
	return c.config
}

// GetLogger 获取日志实例
func (c *ServiceContainer) GetLogger() *zap.Logger {
	return c.log
}

// GetRedis 获取Redis客户端，未启用或连接失败时为 nil
func (c *ServiceContainer) GetRedis() *redis.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.redis
}
