// @title           Condo HTTP Service API
// @version         1.0
// @description     Condominium management backend: residents, apartments, invoices, locker items, complaints and surveys

// @BasePath  /api

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Enter the token with the `Bearer ` prefix
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"condo-http-service/internal/app/routes"
	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/domain/services/container"
	"condo-http-service/internal/infrastructure/config"
	"condo-http-service/internal/infrastructure/database"
	"condo-http-service/internal/infrastructure/storage"
	"condo-http-service/pkg/logger"
	"condo-http-service/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 加载.env文件，失败时继续使用已有的环境变量
	envErr := godotenv.Load()

	// 获取配置
	cfg := config.GetConfig()

	// 初始化日志配置
	log, err := logger.SetupLogger(logger.Options{
		Level:       cfg.LogLevel,
		Dir:         cfg.LogDir,
		ServiceName: "condo-http-service",
	})
	if err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if envErr != nil {
		log.Warn("无法加载.env文件", zap.Error(envErr))
	}

	// 创建数据库连接池
	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		log.Fatal("无法创建数据库连接池", zap.Error(err))
	}
	defer pool.Close()

	if cfg.DBMigrationMode == "drop" {
		log.Warn("在drop模式下运行，将删除并重建所有表")
	}
	if err := database.Migrate(pool.GetDB(), cfg.DBMigrationMode); err != nil {
		log.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 确保系统中有管理员账户
	if err := ensureAdminExists(pool.GetDB(), cfg, log); err != nil {
		log.Fatal("创建默认管理员失败", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.GetRedisAddr(),
			DB:   cfg.RedisDB,
		})
		defer redisClient.Close()
	}

	store := storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURLPrefix)
	serviceContainer := container.NewServiceContainer(pool.GetDB(), cfg, redisClient, store, log)

	if cfg.EnvType == "SERVER" {
		gin.SetMode(gin.ReleaseMode)
	}

	stop := make(chan struct{})
	r := routes.SetupRouter(serviceContainer, pool, stop)

	printSystemInfo(pool, log)
	startServer(r, cfg.ServerPort, log)
	close(stop)
}

// ensureAdminExists 确保系统中有管理员账户
func ensureAdminExists(db *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := utils.HashPassword(cfg.DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("生成密码哈希失败: %w", err)
	}

	admin := models.User{
		Username: "admin",
		Password: hashedPassword,
		Role:     models.RoleAdmin,
		Active:   true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Info("已创建默认管理员账户", zap.String("username", admin.Username))
	return nil
}

// startServer 启动HTTP服务，收到 SIGINT/SIGTERM 后优雅关闭
func startServer(handler http.Handler, port string, log *zap.Logger) {
	srv := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("服务器启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务器")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("服务器强制关闭", zap.Error(err))
		return
	}
	log.Info("服务器已停止")
}

// printSystemInfo 打印系统信息
func printSystemInfo(pool *database.ConnectionPool, log *zap.Logger) {
	if stats, err := pool.Stats(); err == nil {
		log.Info("数据库连接池状态", zap.Any("stats", stats))
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	log.Info("系统资源",
		zap.Int("cpu", runtime.NumCPU()),
		zap.Int("goroutines", runtime.NumGoroutine()),
		zap.Uint64("alloc_mib", m.Alloc/1024/1024),
		zap.Uint64("sys_mib", m.Sys/1024/1024),
	)
}
