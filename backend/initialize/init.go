package initialize

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"growdash-agent/backend/app/controllers"
	"growdash-agent/backend/app/db"
	jwtutil "growdash-agent/backend/app/jwt"
	"growdash-agent/backend/app/metrics"
	"growdash-agent/backend/app/middleware"
	"growdash-agent/backend/app/models"
	"growdash-agent/backend/app/repo"
	"growdash-agent/backend/app/services"
	"growdash-agent/backend/config"
	"growdash-agent/backend/global"
	"growdash-agent/backend/router"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type App struct {
	Cfg      *config.Config
	DB       *gorm.DB
	Redis    *redis.Client
	Router   http.Handler
	Metrics  *metrics.Metrics
	Users    *services.UserService
	Devices  *services.DeviceService
	Commands *services.CommandService
}

func Build(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// New wires the backend from an already loaded config.
func New(cfg *config.Config) (*App, error) {
	global.Config = cfg

	gdb, err := db.Connect(db.Config{
		Driver: cfg.DB.Driver, Path: cfg.DB.Path,
		Host: cfg.DB.Host, Port: cfg.DB.Port, User: cfg.DB.User, Password: cfg.DB.Pass, DBName: cfg.DB.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	global.Mdb = gdb

	if err := gdb.AutoMigrate(&models.User{}, &models.Device{}, &models.Command{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	var publisher services.Publisher = services.NopPublisher{}
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			global.Logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, status events may be lost")
		}
		cancel()
		global.Rdb = rdb
		publisher = services.NewRedisPublisher(rdb)
	}

	// Services
	userSvc := services.NewUserService(repo.NewUserRepository(gdb))
	deviceSvc := services.NewDeviceService(repo.NewDeviceRepository(gdb))
	commandSvc := services.NewCommandService(repo.NewCommandRepository(gdb), publisher)
	if err := userSvc.EnsureAdmin(cfg.Admin.Username, cfg.Admin.Password); err != nil {
		global.Logger.Warn().Err(err).Msg("ensure admin account")
	}

	// Controllers
	m := metrics.New()
	signer := &jwtutil.Signer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, ExpMin: cfg.JWT.ExpMin}
	h := router.NewRouter(router.Controllers{
		HTTP:     controllers.NewHTTPController(gdb),
		Auth:     controllers.NewAuthController(userSvc, signer),
		Agent:    controllers.NewAgentController(deviceSvc, commandSvc, m),
		Devices:  controllers.NewDeviceController(deviceSvc),
		Commands: controllers.NewCommandController(deviceSvc, commandSvc, m),
	}, &middleware.Auth{Signer: signer}, middleware.DeviceAuth(deviceSvc), m)

	return &App{
		Cfg: cfg, DB: gdb, Redis: rdb, Router: h, Metrics: m,
		Users: userSvc, Devices: deviceSvc, Commands: commandSvc,
	}, nil
}

func (a *App) Close() error {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
