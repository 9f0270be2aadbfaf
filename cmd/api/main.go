package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Reservas-api/internal/application/auth"
	"github.com/jhoicas/Reservas-api/internal/application/tenant"
	"github.com/jhoicas/Reservas-api/internal/application/usecase"
	"github.com/jhoicas/Reservas-api/internal/infrastructure/cache"
	"github.com/jhoicas/Reservas-api/internal/infrastructure/firebase"
	"github.com/jhoicas/Reservas-api/internal/infrastructure/invalidation"
	"github.com/jhoicas/Reservas-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Reservas-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Reservas-api/internal/interfaces/http"
	"github.com/jhoicas/Reservas-api/pkg/config"
	"github.com/jhoicas/Reservas-api/pkg/logger"
	"github.com/jhoicas/Reservas-api/pkg/secretbox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Bool("production", cfg.App.IsProduction()).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	tenantRepo := postgres.NewTenantRepository(pool)
	storeRepo := postgres.NewStoreRepository(pool)
	adminRepo := postgres.NewAdminRepository(pool)

	gateMetrics := metrics.New()
	identityCache := cache.New(cache.Options{
		TTL:             cfg.Tenant.CacheTTL,
		JanitorInterval: time.Minute,
		Observer:        gateMetrics,
	})
	defer identityCache.Close()

	resolver := tenant.NewResolver(tenantRepo, storeRepo, identityCache, tenant.Config{
		BaseDomain: cfg.Tenant.BaseDomain,
		Observer:   gateMetrics,
	}, log)

	box, err := secretbox.New(cfg.Crypto.EncryptionKey)
	if err != nil {
		// Fuera de producción se permite arrancar sin clave; los secretos cifrados fallarán.
		log.Warn().Err(err).Msg("ENCRYPTION_KEY no válida: los secretos por tenant no se podrán leer")
	}

	var identity auth.IdentityVerifier = auth.UnconfiguredVerifier{}
	if cfg.Firebase.ProjectID != "" {
		fb, err := firebase.NewVerifier(firebase.Config{
			ProjectID: cfg.Firebase.ProjectID,
			CertsURL:  cfg.Firebase.CertsURL,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("verificador de Firebase")
		}
		identity = fb
	} else {
		log.Warn().Msg("FIREBASE_PROJECT_ID vacío: el dashboard rechazará todos los tokens")
	}

	var decrypter auth.Decrypter
	if box != nil {
		decrypter = box
	}
	customers := auth.NewCustomerTokenVerifier(tenantRepo, decrypter, auth.CustomerTokenConfig{
		EnvChannelSecret: cfg.LINE.ChannelSecret,
		EnvChannelID:     cfg.LINE.ChannelID,
		Issuer:           cfg.LINE.Issuer,
		AllowUnverified:  cfg.App.AllowsUnverifiedTokens(),
	}, log)

	// Bus de invalidación: con REDIS_URL se propaga a las demás instancias.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = invalidation.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer redisClient.Close()
	}
	bus := invalidation.NewBus(redisClient, identityCache, log)
	go func() {
		if err := bus.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("bus de invalidación detenido")
		}
	}()

	storeUC := usecase.NewStoreUseCase(storeRepo, bus, log)
	var encrypter usecase.Encrypter
	if box != nil {
		encrypter = box
	}
	settingsUC := usecase.NewTenantSettingsUseCase(tenantRepo, encrypter, bus, log)
	boundary := httpRouter.NewErrorBoundary(log, gateMetrics)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: boundary.Handle,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Reservas API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Resolver:         resolver,
		AdminAuth:        auth.NewAdminAuthenticator(identity, adminRepo, log),
		Scopes:           auth.NewScopeCalculator(storeRepo),
		Customers:        customers,
		StoreUC:          storeUC,
		TenantSettingsUC: settingsUC,
		Metrics:          gateMetrics,
		InstanceID:       bus.Origin(),
		ServiceName:      cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
