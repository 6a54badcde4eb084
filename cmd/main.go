package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"invadjust/config"
	_ "invadjust/docs"
	"invadjust/internal/pkg/cache"
	"invadjust/internal/pkg/database"
	"invadjust/internal/pkg/logger"
	"invadjust/internal/pkg/middleware"
	"invadjust/internal/pkg/token"

	"invadjust/internal/api/adjustment"
	"invadjust/internal/api/alert"
	"invadjust/internal/api/router"
	"invadjust/internal/api/user"
	"invadjust/internal/api/variant"
	"invadjust/internal/repository/adjustmentrepo"
	"invadjust/internal/repository/alertrepo"
	"invadjust/internal/repository/userrepo"
	"invadjust/internal/repository/variantrepo"
	"invadjust/internal/service/adjustmentservice"
	"invadjust/internal/service/alertservice"
	"invadjust/internal/service/userservice"
	"invadjust/internal/service/variantservice"
)

// @title Inventory Adjustment API
// @version 1.0
// @description Ajustes de estoque por variante, com validação de formulário e alertas de nível.
// @host localhost:8080
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 0. Variáveis de ambiente (.env)
	if err := godotenv.Load(); err != nil {
		log.Println("Aviso: arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuração inválida: %v", err)
	}
	appLog := logger.NewLogger(cfg.LogLevel)
	defer appLog.Sync()
	appLog.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment})

	// 1. Infraestrutura
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	cacheClient, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		appLog.Warn("Redis indisponível; o cache e o rate limit vão falhar abertos.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
	} else {
		appLog.Info("Conexão Redis estabelecida.", nil)
	}
	defer cacheClient.Close()

	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	// 2. Injeção de dependências: Repository -> Service -> Handler
	variantRepo := variantrepo.NewVariantRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, appLog)
	adjustmentRepo := adjustmentrepo.NewAdjustmentRepository(db, cfg.DBTimeout, appLog)
	alertRepo := alertrepo.NewAlertRepository(db, cfg.DBTimeout, appLog)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, appLog)

	variantSvc := variantservice.NewService(variantRepo, appLog)
	alertSvc := alertservice.NewService(alertRepo, cfg.LowStockThreshold, appLog)
	adjustmentSvc := adjustmentservice.NewService(adjustmentRepo, variantSvc, alertSvc, appLog)
	userSvc := userservice.NewService(userRepo, tokenSvc, appLog)

	handlers := router.Handlers{
		User:       user.NewHandler(userSvc, appLog),
		Variant:    variant.NewHandler(variantSvc, appLog),
		Adjustment: adjustment.NewHandler(adjustmentSvc, appLog),
		Alert:      alert.NewHandler(alertSvc, appLog),
	}

	// 5 tentativas de login por minuto por IP, rajada de 5.
	loginThrottle := middleware.NewLoginThrottle(rate.Every(12*time.Second), 5, appLog)

	r := router.NewRouter(handlers, router.Options{
		TokenService:         tokenSvc,
		Cache:                cacheClient,
		LoginThrottle:        loginThrottle,
		RateLimitMaxRequests: cfg.RateLimitMaxRequests,
		RateLimitPeriod:      cfg.RateLimitPeriod,
		Logger:               appLog,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 3. Limpeza periódica do throttle de login
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				loginThrottle.Cleanup(3 * time.Minute)
			}
		}
	}()

	// 4. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
