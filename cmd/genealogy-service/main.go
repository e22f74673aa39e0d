package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/app/background"
	"github.com/LavaJover/shvark-genealogy-service/internal/app/setup"
	"github.com/LavaJover/shvark-genealogy-service/internal/config"
	"github.com/LavaJover/shvark-genealogy-service/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/logger"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	appLogger := logger.NewLogger(cfg.LogConfig)

	deps, err := setup.InitializeDependencies(cfg, appLogger)
	if err != nil {
		log.Fatalf("failed to init dependencies: %v", err)
	}
	defer deps.Close()

	uc, err := setup.InitializeUseCases(deps)
	if err != nil {
		log.Fatalf("failed to init usecases: %v", err)
	}

	// Creating gRPC server
	grpcServer := grpc.NewServer()
	grpcapi.RegisterGenealogyServer(grpcServer, grpcapi.NewGenealogyHandler(
		uc.PlacementUsecase,
		uc.ReconciliationUsecase,
		uc.VolumeUsecase,
		uc.GenealogyUsecase,
		appLogger,
	))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(grpcapi.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.MetricsServer.Host, cfg.MetricsServer.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	background.NewBackgroundTasks(uc.ReconciliationUsecase, cfg.Reconciliation.BatchInterval, appLogger).StartAll(ctx)

	if deps.Subscriber != nil {
		consumer := background.NewEventConsumer(
			deps.Subscriber,
			uc.ReconciliationUsecase,
			uc.VolumeUsecase,
			deps.Metrics,
			appLogger,
			background.ConsumerConfig{
				GroupID:        cfg.KafkaService.GroupID,
				StatusTopic:    cfg.KafkaService.StatusTopic,
				VolumeTopic:    cfg.KafkaService.VolumeTopic,
				RetryBaseDelay: cfg.KafkaService.RetryBaseDelay,
				MaxRetryDelay:  cfg.KafkaService.MaxRetryDelay,
			},
		)
		g.Go(func() error { return consumer.Run(ctx) })
	}

	g.Go(func() error {
		appLogger.Info("gRPC server started", "addr", lis.Addr().String())
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		appLogger.Info("metrics server started", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		appLogger.Info("shutting down")
		healthServer.Shutdown()
		uc.ReconciliationUsecase.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("metrics server shutdown failed", "error", err)
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("service stopped with error", "error", err)
	}
}
