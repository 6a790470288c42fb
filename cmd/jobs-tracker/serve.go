package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/jobs-tracker/internal/async"
	"github.com/joseph-ayodele/jobs-tracker/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		httpAddr string
		grpcAddr string
		workers  int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and gRPC health endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if httpAddr == "" {
				httpAddr = a.cfg.Server.HTTPAddr
			}
			if grpcAddr == "" {
				grpcAddr = a.cfg.Server.GRPCAddr
			}
			logger := a.logger

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			queue := async.NewProcessorQueue(a.runner, logger,
				async.WithWorkers(workers),
				async.WithQueueSize(512),
				async.WithProcessTimeout(3*time.Minute),
			)

			httpServer := &http.Server{
				Addr:              httpAddr,
				Handler:           server.New(server.Deps{Runner: a.runner, Coordinator: a.coordinator, Queue: queue}, logger).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			grpcServer, health := server.NewGRPCServer()
			lis, err := net.Listen("tcp", grpcAddr)
			if err != nil {
				return err
			}

			errc := make(chan error, 2)
			go func() {
				logger.Info("grpc.listen", "addr", grpcAddr)
				errc <- grpcServer.Serve(lis)
			}()
			go func() {
				logger.Info("http.listen", "addr", httpAddr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
			}()

			select {
			case <-ctx.Done():
			case err = <-errc:
				logger.Error("server.failed", "error", err)
			}

			logger.Info("server.shutdown")
			health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
			queue.Shutdown(shutdownCtx)
			grpcServer.GracefulStop()
			return err
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP listen address (default HTTP_ADDR)")
	cmd.Flags().StringVar(&grpcAddr, "grpc-addr", "", "gRPC health listen address (default GRPC_ADDR)")
	cmd.Flags().IntVar(&workers, "workers", 4, "background workers for async jobs")
	return cmd
}
