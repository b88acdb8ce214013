package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcserver "agendasmart/api/grpc"
	"agendasmart/api/modules"
	"agendasmart/api/routes"
	"agendasmart/pkg/config"
	"agendasmart/pkg/logger"
	"agendasmart/pkg/routine"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Couldn't initialize the configuration: %v", err)
	}

	logs, err := logger.CreateConsoleLogger()
	if err != nil {
		log.Fatalf("Couldn't create the logger: %v", err)
	}
	defer logs.Close()

	// Create a module with all necessary handlers.
	module, err := modules.NewModule(cfg, logs)
	if err != nil {
		log.Fatalf("Couldn't create the module: %v", err)
	}

	// Pull what other devices wrote while we were offline, then seed what is still missing.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if !routine.Startup(ctx, module.Stack.Facade, module.Stack.Facade.Remote().Enabled()) {
		logs.Warnf("startup sync finished with errors, defaults were not seeded")
	}
	cancel()

	// Create a new router with the routes setup.
	router := routes.NewRouter(module.Router)
	router.SetupRoutes(module.Handlers()...)

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router.Engine,
	}
	go func() {
		log.Printf("Running HTTP server on %s.", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve http: %v", err)
		}
	}()

	grpcServer, healthServer := startGRPCServer(cfg.Server.GRPCAddr, module)

	// Shutdown everything.
	handleShutdown(httpServer, grpcServer, healthServer, module)
}

// Start the grpc server of the key/value service.
func startGRPCServer(addr string, module *modules.Module) (*grpc.Server, *health.Server) {
	// Start a TPC listener.
	list, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("Couldn't start the tcp server: %v", err)
	}

	grpcServer, healthServer := grpcserver.NewServer(module.Stack.Facade, module.SnapshotService)

	// Run a go routine for the grpc server.
	go func() {
		log.Printf("Running gRPC server on %s.", addr)
		if err := grpcServer.Serve(list); err != nil {
			log.Fatalf("Failed to serve grpc: %v", err)
		}
	}()

	return grpcServer, healthServer
}

// Handle the shutdown of the whole server.
func handleShutdown(httpServer *http.Server, grpcServer *grpc.Server, healthServer *health.Server, module *modules.Module) {
	// Create the signal channel.
	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)
	<-signalChannel

	log.Println("Shutting down...")

	// Set it to not serving.
	healthServer.SetServingStatus(grpcserver.ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down the http server: %v", err)
	}
	grpcServer.GracefulStop()

	// Waits for the remote writes in flight.
	if err := module.Close(); err != nil {
		log.Printf("Error closing the storage: %v", err)
	}
}
