package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcserver "agendasmart/api/grpc"
	"agendasmart/pkg/bucket"
	"agendasmart/pkg/config"
	"agendasmart/pkg/logger"
	"agendasmart/scheduler/jobs"

	"github.com/go-co-op/gocron/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
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

	// Connect to the api grpc, it owns the local store.
	grpcClient, err := grpc.NewClient(cfg.Server.GRPCTarget, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Error to connect to the gRPC server: %v", err)
	}
	defer grpcClient.Close()

	client := grpcserver.NewClient(grpcClient)

	log.Println("Starting scheduler.")

	// Create a new scheduler with options.
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.Local),
	)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	// Pull the remote table every five minutes.
	_, err = s.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(jobs.SyncRemote, client, logs),
		gocron.WithName("remote-sync"),
		gocron.WithTags("sync"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		log.Fatalf("Failed to create sync job: %v", err)
	}

	// Check the event boundaries twice a minute.
	_, err = s.NewJob(
		gocron.DurationJob(30*time.Second),
		gocron.NewTask(
			jobs.NotifyDue,
			client.AsStore(10*time.Second, logs),
			jobs.LogNotifier{Logger: logs},
			time.Now,
			logs,
		),
		gocron.WithName("notifications"),
		gocron.WithTags("notify"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Fatalf("Failed to create notification job: %v", err)
	}

	if cfg.Bucket.Enabled() {
		objects := bucket.NewClient(cfg.Bucket)

		if cfg.Bucket.LogBucket != "" {
			_, err = s.NewJob(
				gocron.DurationJob(time.Hour),
				gocron.NewTask(jobs.UploadLogs, logs, objects, cfg.Bucket.LogBucket, time.Now),
				gocron.WithName("log-upload"),
				gocron.WithTags("logs"),
			)
			if err != nil {
				log.Fatalf("Failed to create log upload job: %v", err)
			}
		}

		if cfg.Bucket.SnapshotBucket != "" {
			// Daily routines snapshot at 3:00 AM.
			_, err = s.NewJob(
				gocron.DailyJob(
					1,
					gocron.NewAtTimes(
						gocron.NewAtTime(3, 0, 0),
					),
				),
				gocron.NewTask(jobs.SnapshotRoutines, client, objects, cfg.Bucket.SnapshotBucket, time.Now),
				gocron.WithName("routines-snapshot"),
				gocron.WithTags("snapshot"),
			)
			if err != nil {
				log.Fatalf("Failed to create snapshot job: %v", err)
			}
		}
	}

	// Start the scheduler.
	s.Start()

	defer func() {
		// Shutdown the scheduler when main() exits.
		err := s.Shutdown()
		if err != nil {
			log.Printf("Error shutting down scheduler: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for termination signal.
	<-sigChan
	log.Println("Shutting down scheduler...")
}
