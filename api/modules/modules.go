package modules

import (
	"fmt"

	"agendasmart/api/handlers"
	"agendasmart/api/services"
	"agendasmart/pkg/bootstrap"
	"agendasmart/pkg/bucket"
	"agendasmart/pkg/config"
	"agendasmart/pkg/storage"

	"github.com/gin-gonic/gin"
)

// Module containing the necessary handlers.
type Module struct {
	Router          *gin.Engine
	Stack           *bootstrap.Stack
	Objects         bucket.ObjectStore
	SnapshotService *services.SnapshotService
	KVHandler       *handlers.KVHandler
	SyncHandler     *handlers.SyncHandler
	SnapshotHandler *handlers.SnapshotHandler
	OpsHandler      *handlers.OpsHandler
	RoutineHandler  *handlers.RoutineHandler
	WidgetHandler   *handlers.WidgetHandler
}

// Create a new module with all the necessary handlers initialized.
func NewModule(cfg *config.Config, logger storage.Logger) (*Module, error) {
	stack, err := bootstrap.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("couldn't start the storage: %w", err)
	}

	var objects bucket.ObjectStore
	if cfg.Bucket.Enabled() {
		objects = bucket.NewClient(cfg.Bucket)
	}

	// Initialize the services.
	snapshotService := services.NewSnapshotService(stack.Facade, objects, cfg.Bucket.SnapshotBucket)

	// Return the module with all handlers.
	return &Module{
		Router:          gin.Default(),
		Stack:           stack,
		Objects:         objects,
		SnapshotService: snapshotService,
		KVHandler:       handlers.NewKVHandler(stack.Facade),
		SyncHandler:     handlers.NewSyncHandler(stack.Facade),
		SnapshotHandler: handlers.NewSnapshotHandler(snapshotService),
		OpsHandler:      handlers.NewOpsHandler(stack.Facade),
		RoutineHandler:  handlers.NewRoutineHandler(stack.Facade),
		WidgetHandler:   handlers.NewWidgetHandler(stack.Facade),
	}, nil
}

// Handlers lists every handler for the router.
func (m *Module) Handlers() []any {
	return []any{m.KVHandler, m.SyncHandler, m.SnapshotHandler, m.OpsHandler, m.RoutineHandler, m.WidgetHandler}
}

// Close the storage.
func (m *Module) Close() error {
	return m.Stack.Close()
}
