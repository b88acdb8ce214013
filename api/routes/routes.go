package routes

import (
	"agendasmart/api/handlers"

	"github.com/gin-gonic/gin"
)

type Router struct {
	Engine *gin.Engine
	api    *gin.RouterGroup
}

func NewRouter(engine *gin.Engine) *Router {
	return &Router{
		api:    engine.Group("/api/v1"),
		Engine: engine,
	}
}

func (r *Router) SetupRoutes(handlerList ...any) {
	for _, h := range handlerList {
		switch handler := h.(type) {
		case *handlers.KVHandler:
			r.registerKVHandler(handler)
		case *handlers.SyncHandler:
			r.registerSyncHandler(handler)
		case *handlers.SnapshotHandler:
			r.registerSnapshotHandler(handler)
		case *handlers.OpsHandler:
			r.registerOpsHandler(handler)
		case *handlers.RoutineHandler:
			r.registerRoutineHandler(handler)
		case *handlers.WidgetHandler:
			r.registerWidgetHandler(handler)
		}
	}
}

// Register the key routes.
func (r *Router) registerKVHandler(handler *handlers.KVHandler) {
	kv := r.api.Group("/kv")
	{
		kv.GET("", handler.ListKeys)
		kv.GET("/:key", handler.GetItem)
		kv.PUT("/:key", handler.PutItem)
		kv.DELETE("/:key", handler.DeleteItem)
	}
}

// Register the reconciliation routes.
func (r *Router) registerSyncHandler(handler *handlers.SyncHandler) {
	r.api.POST("/sync", handler.Sync)
	r.api.POST("/sync/force", handler.ForceSync)
	r.api.GET("/diagnose", handler.Diagnose)
}

// Register the routines document routes.
func (r *Router) registerSnapshotHandler(handler *handlers.SnapshotHandler) {
	routines := r.api.Group("/routines")
	{
		routines.GET("/export", handler.Export)
		routines.POST("/import", handler.Import)
	}
}

// Register the health and metrics routes.
func (r *Router) registerOpsHandler(handler *handlers.OpsHandler) {
	r.api.GET("/health", handler.Health)
	r.api.GET("/metrics", handler.Metrics)
}

// Register the routine and notification settings routes.
func (r *Router) registerRoutineHandler(handler *handlers.RoutineHandler) {
	routines := r.api.Group("/routines")
	{
		routines.GET("", handler.List)
		routines.POST("", handler.Create)
		routines.GET("/active", handler.Active)
		routines.PUT("/active", handler.Activate)
		routines.GET("/today", handler.Today)
		routines.GET("/:id", handler.Get)
		routines.PUT("/:id", handler.Update)
		routines.DELETE("/:id", handler.Delete)
		routines.POST("/:id/duplicate", handler.Duplicate)
	}

	r.api.GET("/notifications/settings", handler.Settings)
	r.api.PUT("/notifications/settings", handler.UpdateSettings)
}

// Register the widget routes.
func (r *Router) registerWidgetHandler(handler *handlers.WidgetHandler) {
	widgets := r.api.Group("/widgets")
	{
		widgets.GET("", handler.List)
		widgets.POST("", handler.Add)
		widgets.DELETE("", handler.Clear)
		widgets.POST("/:id/toggle", handler.Toggle)
		widgets.DELETE("/:id", handler.Delete)
		widgets.PUT("/:id/plate", handler.SetPlate)
		widgets.POST("/:id/items", handler.AddItem)
		widgets.PUT("/:id/items/:itemId", handler.EditItem)
		widgets.POST("/:id/items/:itemId/toggle", handler.ToggleItem)
		widgets.DELETE("/:id/items/:itemId", handler.DeleteItem)
	}
}

// Start the router.
func (r *Router) Run(addr string) error {
	return r.Engine.Run(addr)
}
