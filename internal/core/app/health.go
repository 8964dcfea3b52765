package app

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}
	if err := ctx.Err(); err != nil {
		status.Status = "down"
		status.Components["context"] = err.Error()
		return status
	}

	// Models directory
	if entries, err := os.ReadDir(s.app.Paths.ModelsDir); err != nil {
		status.Status = "degraded"
		status.Components["models"] = fmt.Sprintf("unreadable: %v", err)
	} else {
		status.Components["models"] = fmt.Sprintf("ok (%d entries)", len(entries))
	}

	// History store
	if s.app.history != nil {
		status.Components["history"] = "ok"
	} else if s.app.config().DB.Enabled {
		status.Status = "degraded"
		status.Components["history"] = "missing but enabled in config"
	} else {
		status.Components["history"] = "disabled"
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	status.Components["heap_mb"] = fmt.Sprintf("%d", mem.Alloc/1024/1024)

	return status
}
