package app

import (
	"fmt"
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

func (s *HealthService) Check() HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: s.Components(),
	}
	for _, v := range status.Components {
		if v != "ok" {
			status.Status = "degraded"
		}
	}
	return status
}

// Components reports each subsystem as "ok" or a reason it is not.
func (s *HealthService) Components() map[string]string {
	c := make(map[string]string)

	if s.app.Parser != nil {
		c["parser"] = "ok"
	} else {
		c["parser"] = "missing"
	}

	if ids := s.app.RuleNames(); len(ids) > 0 {
		c["analyzers"] = "ok"
	} else {
		c["analyzers"] = "none registered"
	}

	if s.app.history != nil {
		c["history"] = "ok"
	} else if s.app.currentConfig().History.Enabled {
		c["history"] = "missing but enabled in config"
	}

	if res, ok := s.app.LastResult(); ok && res.Summary.Failed > 0 {
		c["last_run"] = fmt.Sprintf("%d files could not be analyzed", res.Summary.Failed)
	} else {
		c["last_run"] = "ok"
	}
	return c
}
