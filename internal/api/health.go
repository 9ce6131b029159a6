package api

import (
	"net/http"
	"time"

	"github.com/snarg/caption-engine/internal/mqttclient"
	"github.com/snarg/caption-engine/internal/stream"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Engine        string            `json:"engine"`
	Streams       int               `json:"streams"`
	Checks        map[string]string `json:"checks"`
}

// ModelStatusSource reports the state of a watched model file. Implemented by
// transcribe.ModelWatcher; nil when the engine has no on-disk model.
type ModelStatusSource interface {
	Status() string
}

type HealthHandler struct {
	mgr        *stream.Manager
	mqtt       *mqttclient.Client
	model      ModelStatusSource
	engineName string
	version    string
	startTime  time.Time
}

func NewHealthHandler(mgr *stream.Manager, mqtt *mqttclient.Client, model ModelStatusSource, engineName, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		mgr:        mgr,
		mqtt:       mqtt,
		model:      model,
		engineName: engineName,
		version:    version,
		startTime:  startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	// MQTT check
	if h.mqtt != nil {
		if h.mqtt.IsConnected() {
			checks["mqtt"] = "ok"
		} else {
			checks["mqtt"] = "disconnected"
			status = "degraded"
		}
	} else {
		checks["mqtt"] = "not_configured"
	}

	// Model file check
	if h.model != nil {
		ms := h.model.Status()
		checks["model_file"] = ms
		if ms == "missing" {
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		}
	}

	// A caption engine with no open stream serves nothing
	if h.mgr.Count() == 0 {
		checks["streams"] = "none_open"
		if status == "healthy" {
			status = "degraded"
		}
	} else {
		checks["streams"] = "ok"
	}

	WriteJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Engine:        h.engineName,
		Streams:       h.mgr.Count(),
		Checks:        checks,
	})
}
