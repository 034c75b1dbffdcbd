package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/inspiring-reading/exam-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	refreshInterval   = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second // a slow query must not stall the stream
)

// MonitorSubscriber opens the pub/sub channel of an exam.
type MonitorSubscriber interface {
	Subscribe(ctx context.Context, examID int64) *redis.PubSub
}

// MonitorHandler streams live exam activity to admins.
type MonitorHandler struct {
	monitorService *service.MonitorService
	subscriber     MonitorSubscriber
	log            zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(monitorService *service.MonitorService, subscriber MonitorSubscriber, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		monitorService: monitorService,
		subscriber:     subscriber,
		log:            log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorExamSSE godoc
// GET /api/v1/admin/exams/:exam_id/monitor
// Sends a snapshot, then forwards session events as they happen. A fresh
// snapshot follows every refresh interval in which something happened.
func (h *MonitorHandler) MonitorExamSSE(c *gin.Context) {
	examID, ok := examIDParam(c)
	if !ok {
		return
	}
	reqCtx := c.Request.Context()

	// Subscribe first so events raised while the snapshot is read still
	// reach the stream.
	pubsub := h.subscriber.Subscribe(reqCtx, examID)
	defer pubsub.Close()
	if _, err := pubsub.Receive(reqCtx); err != nil {
		failWith(c, h.log, err)
		return
	}
	ch := pubsub.Channel()

	snap, err := h.monitorService.Snapshot(reqCtx, examID)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("snapshot", snap)
	c.Writer.Flush()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	refreshTicker := time.NewTicker(refreshInterval)
	defer refreshTicker.Stop()

	// Skip refresh queries while nothing is happening.
	dirty := false

	h.log.Info().Int64("exam_id", examID).Msg("Admin attached to live monitor SSE")

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Int64("exam_id", examID).Msg("Admin disconnected from live monitor SSE")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			// Payloads are already JSON; forward them untouched.
			_, _ = c.Writer.WriteString("event: " + string(eventName(msg.Payload)) + "\ndata: " + msg.Payload + "\n\n")
			c.Writer.Flush()
			dirty = true

		case <-refreshTicker.C:
			if !dirty {
				continue
			}
			dirty = false
			h.sendRefresh(c, reqCtx, examID)

		case <-keepAliveTicker.C:
			_, _ = c.Writer.WriteString(": ping\n\n")
			c.Writer.Flush()
		}
	}
}

func (h *MonitorHandler) sendRefresh(c *gin.Context, parent context.Context, examID int64) {
	ctx, cancel := context.WithTimeout(parent, refreshTimeout)
	defer cancel()

	snap, err := h.monitorService.Snapshot(ctx, examID)
	if err != nil {
		h.log.Warn().Err(err).Int64("exam_id", examID).Msg("Monitor refresh failed")
		return
	}
	c.SSEvent("snapshot", snap)
	c.Writer.Flush()
}

// eventName names the SSE event after the monitor event type.
func eventName(payload string) model.MonitorEventType {
	var ev model.MonitorEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil || ev.Type == "" {
		return "message"
	}
	return ev.Type
}
