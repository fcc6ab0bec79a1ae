package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/utility"
	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"golang.org/x/sync/errgroup"
)

// healthHandler reports storage status next to host load. Host metrics are
// best effort and never fail the request.
func (s *Server) healthHandler(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	var (
		storage map[string]string
		system  map[string]interface{}
	)

	g, grpCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		storage = s.storage.Health()
		return nil
	})
	g.Go(func() error {
		system = hostStats(grpCtx)
		return nil
	})
	if err := g.Wait(); err != nil {
		utility.Logger(c).Error().Err(err).Msg("Health check failed")
	}

	status := http.StatusOK
	if storage["status"] != "up" {
		status = http.StatusServiceUnavailable
	}

	_, loggedIn := s.auth.Store().CurrentUser()
	return c.JSON(status, map[string]interface{}{
		"storage":     storage,
		"system":      system,
		"logged_in":   loggedIn,
		"ws_clients":  s.hub.Len(),
		"server_time": time.Now().UTC().Format(time.RFC3339),
	})
}

func hostStats(ctx context.Context) map[string]interface{} {
	stats := make(map[string]interface{})

	if v, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats["ram_usage"] = fmt.Sprintf("%.1f%%", v.UsedPercent)
	}
	if p, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(p) > 0 {
		stats["cpu_load"] = fmt.Sprintf("%.1f%%", p[0])
	}
	if d, err := disk.UsageWithContext(ctx, "/"); err == nil {
		stats["disk_usage"] = fmt.Sprintf("%.1f%%", d.UsedPercent)
	}
	if up, err := host.UptimeWithContext(ctx); err == nil {
		stats["uptime"] = (time.Duration(up) * time.Second).String()
	}

	return stats
}
