package importer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Checker periodically checks every source and records its availability:
// HEAD for HTTP sources, PING for redis:// sources.
type Checker struct {
	sources  *SourceDB
	logger   *slog.Logger
	interval time.Duration
	client   *http.Client
}

// CheckReport summarizes one pass over the sources.
type CheckReport struct {
	OK          int
	Unavailable []string // adapter IDs
}

func NewChecker(sources *SourceDB, logger *slog.Logger, interval time.Duration) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{
		sources:  sources,
		logger:   logger,
		interval: interval,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Start checks immediately, then every interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	c.CheckAll(ctx)
	if c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll checks every source and persists each result. Statuses below
// 400 count as available: sources may legitimately redirect.
func (c *Checker) CheckAll(ctx context.Context) CheckReport {
	var report CheckReport

	sources, err := c.sources.ListSources()
	if err != nil {
		c.logger.Error("source check: list sources", "error", err)
		return report
	}

	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}

		status, checkErr := c.reach(ctx, src.SourceURL)
		msg := ""
		if checkErr != nil {
			msg = checkErr.Error()
		}
		if err := c.sources.UpdateCheck(src.AdapterID, status, msg); err != nil {
			c.logger.Error("source check: store result", "adapter", src.AdapterID, "error", err)
		}

		if status >= 200 && status < 400 {
			report.OK++
			continue
		}
		report.Unavailable = append(report.Unavailable, src.AdapterID)
		c.logger.Warn("source unavailable",
			"adapter", src.AdapterID,
			"dict", src.DictID,
			"url", src.SourceURL,
			"status", status,
			"error", msg,
		)
	}

	if len(sources) > 0 {
		c.logger.Info("source check complete", "ok", report.OK, "unavailable", len(report.Unavailable))
	}
	return report
}

// reach returns an HTTP-style status for url, 0 on network error.
func (c *Checker) reach(ctx context.Context, url string) (int, error) {
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		return c.pingRedis(ctx, url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HEAD %s: %w", url, err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// pingRedis reports 200 when the server answers PING.
func (c *Checker) pingRedis(ctx context.Context, url string) (int, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return 0, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = c.client.Timeout
	client := redis.NewClient(opts)
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("PING %s: %w", opts.Addr, err)
	}
	return http.StatusOK, nil
}
