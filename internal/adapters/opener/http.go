package opener

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"secretariat_import/internal/logger"
	"secretariat_import/internal/ports"

	"go.uber.org/zap"
)

type HTTPOpener struct {
	Client *http.Client
	log    *zap.Logger
}

func NewHTTPOpener(cli *http.Client, log *zap.Logger) *HTTPOpener {
	if cli == nil {
		cli = &http.Client{Timeout: 5 * time.Minute}
	}
	return &HTTPOpener{Client: cli, log: logger.OrNop(log)}
}

func (h *HTTPOpener) Open(ctx context.Context, url string) (io.ReadCloser, ports.Meta, error) {
	h.log.Info("[OPENER][HTTP][START]", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, ports.Meta{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		h.log.Error("[OPENER][HTTP][ERR] do request", zap.Error(err))
		return nil, ports.Meta{}, err
	}

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		h.log.Error("[OPENER][HTTP][ERR] unexpected status",
			zap.Int("status", resp.StatusCode),
			zap.String("content_type", ct),
		)
		return nil, ports.Meta{}, fmt.Errorf("http status %d", resp.StatusCode)
	}

	size := resp.ContentLength
	if size < 0 {
		size = -1
	}
	h.log.Info("[OPENER][HTTP][OK]", zap.String("content_type", ct), zap.Int64("size", size))

	return resp.Body, ports.Meta{
		Source:      "https",
		ContentType: ct,
		Size:        size,
	}, nil
}
