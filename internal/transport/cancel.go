package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

const cancelPath = "/api/cancel-crawl"

type cancelRequest struct {
	CrawlID string `json:"crawl_id"`
	Action  string `json:"action"`
}

// SendCancel issues the out-of-band cancel for a session. It is fire and
// forget: failures are logged, never surfaced.
func (t *Transport) SendCancel(ctx context.Context, crawlID string) {
	body, err := json.Marshal(cancelRequest{CrawlID: crawlID, Action: "cancel"})
	if err != nil {
		t.log.Warn("encode cancel request", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.httpBase+cancelPath, bytes.NewReader(body))
	if err != nil {
		t.log.Warn("build cancel request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpc.Do(req)
	if err != nil {
		t.log.Warn("out-of-band cancel failed", zap.String("crawl_id", crawlID), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.log.Warn("out-of-band cancel rejected",
			zap.String("crawl_id", crawlID), zap.Int("status", resp.StatusCode))
		return
	}
	t.log.Debug("out-of-band cancel acknowledged", zap.String("crawl_id", crawlID))
}
