package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RerankProbe checks whether the optional remote re-ranker is reachable.
// The probe is a liveness signal only: the engine never blocks a scan on it
// and probe failure is never surfaced to the shopper.
type RerankProbe struct {
	httpClient *http.Client
	url        string
	logger     *zap.Logger

	mu          sync.RWMutex
	online      bool
	lastChecked time.Time
}

// ProbeStatus is the last observed re-ranker state
type ProbeStatus struct {
	Configured  bool      `json:"configured"`
	Online      bool      `json:"online"`
	LastChecked time.Time `json:"lastChecked,omitempty"`
}

// NewRerankProbe builds a probe for the given re-ranker URL. An empty URL
// yields a probe that always reports unconfigured.
func NewRerankProbe(url string, timeout time.Duration, logger *zap.Logger) *RerankProbe {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &RerankProbe{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		logger:     logger,
	}
}

// Check POSTs an empty candidate set to the re-ranker and records whether it
// answered. Any 2xx counts as online.
func (p *RerankProbe) Check(ctx context.Context) bool {
	if p.url == "" {
		return false
	}

	body, _ := json.Marshal(map[string]any{"candidates": []any{}})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		p.record(false)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Debug("reranker probe failed", zap.String("url", p.url), zap.Error(err))
		p.record(false)
		return false
	}
	defer resp.Body.Close()

	online := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !online {
		p.logger.Debug("reranker probe unhealthy",
			zap.String("url", p.url),
			zap.String("status", fmt.Sprintf("%d", resp.StatusCode)))
	}
	p.record(online)
	return online
}

func (p *RerankProbe) record(online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online = online
	p.lastChecked = time.Now()
}

// Status returns the last observed probe result
func (p *RerankProbe) Status() ProbeStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return ProbeStatus{
		Configured:  p.url != "",
		Online:      p.online,
		LastChecked: p.lastChecked,
	}
}
