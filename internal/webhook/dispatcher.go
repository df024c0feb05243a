// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/olegiv/polyglot-go/internal/util"
)

// Delivery tuning.
const (
	DefaultWorkers   = 3
	DefaultQueueSize = 100
	MaxAttempts      = 5
	RequestTimeout   = 30 * time.Second
	MaxResponseLen   = 10 * 1024
	UserAgent        = "polyglot/1.0"
)

// Endpoint is one configured webhook receiver.
type Endpoint struct {
	Name   string
	URL    string
	Secret string
}

// Config tunes the dispatcher.
type Config struct {
	Workers        int
	QueueSize      int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// AllowPrivateEndpoints disables the SSRF guard. Only for
	// development and tests.
	AllowPrivateEndpoints bool
}

// Dispatcher queues signed deliveries and works them off with a fixed
// pool.
type Dispatcher struct {
	endpoints []Endpoint
	log       *slog.Logger
	cfg       Config
	client    *http.Client

	queue   chan *delivery
	wg      sync.WaitGroup
	done    chan struct{}
	mu      sync.RWMutex
	running bool
}

type delivery struct {
	ID       string
	Event    string
	Payload  []byte
	Endpoint Endpoint
	attempt  int
}

// NewDispatcher validates the endpoint URLs and builds the dispatcher.
func NewDispatcher(endpoints []Endpoint, log *slog.Logger, cfg Config) (*Dispatcher, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Minute
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 24 * time.Hour
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if !cfg.AllowPrivateEndpoints {
		for _, ep := range endpoints {
			if err := util.ValidateWebhookURL(ep.URL); err != nil {
				return nil, fmt.Errorf("webhook endpoint %q: %w", ep.Name, err)
			}
		}
		transport.DialContext = util.SSRFSafeDialContext(&net.Dialer{Timeout: 10 * time.Second})
	}

	return &Dispatcher{
		endpoints: endpoints,
		log:       log,
		cfg:       cfg,
		client:    &http.Client{Timeout: RequestTimeout, Transport: transport},
		queue:     make(chan *delivery, cfg.QueueSize),
		done:      make(chan struct{}),
	}, nil
}

// Start launches the worker pool. Idempotent.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.log.Info("starting webhook dispatcher",
		"workers", d.cfg.Workers, "endpoints", len(d.endpoints))
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// Stop drains the workers and waits for in-flight deliveries.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	close(d.done)
	d.wg.Wait()
	d.log.Info("webhook dispatcher stopped")
}

// Dispatch signs and queues event for every endpoint. A full queue drops
// the delivery with a warning rather than blocking the caller.
func (d *Dispatcher) Dispatch(event *Event) {
	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()
	if !running || len(d.endpoints) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		d.log.Error("marshaling webhook event", "type", event.Type, "error", err)
		return
	}

	for _, ep := range d.endpoints {
		del := &delivery{
			ID:       event.ID,
			Event:    event.Type,
			Payload:  payload,
			Endpoint: ep,
		}
		select {
		case d.queue <- del:
		default:
			d.log.Warn("webhook queue full, dropping delivery",
				"endpoint", ep.Name, "event", event.Type, "delivery", event.ID)
		}
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.done:
			return
		case del := <-d.queue:
			d.deliver(del)
		}
	}
}

// deliver runs the retry ladder for one delivery. Between attempts it
// sleeps the backoff but aborts promptly on Stop.
func (d *Dispatcher) deliver(del *delivery) {
	for del.attempt = 1; del.attempt <= MaxAttempts; del.attempt++ {
		status, retryable, err := d.attempt(del)
		if err == nil {
			d.log.Info("webhook delivered",
				"endpoint", del.Endpoint.Name, "event", del.Event,
				"delivery", del.ID, "status", status, "attempt", del.attempt)
			return
		}
		if !retryable || del.attempt == MaxAttempts {
			d.log.Warn("webhook delivery dead",
				"endpoint", del.Endpoint.Name, "event", del.Event,
				"delivery", del.ID, "attempts", del.attempt, "error", err)
			return
		}

		backoff := d.backoff(del.attempt)
		d.log.Info("webhook delivery will retry",
			"endpoint", del.Endpoint.Name, "delivery", del.ID,
			"attempt", del.attempt, "backoff", backoff.String(), "error", err)
		select {
		case <-d.done:
			return
		case <-time.After(backoff):
		}
	}
}

// attempt performs one HTTP POST. Returns the status code, whether the
// failure is retryable, and the error.
func (d *Dispatcher) attempt(del *delivery) (int, bool, error) {
	req, err := http.NewRequest(http.MethodPost, del.Endpoint.URL, bytes.NewReader(del.Payload))
	if err != nil {
		return 0, false, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Polyglot-Signature", Sign(del.Payload, del.Endpoint.Secret))
	req.Header.Set("X-Polyglot-Event", del.Event)
	req.Header.Set("X-Polyglot-Delivery", del.ID)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, true, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseLen))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp.StatusCode, false, nil
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= http.StatusInternalServerError:
		return resp.StatusCode, true, fmt.Errorf("HTTP %d", resp.StatusCode)
	default:
		// Remaining 4xx means the receiver rejected the payload for
		// good; retrying cannot help.
		return resp.StatusCode, false, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
}

func (d *Dispatcher) backoff(attempt int) time.Duration {
	backoff := d.cfg.InitialBackoff << (attempt - 1)
	if backoff > d.cfg.MaxBackoff || backoff <= 0 {
		backoff = d.cfg.MaxBackoff
	}
	return backoff
}

// Sign computes the hex HMAC-SHA256 of payload under secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches payload under secret.
func VerifySignature(payload []byte, signature, secret string) bool {
	return hmac.Equal([]byte(signature), []byte(Sign(payload, secret)))
}
