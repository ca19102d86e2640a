package gm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/partygm/internal/codec"
	"github.com/danielpatrickdp/partygm/internal/config"
)

// #region client

// Client drives one model request at a time through the call state
// machine, retrying transient transport failures with linear backoff.
type Client struct {
	transport codec.Transport
	cfg       config.Config
	logger    *zap.Logger
	sleep     func(time.Duration) // swapped out in tests
}

// NewClient wires a client over the given transport.
func NewClient(transport codec.Transport, cfg config.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		transport: transport,
		cfg:       cfg,
		logger:    logger,
		sleep:     time.Sleep,
	}
}

// #endregion client

// #region call

// Call issues the request and returns a validated response. Transient
// failures are retried up to MaxRetries times with RetryDelayMs x
// attempt backoff, preserving the original request. Contract
// violations are terminal immediately. Responses failing the safety
// gate come back as the fixed safe fallback, never as an error.
func (c *Client) Call(ctx context.Context, req Request) (Response, error) {
	payload, err := userPayload(req)
	if err != nil {
		return Response{}, &Error{Op: "build", Retryable: false, Err: err}
	}
	completion := codec.CompletionRequest{
		System:      systemPrompt(req.RequestType),
		User:        payload,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxOutputTokens,
		TopP:        c.cfg.TopP,
	}

	attempt := 0
	for {
		attempt++
		raw, err := c.transport.Complete(ctx, completion)
		if err != nil {
			if retryable(err) && attempt <= c.cfg.MaxRetries {
				delay := time.Duration(c.cfg.RetryDelayMs*attempt) * time.Millisecond
				c.logger.Warn("transient model failure, backing off",
					zap.String("state", string(StateRetrying)),
					zap.Int("attempt", attempt),
					zap.Duration("delay", delay),
					zap.Error(err))
				c.sleep(delay)
				continue
			}
			c.logger.Error("model call failed terminally",
				zap.String("state", string(StateFailed)),
				zap.Int("attempts", attempt),
				zap.Error(err))
			return Response{}, terminalError(err)
		}

		resp, err := Decode(raw)
		if err != nil {
			c.logger.Error("model response violated contract",
				zap.String("state", string(StateFailed)),
				zap.Error(err))
			return Response{}, err
		}

		resp, substituted := gate(resp)
		if substituted {
			c.logger.Warn("response failed safety gate, substituting fallback",
				zap.String("request_type", string(req.RequestType)),
				zap.String("session_id", req.SessionID))
		}
		return resp, nil
	}
}

// #endregion call

// #region classification

// retryable reports whether a transport failure is worth another
// attempt: timeouts, network errors, rate limiting, and the transient
// server statuses. Everything else is terminal.
func retryable(err error) bool {
	var terr *codec.TransportError
	if !errors.As(err, &terr) {
		return false
	}
	if terr.Timeout || terr.StatusCode == 0 {
		return true
	}
	switch terr.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// terminalError wraps the last transport failure into the boundary
// error type. The retry budget is spent, so Retryable is false either
// way; the status code survives for diagnostics.
func terminalError(err error) error {
	status := 0
	var terr *codec.TransportError
	if errors.As(err, &terr) {
		status = terr.StatusCode
	}
	return &Error{
		Op:         "call",
		Retryable:  false,
		StatusCode: status,
		Err:        err,
	}
}

// #endregion classification
