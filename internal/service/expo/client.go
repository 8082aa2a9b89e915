package expo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"NotifyInvest/internal/domain/models"
	domrepo "NotifyInvest/internal/domain/repository"
	"NotifyInvest/internal/service/ratelimit"
	pkghttp "NotifyInvest/pkg/http"
	"NotifyInvest/pkg/logger"
)

const (
	DefaultURL = "https://exp.host/--/api/v2/push/send"

	// MockToken marks development registrations. Tokens containing it
	// (and lacking the Expo prefix) are logged and counted as delivered
	// without hitting the gateway.
	MockToken = "MOCK_TOKEN"

	limiterKey = "expo"
)

// message is the Expo push API request body.
type message struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Sound string            `json:"sound"`
	Data  models.SignalData `json:"data"`
}

// ticketResponse is the per-message receipt returned by the gateway.
type ticketResponse struct {
	Data struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Details struct {
			Error string `json:"error"`
		} `json:"details"`
	} `json:"data"`
}

// Client delivers notifications through the Expo push gateway.
type Client struct {
	url     string
	http    *pkghttp.Client
	limiter *ratelimit.Limiter
	rate    float64
	burst   float64
	log     *logger.Logger
}

type Option func(*Client)

func WithURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.url = url
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http = pkghttp.NewClient(pkghttp.WithTimeout(timeout))
		}
	}
}

// WithRateLimit throttles outbound pushes to ratePerSec with the given burst.
func WithRateLimit(ratePerSec float64, burst int) Option {
	return func(c *Client) {
		if ratePerSec > 0 {
			c.rate = ratePerSec
			c.burst = float64(burst)
			if c.burst < 1 {
				c.burst = 1
			}
		}
	}
}

func NewClient(log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		url:     DefaultURL,
		http:    pkghttp.NewClient(),
		limiter: ratelimit.New(),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Push sends one notification to token. It returns ErrTokenGone when the
// gateway reports the device is no longer registered, so callers can
// deactivate the token instead of retrying forever.
func (c *Client) Push(ctx context.Context, token string, n *models.PushNotification) error {
	if !strings.HasPrefix(token, "ExponentPushToken") && strings.Contains(token, MockToken) {
		c.log.Info("mock push", logger.String("token", token), logger.String("title", n.Title))
		return nil
	}

	if c.rate > 0 {
		if err := c.limiter.WaitAllow(ctx, limiterKey, c.burst, c.rate); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	msg := message{
		To:    token,
		Title: n.Title,
		Body:  n.Body,
		Sound: "default",
		Data:  n.Data,
	}

	var ticket ticketResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    c.url,
		Body:   msg,
	}, &ticket)
	if err != nil {
		return fmt.Errorf("expo push: %w", err)
	}

	if ticket.Data.Status == "error" {
		if ticket.Data.Details.Error == "DeviceNotRegistered" {
			return domrepo.ErrTokenGone
		}
		return fmt.Errorf("expo ticket error: %s", ticket.Data.Message)
	}

	return nil
}
