package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/ward-mar-api/internal/models"
	appErrors "github.com/noah-isme/ward-mar-api/pkg/errors"
)

const (
	snapshotPath = "/mar/snapshot"
	itemsPath    = "/mar/items"
	healthPath   = "/health"
)

// WardDirectoryConfig configures the REST client.
type WardDirectoryConfig struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	RetryCount int
}

// WardDirectoryClient fetches MAR collections from the ward directory REST API.
type WardDirectoryClient struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewWardDirectoryClient builds a client with retries on transport errors and 5xx responses.
func NewWardDirectoryClient(cfg WardDirectoryConfig, logger *zap.Logger) *WardDirectoryClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryCount < 0 {
		cfg.RetryCount = 0
	}
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		httpClient.SetAuthToken(cfg.Token)
	}
	return &WardDirectoryClient{http: httpClient, logger: logger}
}

// Snapshot fetches visits and items as one document so both collections come from the same read.
func (c *WardDirectoryClient) Snapshot(ctx context.Context) (*models.MarSnapshot, error) {
	body, err := c.get(ctx, snapshotPath)
	if err != nil {
		return nil, err
	}
	var snapshot models.MarSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, invalidPayload(err, snapshotPath)
	}
	if snapshot.Visits == nil {
		snapshot.Visits = []models.Visit{}
	}
	if snapshot.Items == nil {
		snapshot.Items = []models.MedicationItem{}
	}
	if snapshot.TakenAt.IsZero() {
		snapshot.TakenAt = time.Now().UTC()
	}
	return &snapshot, nil
}

// MedicationItems fetches the full medication item collection.
func (c *WardDirectoryClient) MedicationItems(ctx context.Context) ([]models.MedicationItem, error) {
	body, err := c.get(ctx, itemsPath)
	if err != nil {
		return nil, err
	}
	items := make([]models.MedicationItem, 0)
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, invalidPayload(err, itemsPath)
	}
	return items, nil
}

// Ping checks the directory answers its health endpoint.
func (c *WardDirectoryClient) Ping(ctx context.Context) error {
	_, err := c.get(ctx, healthPath)
	return err
}

func (c *WardDirectoryClient) get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get(path)
	if err != nil {
		c.logger.Warn("ward directory request failed", zap.String("path", path), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status, "ward directory unreachable")
	}
	if resp.IsError() {
		c.logger.Warn("ward directory returned error status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode()),
		)
		return nil, appErrors.Wrap(
			fmt.Errorf("GET %s: status %d", path, resp.StatusCode()),
			appErrors.ErrUpstreamUnavailable.Code,
			appErrors.ErrUpstreamUnavailable.Status,
			"ward directory returned an error",
		)
	}
	return resp.Body(), nil
}

func invalidPayload(err error, path string) error {
	return appErrors.Wrap(err, appErrors.ErrInvalidUpstreamData.Code, appErrors.ErrInvalidUpstreamData.Status,
		fmt.Sprintf("ward directory payload from %s is invalid", path))
}
