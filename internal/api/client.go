package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "github.com/juancollazo-ch/magazord-sales-dashboard/internal/errors"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/logging"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/models"
)

const (
	ordersPath     = "/v2/site/pedido"
	maxBodySize    = 10 << 20
	defaultTimeout = 15 * time.Second
)

// ClientConfig agrupa lo necesario para hablar con la API de Magazord.
type ClientConfig struct {
	BaseURL   string
	User      string
	Password  string
	PageSize  int
	Timeout   time.Duration // por request
	RateLimit float64       // requests por segundo; <= 0 sin límite
	RateBurst int
	Location  *time.Location
	Logger    *zap.Logger

	HTTPClient *http.Client
}

type MagazordClient struct {
	http     *http.Client
	base     string
	user     string
	pass     string
	pageSize int
	loc      *time.Location
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	logger   *zap.Logger
}

func NewMagazordClient(cfg ClientConfig) (*MagazordClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("MAGAZORD_URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid MAGAZORD_URL: %w", err)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.L()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	logger := cfg.Logger.With(zap.String("component", "magazord_client"))

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "magazord",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Un 404 o un 401 no dicen nada de la salud del servicio
		IsSuccessful: func(err error) bool {
			return err == nil || !apperrors.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &MagazordClient{
		http:     httpClient,
		base:     cfg.BaseURL,
		user:     cfg.User,
		pass:     cfg.Password,
		pageSize: cfg.PageSize,
		loc:      cfg.Location,
		limiter:  rate.NewLimiter(limit, burst),
		breaker:  breaker,
		logger:   logger,
	}, nil
}

// FetchPage trae una página del listado, ordenado por dataHora descendente.
// Los items sin código o con fecha ilegible se descartan.
func (c *MagazordClient) FetchPage(ctx context.Context, page int) ([]models.OrderSummary, error) {
	if page < 1 {
		page = 1
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.pageSize))
	query.Set("page", strconv.Itoa(page))
	query.Set("order", "dataHora")
	query.Set("orderDirection", "desc")

	body, err := c.get(ctx, ordersPath, query)
	if err != nil {
		return nil, err
	}

	var resp models.MagazordListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, apperrors.ErrExternalAPI(http.StatusOK, "invalid JSON from Magazord list", err)
		}
		c.logger.Warn("order summary field with unexpected type, using default",
			append(logging.FieldsFromContext(ctx), zap.Int("page", page), zap.String("field", typeErr.Field))...,
		)
	}

	orders := make([]models.OrderSummary, 0, len(resp.Data.Items))
	for _, item := range resp.Data.Items {
		summary, err := item.ToSummary(c.loc)
		if err != nil {
			c.logger.Warn("skipping unreadable order summary",
				append(logging.FieldsFromContext(ctx), zap.Int("page", page), zap.Error(err))...,
			)
			continue
		}
		orders = append(orders, summary)
	}
	return orders, nil
}

// FetchDetail trae el detalle completo de un pedido como registro sin tipar.
// Una respuesta sin "data" se considera fallo: no se cachean detalles vacíos.
func (c *MagazordClient) FetchDetail(ctx context.Context, id string) (models.Record, error) {
	if id == "" {
		return nil, apperrors.ErrBadRequest("order id is required", nil)
	}

	body, err := c.get(ctx, ordersPath+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var resp models.MagazordDetailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.ErrExternalAPI(http.StatusOK, "invalid JSON from Magazord detail", err)
	}

	rec, err := models.DecodeRecord(resp.Data)
	if err != nil {
		return nil, apperrors.ErrExternalAPI(http.StatusOK, "order "+id+" without data", err)
	}
	return rec, nil
}

func (c *MagazordClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.ErrGatewayTimeout("rate limiter wait aborted", err)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, path, query)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperrors.ErrServiceUnavailable("Magazord circuit open", err).WithRetryable(false)
		}
		return nil, err
	}
	return out.([]byte), nil
}

func (c *MagazordClient) do(ctx context.Context, path string, query url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, apperrors.ErrInternalServer("error building request", err).WithRetryable(false)
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	req.SetBasicAuth(c.user, c.pass)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.ErrGatewayTimeout("request to Magazord timed out", err)
		}
		return nil, apperrors.ErrServiceUnavailable("request error", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, apperrors.ErrServiceUnavailable("error reading Magazord response", err)
	}

	c.logger.Debug("magazord request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.FromStatus(resp.StatusCode, fmt.Sprintf("magazord %s: status %d", path, resp.StatusCode))
	}
	return body, nil
}
