// Package pricing talks to the skin wiki GraphQL API for images and trade
// prices, and to the exchange rate API.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/skinshop/core/logger"
	"github.com/m3rciful/skinshop/shop/catalog"
	"github.com/m3rciful/skinshop/shop/metrics"
)

// Doer sends a request. *fasthttp.Client satisfies it.
type Doer interface {
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

// Config holds provider endpoints and credentials.
type Config struct {
	GraphQLURL   string        `yaml:"graphql_url" envconfig:"PRICING_GRAPHQL_URL" validate:"required,url"`
	ImageBaseURL string        `yaml:"image_base_url" envconfig:"PRICING_IMAGE_BASE_URL" validate:"required,url"`
	RateURL      string        `yaml:"rate_url" envconfig:"PRICING_RATE_URL" validate:"required,url"`
	RateAPIKey   string        `yaml:"rate_api_key" envconfig:"CURRENCY_API_KEY" validate:"required"`
	BaseCurrency string        `yaml:"base_currency" envconfig:"PRICING_BASE_CURRENCY" validate:"omitempty,len=3"`
	UserAgent    string        `yaml:"user_agent" envconfig:"PRICING_USER_AGENT"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"PRICING_TIMEOUT"`
}

const (
	defaultTimeout      = 10 * time.Second
	defaultBaseCurrency = "USD"
	defaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)

// ProviderError reports a failed provider call: a transport error, a
// non-200 status or an API-level error in a 200 response.
type ProviderError struct {
	Op     string
	Status int
	Err    error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("pricing: %s: status %d: %v", e.Op, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("pricing: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pricing: %s: status %d", e.Op, e.Status)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Client is the Pricing/Image provider. Every call is attempted once.
type Client struct {
	doer Doer
	cfg  Config
}

// New returns a client; zero config fields take defaults.
func New(doer Doer, cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = defaultBaseCurrency
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	cfg.ImageBaseURL = strings.TrimRight(cfg.ImageBaseURL, "/")
	return &Client{doer: doer, cfg: cfg}
}

const priceQuery = `query price_trader_log($name_ids: [Int!]!) {
  price_trader_log(input: {name_ids: $name_ids}) {
    name_id
    values { price_trader_new time }
  }
}`

const patternQuery = `query pattern_list($contains_paint_seed: Int, $exterior: String, $name: String!, $rareOnly: Boolean, $sortBy: String) {
  pattern_list(input: {contains_paint_seed: $contains_paint_seed, exterior: $exterior, name: $name, rare_only: $rareOnly, sort_by: $sortBy}) {
    exterior
    uuid
  }
}`

type graphQLRequest struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Query         string         `json:"query"`
}

type graphQLError struct {
	Message string `json:"message"`
}

// Images returns one image per exterior of the skin, first seen wins, in provider order.
func (c *Client) Images(ctx context.Context, skinName string) ([]catalog.ExteriorImage, error) {
	var out struct {
		Data struct {
			PatternList []struct {
				Exterior string `json:"exterior"`
				UUID     string `json:"uuid"`
			} `json:"pattern_list"`
		} `json:"data"`
		Errors []graphQLError `json:"errors"`
	}
	err := c.graphQL(ctx, "images", graphQLRequest{
		OperationName: "pattern_list",
		Variables: map[string]any{
			"name":                skinName,
			"exterior":            "",
			"sortBy":              "float_value",
			"rareOnly":            false,
			"contains_paint_seed": nil,
		},
		Query: patternQuery,
	}, &out, func() []graphQLError { return out.Errors })
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, 5)
	images := make([]catalog.ExteriorImage, 0, 5)
	for _, p := range out.Data.PatternList {
		if _, dup := seen[p.Exterior]; dup || p.UUID == "" {
			continue
		}
		seen[p.Exterior] = struct{}{}
		images = append(images, catalog.ExteriorImage{
			Exterior: p.Exterior,
			URL:      fmt.Sprintf("%s/wiki_%s_preview.png", c.cfg.ImageBaseURL, p.UUID),
		})
	}
	return images, nil
}

// Prices returns the latest trade price per id. Nil ids are skipped; with
// none left no request is made.
func (c *Client) Prices(ctx context.Context, ids []*int64) (map[int64]float64, error) {
	nameIDs := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id != nil {
			nameIDs = append(nameIDs, *id)
		}
	}
	prices := make(map[int64]float64, len(nameIDs))
	if len(nameIDs) == 0 {
		return prices, nil
	}

	var out struct {
		Data struct {
			Log []struct {
				NameID int64 `json:"name_id"`
				Values []struct {
					Price float64 `json:"price_trader_new"`
				} `json:"values"`
			} `json:"price_trader_log"`
		} `json:"data"`
		Errors []graphQLError `json:"errors"`
	}
	err := c.graphQL(ctx, "prices", graphQLRequest{
		OperationName: "price_trader_log",
		Variables:     map[string]any{"name_ids": nameIDs},
		Query:         priceQuery,
	}, &out, func() []graphQLError { return out.Errors })
	if err != nil {
		return nil, err
	}
	for _, entry := range out.Data.Log {
		if n := len(entry.Values); n > 0 {
			prices[entry.NameID] = entry.Values[n-1].Price
		}
	}
	return prices, nil
}

// ExchangeRate returns how many units of currency one base currency unit buys.
func (c *Client) ExchangeRate(ctx context.Context, currency string) (float64, error) {
	q := url.Values{}
	q.Set("api_key", c.cfg.RateAPIKey)
	q.Set("from", c.cfg.BaseCurrency)
	q.Set("to", strings.ToUpper(currency))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.cfg.RateURL + "?" + q.Encode())
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	var out struct {
		Error        int     `json:"error"`
		ErrorMessage string  `json:"error_message"`
		Amount       float64 `json:"amount"`
	}
	if err := c.do(ctx, "exchange_rate", req, &out); err != nil {
		return 0, err
	}
	if out.Error != 0 || out.Amount <= 0 {
		return 0, &ProviderError{Op: "exchange_rate", Status: fasthttp.StatusOK,
			Err: fmt.Errorf("api error %d: %s", out.Error, out.ErrorMessage)}
	}
	return out.Amount, nil
}

// Lookup fetches the images and prices of one skin concurrently.
func (c *Client) Lookup(ctx context.Context, skinName string, ids []*int64) ([]catalog.ExteriorImage, map[int64]float64, error) {
	var (
		images []catalog.ExteriorImage
		prices map[int64]float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		images, err = c.Images(gctx, skinName)
		return err
	})
	g.Go(func() (err error) {
		prices, err = c.Prices(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return images, prices, nil
}

func (c *Client) graphQL(ctx context.Context, op string, body graphQLRequest, out any, apiErrors func() []graphQLError) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("pricing: encode %s: %w", op, err)
	}
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.cfg.GraphQLURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	if err := c.do(ctx, op, req, out); err != nil {
		return err
	}
	if errs := apiErrors(); len(errs) > 0 {
		return &ProviderError{Op: op, Status: fasthttp.StatusOK, Err: errors.New(errs[0].Message)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, op string, req *fasthttp.Request, out any) (err error) {
	if err := ctx.Err(); err != nil {
		return &ProviderError{Op: op, Err: err}
	}
	req.Header.SetUserAgent(c.cfg.UserAgent)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	status := 0
	defer func() {
		label := strconv.Itoa(status)
		if status == 0 {
			label = "error"
		}
		metrics.ProviderRequests.WithLabelValues(op, label).Observe(time.Since(start).Seconds())
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelWarn
		}
		attrs := []slog.Attr{
			slog.String("op", op),
			slog.Int("status", status),
			slog.Duration("took", time.Since(start)),
		}
		if err != nil {
			attrs = append(attrs, slog.String("err", err.Error()))
		}
		logger.LogEvent(ctx, logger.Pricing, level, "provider.call", attrs...)
	}()

	if err := c.doer.DoDeadline(req, resp, deadline); err != nil {
		return &ProviderError{Op: op, Err: err}
	}
	status = resp.StatusCode()
	if status != fasthttp.StatusOK {
		return &ProviderError{Op: op, Status: status}
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &ProviderError{Op: op, Status: status, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
