// Package paymentgateway клиент REST API платёжного шлюза (PayPal Orders v2).
package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/magabrotheeeer/course-market/internal/config"
)

const (
	tokenPath  = "/v1/oauth2/token"
	ordersPath = "/v2/checkout/orders"

	maxBodySize = 1 << 20

	// DefaultTimeout используется, если таймаут в конфиге не задан.
	DefaultTimeout = 15 * time.Second
)

// Client клиент шлюза. Токен доступа получается по client credentials
// и обновляется автоматически.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт клиента шлюза по настройкам из конфига.
func NewClient(ctx context.Context, cfg config.PaymentGateway) *Client {
	apiURL := strings.TrimRight(cfg.BaseURL, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base := &http.Client{Timeout: timeout}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     apiURL + tokenPath,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	httpClient := cc.Client(context.WithValue(ctx, oauth2.HTTPClient, base))
	httpClient.Timeout = timeout

	return &Client{
		apiURL:     apiURL,
		httpClient: httpClient,
	}
}

// CreateOrder создаёт заказ в шлюзе.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	const op = "paymentgateway.CreateOrder"
	order, err := c.do(ctx, http.MethodPost, ordersPath, req, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// CaptureOrder списывает средства по одобренному заказу.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Order, error) {
	const op = "paymentgateway.CaptureOrder"
	path := ordersPath + "/" + url.PathEscape(orderID) + "/capture"
	headers := map[string]string{"Prefer": "return=representation"}
	order, err := c.do(ctx, http.MethodPost, path, struct{}{}, headers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// GetOrder возвращает текущее состояние заказа.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	const op = "paymentgateway.GetOrder"
	order, err := c.do(ctx, http.MethodGet, ordersPath+"/"+url.PathEscape(orderID), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string) (*Order, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	order.Raw = json.RawMessage(raw)
	return &order, nil
}
