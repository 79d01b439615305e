package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iudanet/matswap/internal/catalog"
	"github.com/iudanet/matswap/internal/models"
	"github.com/iudanet/matswap/pkg/api"
)

// DefaultTimeout таймаут HTTP запросов по умолчанию
const DefaultTimeout = 30 * time.Second

var (
	// ErrNotFound сервер ответил 404
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized сервер ответил 401
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited сервер ответил 429
	ErrRateLimited = errors.New("rate limited")
)

// StatusError ответ сервера с кодом вне 2xx
type StatusError struct {
	Response   api.ErrorResponse
	StatusCode int
}

func (e *StatusError) Error() string {
	msg := e.Response.Message
	if msg == "" {
		msg = e.Response.Error
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, msg)
}

// Unwrap позволяет проверять класс ответа через errors.Is
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return nil
	}
}

// Client представляет HTTP клиент для взаимодействия с сервером matswap
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент.
// timeout <= 0 означает DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
	}
}

// Health проверяет доступность сервера и возвращает его версию
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, &resp); err != nil {
		return "", fmt.Errorf("health request failed: %w", err)
	}
	return resp.Version, nil
}

// Status получает состояние auth gate сервера
func (c *Client) Status(ctx context.Context) (*api.AuthStatusResponse, error) {
	var resp api.AuthStatusResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/auth/status", nil, &resp); err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return &resp, nil
}

// Lookup получает запись каталога по штрихкоду.
// Отсутствующая запись возвращает catalog.ErrRecordNotFound.
func (c *Client) Lookup(ctx context.Context, id string) (*models.Record, error) {
	var resp api.Record
	err := c.doRequest(ctx, http.MethodGet, "/api/v1/catalog/"+url.PathEscape(id), nil, &resp)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", catalog.ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup request failed: %w", err)
	}
	return fromAPIRecord(resp), nil
}

// List получает записи одного типа в порядке вставки
func (c *Client) List(ctx context.Context, t models.RecordType) ([]*models.Record, error) {
	var resp api.RecordListResponse
	path := "/api/v1/catalog?" + url.Values{"type": {string(t)}}.Encode()
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list request failed: %w", err)
	}

	records := make([]*models.Record, 0, len(resp.Records))
	for _, r := range resp.Records {
		records = append(records, fromAPIRecord(r))
	}
	return records, nil
}

// Swap получает пару модель + материал для генерации описания
func (c *Client) Swap(ctx context.Context, styleID, materialID string) (*models.SwapPair, error) {
	var resp api.SwapResponse
	req := api.SwapRequest{StyleID: styleID, MaterialID: materialID}
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/swap", req, &resp)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", catalog.ErrRecordNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("swap request failed: %w", err)
	}
	return &models.SwapPair{
		Style:    fromAPIRecord(resp.Style),
		Material: fromAPIRecord(resp.Material),
	}, nil
}

func fromAPIRecord(r api.Record) *models.Record {
	return &models.Record{
		ID:          r.ID,
		Type:        models.RecordType(r.Type),
		Name:        r.Name,
		ImageURL:    r.ImageURL,
		Description: r.Description,
	}
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		// тело может быть не JSON (например, от прокси)
		_ = json.Unmarshal(respBody, &statusErr.Response)
		return statusErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
