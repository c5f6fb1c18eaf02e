// internal/infra/practicum/client.go
package practicum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrNetwork marks a connection or timeout failure talking to the API.
	ErrNetwork = errors.New("произошла ошибка соединения")

	// ErrMalformedPayload marks a response body that is not valid JSON.
	ErrMalformedPayload = errors.New("ответ не содержит валидный JSON")
)

// StatusCodeError reports a non-200 response from the API.
type StatusCodeError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusCodeError) Error() string {
	return fmt.Sprintf("эндпоинт %s недоступен, код ответа API: %d", e.Endpoint, e.StatusCode)
}

// Client calls the homework-review API on behalf of a single student.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *logrus.Entry
}

func NewClient(endpoint, token string, timeout time.Duration, logger *logrus.Entry) *Client {
	return &Client{
		endpoint:   endpoint,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// HomeworkStatuses fetches homework records updated since fromDate (a Unix
// timestamp) and returns the decoded JSON body as-is. Shape validation is
// the caller's concern; the client only guarantees a 200 response that
// decoded cleanly.
func (c *Client) HomeworkStatuses(ctx context.Context, fromDate int64) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("practicum: build request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)

	q := req.URL.Query()
	q.Set("from_date", strconv.FormatInt(fromDate, 10))
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Error("Сбой соединения с API Практикума")
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusCodeError{Endpoint: c.endpoint, StatusCode: resp.StatusCode}
		c.logger.WithField("status_code", resp.StatusCode).Error("Эндпоинт API Практикума недоступен")
		return nil, statusErr
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.WithError(err).Error("Тело ответа API не декодируется")
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return payload, nil
}
