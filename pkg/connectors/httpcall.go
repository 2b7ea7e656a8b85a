package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"
)

// HTTPClient performs outbound HTTP calls for api nodes. Response bodies are
// decoded as JSON when the payload allows it and returned as raw text otherwise.
type HTTPClient struct {
	client *http.Client
}

func NewHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Call(ctx context.Context, req domain.HTTPCallRequest) (domain.HTTPCallResult, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if req.Body != "" {
		bodyReader = strings.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return domain.HTTPCallResult{}, fmt.Errorf("failed to build request: %w", err)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if req.Body != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return domain.HTTPCallResult{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.HTTPCallResult{}, fmt.Errorf("failed to read response body: %w", err)
	}

	result := domain.HTTPCallResult{
		StatusCode: resp.StatusCode,
		Headers:    make(map[string]any, len(resp.Header)),
	}

	for key, values := range resp.Header {
		if len(values) == 1 {
			result.Headers[key] = values[0]
			continue
		}

		result.Headers[key] = values
	}

	var jsonBody any
	if err := json.Unmarshal(body, &jsonBody); err == nil {
		result.Body = jsonBody
	} else {
		result.Body = string(body)
	}

	return result, nil
}
