package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"
)

// APIQueryService runs data source queries against a remote query endpoint.
// The query text is posted as JSON and the endpoint answers with rows and an
// optional column schema.
type APIQueryService struct {
	endpoint string
	apiKey   string
	client   *http.Client
	maxRows  int
}

type apiQueryRequest struct {
	Query string `json:"query"`
}

type apiQueryResponse struct {
	Rows    []map[string]any      `json:"rows"`
	Columns []domain.ColumnSchema `json:"columns,omitempty"`
	Error   string                `json:"error,omitempty"`
}

func NewAPIQueryService(endpoint, apiKey string, timeout time.Duration, maxRows int) *APIQueryService {
	return &APIQueryService{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		maxRows:  maxRows,
	}
}

func (s *APIQueryService) Query(ctx context.Context, query string) (domain.QueryResult, error) {
	startedAt := time.Now()

	payload, err := json.Marshal(apiQueryRequest{Query: query})
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("failed to build query request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("failed to read query response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.QueryResult{}, fmt.Errorf("query endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded apiQueryResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return domain.QueryResult{}, fmt.Errorf("failed to decode query response: %w", err)
	}

	if decoded.Error != "" {
		return domain.QueryResult{}, fmt.Errorf("query endpoint error: %s", decoded.Error)
	}

	result := domain.QueryResult{
		Rows:    decoded.Rows,
		Columns: decoded.Columns,
	}

	if len(result.Rows) > s.maxRows {
		result.Rows = result.Rows[:s.maxRows]
		result.Truncated = true
	}

	result.ExecutionTime = time.Since(startedAt)

	return result, nil
}
