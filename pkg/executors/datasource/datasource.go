package datasource

import (
	"context"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/engine"
)

type Source string

const (
	Source_Databricks Source = "databricks"
	Source_PostgreSQL Source = "postgresql"
	Source_API        Source = "api"
)

// DataSourceExecutor resolves variables in the configured query and
// dispatches it to the matching query collaborator. Result size is capped by
// the collaborator; the cap shows up as Truncated on the result.
type DataSourceExecutor struct {
	warehouse domain.QueryService
	postgres  domain.QueryService
	api       domain.QueryService
	timeout   time.Duration
}

type DataSourceExecutorDeps struct {
	Warehouse domain.QueryService
	Postgres  domain.QueryService
	API       domain.QueryService
	Timeout   time.Duration
}

func NewDataSourceExecutor(deps DataSourceExecutorDeps) *DataSourceExecutor {
	return &DataSourceExecutor{
		warehouse: deps.Warehouse,
		postgres:  deps.Postgres,
		api:       deps.API,
		timeout:   deps.Timeout,
	}
}

type DataSourceParams struct {
	Query  string `json:"query"`
	Source Source `json:"source"`
}

func (e *DataSourceExecutor) Execute(ctx context.Context, input domain.ExecutionInput) (domain.ExecutionOutput, error) {
	p := DataSourceParams{}

	if err := domain.BindParams(input.Node, &p); err != nil {
		return domain.ExecutionOutput{}, err
	}

	if p.Query == "" {
		return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "query", Reason: "is required"}
	}

	var service domain.QueryService

	switch p.Source {
	case Source_Databricks:
		service = e.warehouse
	case Source_PostgreSQL:
		service = e.postgres
	case Source_API:
		service = e.api
	default:
		return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "source", Reason: "must be databricks, postgresql or api"}
	}

	if service == nil {
		return domain.ExecutionOutput{}, &domain.ConfigurationError{NodeID: input.Node.ID, Field: "source", Reason: string(p.Source) + " connector is not configured"}
	}

	query := engine.Resolve(p.Query, input.Variables)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result, err := service.Query(callCtx, query)
	if err != nil {
		return domain.ExecutionOutput{}, &domain.CollaboratorError{
			NodeID:   input.Node.ID,
			NodeType: input.Node.Type,
			Cause:    err,
		}
	}

	rows := make([]any, len(result.Rows))

	for i, row := range result.Rows {
		rows[i] = row
	}

	schema := make([]any, len(result.Columns))

	for i, column := range result.Columns {
		schema[i] = map[string]any{
			"name": column.Name,
			"type": column.Type,
		}
	}

	return domain.ExecutionOutput{
		Outputs: map[string]any{
			"data":          rows,
			"rowCount":      len(result.Rows),
			"executionTime": result.ExecutionTime.Milliseconds(),
			"schema":        schema,
		},
	}, nil
}
