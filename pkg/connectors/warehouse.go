package connectors

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/flowdeck/flowdeck/pkg/domain"

	"github.com/snowflakedb/gosnowflake"
)

// WarehouseQueryService runs analytical queries against the data lake
// warehouse through database/sql with the snowflake driver.
type WarehouseQueryService struct {
	db      *sql.DB
	maxRows int
}

type WarehouseConfig struct {
	Account   string `mapstructure:"account"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	Database  string `mapstructure:"database"`
	Schema    string `mapstructure:"schema"`
	Warehouse string `mapstructure:"warehouse"`
}

func NewWarehouseQueryService(cfg WarehouseConfig, maxRows int) (*WarehouseQueryService, error) {
	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Warehouse,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build warehouse DSN: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open warehouse connection: %w", err)
	}

	return &WarehouseQueryService{db: db, maxRows: maxRows}, nil
}

func (s *WarehouseQueryService) Query(ctx context.Context, query string) (domain.QueryResult, error) {
	startedAt := time.Now()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return domain.QueryResult{}, err
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return domain.QueryResult{}, err
	}

	columns := make([]domain.ColumnSchema, len(columnTypes))
	names := make([]string, len(columnTypes))

	for i, columnType := range columnTypes {
		columns[i] = domain.ColumnSchema{
			Name: columnType.Name(),
			Type: columnType.DatabaseTypeName(),
		}
		names[i] = columnType.Name()
	}

	result := domain.QueryResult{Columns: columns}

	for rows.Next() {
		if len(result.Rows) >= s.maxRows {
			result.Truncated = true
			break
		}

		values := make([]any, len(names))
		pointers := make([]any, len(names))

		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return domain.QueryResult{}, err
		}

		row := make(map[string]any, len(names))

		for i, name := range names {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
				continue
			}

			row[name] = values[i]
		}

		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return domain.QueryResult{}, err
	}

	result.ExecutionTime = time.Since(startedAt)

	return result, nil
}

func (s *WarehouseQueryService) Close() error {
	return s.db.Close()
}
