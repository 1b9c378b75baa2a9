package seeds

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/prism-sim/prism/pkg/config"
	"github.com/prism-sim/prism/pkg/social"
)

// agentJSONColumns are the agent columns carried as JSON text in SQL
// sources, since arrays and maps have no portable column type.
var agentJSONColumns = []string{"interests", "stance", "following"}

// SQLSource loads seed rows from a relational database. Queries come
// from configuration; any driver works as long as the result columns
// match the JSON seed field names.
type SQLSource struct {
	db  *sql.DB
	cfg *config.DatabaseConfig
}

// NewSQLSource wraps an open database handle.
func NewSQLSource(db *sql.DB, cfg *config.DatabaseConfig) *SQLSource {
	return &SQLSource{db: db, cfg: cfg}
}

// Posts runs the configured posts query.
func (s *SQLSource) Posts(ctx context.Context) ([]*social.Post, error) {
	rows, err := s.queryRows(ctx, s.cfg.PostsQuery, nil)
	if err != nil {
		return nil, err
	}
	return decodePosts(rows)
}

// Agents runs the configured agents query.
func (s *SQLSource) Agents(ctx context.Context) ([]*AgentSeed, error) {
	rows, err := s.queryRows(ctx, s.cfg.AgentsQuery, agentJSONColumns)
	if err != nil {
		return nil, err
	}
	return decodeAgents(rows)
}

// queryRows scans every row into a column-keyed map.
func (s *SQLSource) queryRows(ctx context.Context, query string, jsonColumns []string) ([]map[string]interface{}, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var result []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, column := range columns {
			row[column] = normalizeValue(values[i])
		}
		for _, column := range jsonColumns {
			if err := decodeJSONColumn(row, column); err != nil {
				return nil, fmt.Errorf("row %d: %w", len(result), err)
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// normalizeValue converts driver byte slices to strings so the decoder
// sees uniform values. MySQL returns text columns as []byte.
func normalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// decodeJSONColumn replaces a JSON text column with its decoded value.
// NULL and empty text stay untouched.
func decodeJSONColumn(row map[string]interface{}, column string) error {
	raw, ok := row[column].(string)
	if !ok || raw == "" {
		return nil
	}
	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return fmt.Errorf("column %s is not valid JSON: %w", column, err)
	}
	row[column] = decoded
	return nil
}
