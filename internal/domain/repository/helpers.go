package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// jsonArg marshals v for a JSONB column. nil slices and maps are stored as
// empty collections rather than JSON null.
func jsonArg(v any, empty string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return []byte(empty), nil
	}
	return b, nil
}

func unmarshalJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// nullable maps "" to SQL NULL, so anonymous viewers never match a uuid column.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// placeholders returns "$start, $start+1, ..." for n arguments.
func placeholders(start, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(ph, ", ")
}

// updateBuilder collects "column = $n" assignments for partial updates.
type updateBuilder struct {
	sets []string
	args []any
}

func (b *updateBuilder) set(column string, value any) {
	b.args = append(b.args, value)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

func (b *updateBuilder) empty() bool {
	return len(b.sets) == 0
}

// build renders the UPDATE with updated_at refreshed and the id as the last argument.
func (b *updateBuilder) build(table, id, returning string) (string, []any) {
	args := append(b.args, id)
	query := fmt.Sprintf("UPDATE %s SET %s, updated_at = CURRENT_TIMESTAMP WHERE id = $%d",
		table, strings.Join(b.sets, ", "), len(args))
	if returning != "" {
		query += " RETURNING " + returning
	}
	return query, args
}
