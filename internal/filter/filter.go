// Package filter implements the structured list-filter language accepted by
// every collection endpoint: a JSON document with where/fields/order/limit/
// skip clauses, passed in the "filter" (or bare "where") query parameter.
package filter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type Filter struct {
	Where  map[string]interface{} `json:"where"`
	Fields interface{}            `json:"fields"`
	Order  interface{}            `json:"order"`
	Limit  int                    `json:"limit"`
	Skip   int                    `json:"skip"`
}

var (
	namer     = schema.NamingStrategy{}
	fieldName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
)

// ColumnName maps a JSON field name to its database column.
func ColumnName(field string) string {
	return namer.ColumnName("", field)
}

// Parse reads the "filter" query parameter. A missing parameter yields an
// empty filter, malformed JSON an error.
func Parse(c *fiber.Ctx) (*Filter, error) {
	f := &Filter{}
	raw := c.Query("filter")
	if raw == "" {
		return f, nil
	}
	if err := json.Unmarshal([]byte(raw), f); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	return f, nil
}

// ParseWhere reads the bare "where" query parameter used by count and
// patch-all endpoints.
func ParseWhere(c *fiber.Ctx) (map[string]interface{}, error) {
	raw := c.Query("where")
	if raw == "" {
		return nil, nil
	}
	var where map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &where); err != nil {
		return nil, fmt.Errorf("invalid where: %w", err)
	}
	return where, nil
}

// Apply attaches the full filter (where, order, limit, skip, fields) to a
// query.
func (f *Filter) Apply(db *gorm.DB) (*gorm.DB, error) {
	db, err := ApplyWhere(db, f.Where)
	if err != nil {
		return nil, err
	}

	if cols := f.selectedColumns(); len(cols) > 0 {
		db = db.Select(cols)
	}

	for _, o := range f.orderClauses() {
		expr, err := orderExpr(o)
		if err != nil {
			return nil, err
		}
		db = db.Order(expr)
	}

	if f.Limit > 0 {
		db = db.Limit(f.Limit)
	}
	if f.Skip > 0 {
		db = db.Offset(f.Skip)
	}
	return db, nil
}

// ApplyWhere attaches only the where clause. Used by count and pagination
// totals, which ignore limit/skip.
func ApplyWhere(db *gorm.DB, where map[string]interface{}) (*gorm.DB, error) {
	if len(where) == 0 {
		return db, nil
	}
	expr, args, err := buildExpr(where)
	if err != nil {
		return nil, err
	}
	return db.Where(expr, args...), nil
}

func buildExpr(where map[string]interface{}) (string, []interface{}, error) {
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	var args []interface{}

	for _, key := range keys {
		value := where[key]

		switch strings.ToLower(key) {
		case "and", "or":
			expr, sub, err := buildGroup(key, value)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, expr)
			args = append(args, sub...)
			continue
		}

		if !fieldName.MatchString(key) {
			return "", nil, fmt.Errorf("invalid field name %q", key)
		}
		col := ColumnName(key)

		if ops, ok := value.(map[string]interface{}); ok {
			expr, sub, err := buildOps(col, ops)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, expr)
			args = append(args, sub...)
			continue
		}

		parts = append(parts, col+" = ?")
		args = append(args, value)
	}

	return "(" + strings.Join(parts, " AND ") + ")", args, nil
}

func buildGroup(op string, value interface{}) (string, []interface{}, error) {
	list, ok := value.([]interface{})
	if !ok || len(list) == 0 {
		return "", nil, fmt.Errorf("%q expects a non-empty array", op)
	}

	joiner := " AND "
	if strings.EqualFold(op, "or") {
		joiner = " OR "
	}

	var parts []string
	var args []interface{}
	for _, item := range list {
		sub, ok := item.(map[string]interface{})
		if !ok {
			return "", nil, fmt.Errorf("%q expects an array of objects", op)
		}
		expr, subArgs, err := buildExpr(sub)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, expr)
		args = append(args, subArgs...)
	}
	return "(" + strings.Join(parts, joiner) + ")", args, nil
}

func buildOps(col string, ops map[string]interface{}) (string, []interface{}, error) {
	keys := make([]string, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	var args []interface{}
	for _, op := range keys {
		v := ops[op]
		switch op {
		case "gt":
			parts = append(parts, col+" > ?")
		case "gte":
			parts = append(parts, col+" >= ?")
		case "lt":
			parts = append(parts, col+" < ?")
		case "lte":
			parts = append(parts, col+" <= ?")
		case "neq":
			parts = append(parts, col+" <> ?")
		case "like":
			parts = append(parts, col+" LIKE ?")
		case "inq":
			parts = append(parts, col+" IN ?")
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", op)
		}
		args = append(args, v)
	}
	return strings.Join(parts, " AND "), args, nil
}

func (f *Filter) selectedColumns() []string {
	var cols []string
	switch fields := f.Fields.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if include, _ := fields[k].(bool); include && fieldName.MatchString(k) {
				cols = append(cols, ColumnName(k))
			}
		}
	case []interface{}:
		for _, v := range fields {
			if k, ok := v.(string); ok && fieldName.MatchString(k) {
				cols = append(cols, ColumnName(k))
			}
		}
	}
	return cols
}

func (f *Filter) orderClauses() []string {
	switch order := f.Order.(type) {
	case string:
		if order != "" {
			return []string{order}
		}
	case []interface{}:
		var out []string
		for _, v := range order {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func orderExpr(clause string) (string, error) {
	tokens := strings.Fields(clause)
	if len(tokens) == 0 || len(tokens) > 2 || !fieldName.MatchString(tokens[0]) {
		return "", fmt.Errorf("invalid order clause %q", clause)
	}
	expr := ColumnName(tokens[0])
	if len(tokens) == 2 {
		switch strings.ToUpper(tokens[1]) {
		case "ASC":
			expr += " ASC"
		case "DESC":
			expr += " DESC"
		default:
			return "", fmt.Errorf("invalid order direction %q", tokens[1])
		}
	}
	return expr, nil
}
