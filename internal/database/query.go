package database

import (
	"fmt"
	"strings"

	"github.com/dezobq/snapgram/internal/remote"
)

type condition struct {
	sql  string
	args []any
}

type ordering struct {
	attr string
	expr string
	desc bool
}

func (o ordering) clause() string {
	dir := "ASC"
	if o.desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, id %s", o.expr, dir, dir)
}

// value renvoie la valeur de tri du document curseur.
func (o ordering) value(row *documentRow) any {
	switch o.attr {
	case remote.AttrID:
		return row.ID
	case remote.AttrCreatedAt:
		return row.CreatedAt
	case remote.AttrUpdatedAt:
		return row.UpdatedAt
	}
	doc, err := row.document()
	if err != nil {
		return nil
	}
	return fmt.Sprint(doc.Data[o.attr])
}

type plan struct {
	where  []condition
	order  ordering
	limit  int
	cursor string
}

func planQueries(queries []remote.Query) (*plan, error) {
	p := &plan{
		order: ordering{attr: remote.AttrCreatedAt, expr: "created_at"},
		limit: defaultLimit,
	}

	for _, q := range queries {
		switch q.Method {
		case remote.MethodEqual:
			expr, err := attrExpr(q.Attribute)
			if err != nil {
				return nil, err
			}
			if len(q.Values) == 0 {
				return nil, invalid("general_query_invalid", "equal without values")
			}
			values := make([]string, len(q.Values))
			for i, v := range q.Values {
				values[i] = fmt.Sprint(v)
			}
			p.where = append(p.where, condition{sql: expr + " IN ?", args: []any{values}})

		case remote.MethodSearch:
			expr, err := attrExpr(q.Attribute)
			if err != nil {
				return nil, err
			}
			term := strings.TrimSpace(q.StringValue())
			p.where = append(p.where, condition{sql: expr + " ILIKE ?", args: []any{"%" + escapeLike(term) + "%"}})

		case remote.MethodOrderDesc:
			expr, err := attrExpr(q.Attribute)
			if err != nil {
				return nil, err
			}
			p.order = ordering{attr: q.Attribute, expr: expr, desc: true}

		case remote.MethodLimit:
			n := q.IntValue()
			if n <= 0 {
				return nil, invalid("general_query_invalid", "limit must be positive")
			}
			p.limit = n

		case remote.MethodCursorAfter:
			p.cursor = q.StringValue()
			if p.cursor == "" {
				return nil, invalid("general_query_invalid", "empty cursor")
			}

		default:
			return nil, invalid("general_query_invalid", "unsupported query method "+q.Method)
		}
	}
	return p, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
