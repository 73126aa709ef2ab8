package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/abhisek/levelup/internal/backend"
)

const singleObject = "application/vnd.pgrst.object+json"

// Tables implements backend.Store over the table API.
type Tables struct {
	c *Client
}

var _ backend.Store = (*Tables)(nil)

func tablePath(table string) []string {
	return []string{"rest", "v1", table}
}

func (t *Tables) Select(ctx context.Context, q backend.Query, dest any) error {
	return t.c.do(ctx, request{
		method: http.MethodGet,
		path:   tablePath(q.Table),
		query:  selectParams(q),
	}, dest)
}

func (t *Tables) SelectOne(ctx context.Context, q backend.Query, dest any) error {
	return t.c.do(ctx, request{
		method: http.MethodGet,
		path:   tablePath(q.Table),
		query:  selectParams(q),
		header: http.Header{"Accept": {singleObject}},
	}, dest)
}

func (t *Tables) Insert(ctx context.Context, table string, row any) error {
	return t.c.do(ctx, request{
		method: http.MethodPost,
		path:   tablePath(table),
		body:   row,
		header: http.Header{"Prefer": {"return=minimal"}},
	}, nil)
}

func (t *Tables) Update(ctx context.Context, table string, patch map[string]any, filters []backend.Filter, dest any) error {
	r := request{
		method: http.MethodPatch,
		path:   tablePath(table),
		query:  filterParams(filters),
		body:   patch,
		header: http.Header{"Prefer": {"return=minimal"}},
	}
	if dest != nil {
		r.header = http.Header{
			"Prefer": {"return=representation"},
			"Accept": {singleObject},
		}
	}
	return t.c.do(ctx, r, dest)
}

func (t *Tables) Delete(ctx context.Context, table string, filters []backend.Filter) error {
	return t.c.do(ctx, request{
		method: http.MethodDelete,
		path:   tablePath(table),
		query:  filterParams(filters),
	}, nil)
}

func selectParams(q backend.Query) url.Values {
	v := filterParams(q.Filters)
	if len(q.Columns) > 0 {
		v.Set("select", strings.Join(q.Columns, ","))
	} else {
		v.Set("select", "*")
	}
	if len(q.Order) > 0 {
		parts := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			dir := "asc"
			if o.Descending {
				dir = "desc"
			}
			parts = append(parts, o.Column+"."+dir)
		}
		v.Set("order", strings.Join(parts, ","))
	}
	return v
}

func filterParams(filters []backend.Filter) url.Values {
	v := url.Values{}
	for _, f := range filters {
		if f.Value == nil {
			v.Add(f.Column, "is.null")
			continue
		}
		v.Add(f.Column, "eq."+fmt.Sprint(f.Value))
	}
	return v
}
