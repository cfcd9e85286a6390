package ir

import "fmt"

// Encode converts q into the document form used for canonical JSON: nested
// map[string]any and []any holding strings, int64s and bools. Absent
// optional clauses are omitted rather than written as null.
func Encode(q *Query) (map[string]any, error) {
	if q == nil {
		return nil, fmt.Errorf("nil query")
	}
	scan, err := encodeScan(q.Scan)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	doc := map[string]any{"scan": scan}

	if q.Filter != nil {
		f, err := encodeBool(q.Filter)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		doc["filter"] = f
	}
	if q.Group != nil {
		g := map[string]any{"keys": encodeColumns(q.Group.Keys)}
		if q.Group.Having != nil {
			h, err := encodeBool(q.Group.Having)
			if err != nil {
				return nil, fmt.Errorf("having: %w", err)
			}
			g["having"] = h
		}
		doc["group"] = g
	}

	proj := map[string]any{"star": q.Projection.Star, "distinct": q.Projection.Distinct}
	items := make([]any, len(q.Projection.Items))
	for i, it := range q.Projection.Items {
		e, err := encodeExpr(it.Expr)
		if err != nil {
			return nil, fmt.Errorf("projection[%d]: %w", i, err)
		}
		item := map[string]any{"expr": e, "kind": string(it.Kind())}
		if it.Alias != "" {
			item["alias"] = it.Alias
		}
		items[i] = item
	}
	proj["items"] = items
	doc["projection"] = proj

	if len(q.Order) > 0 {
		order := make([]any, len(q.Order))
		for i, o := range q.Order {
			item := map[string]any{"column": encodeColumn(o.Column), "direction": string(o.Direction)}
			if o.Nulls != NullsUnspecified {
				item["nulls"] = string(o.Nulls)
			}
			order[i] = item
		}
		doc["order"] = order
	}
	if q.Limit != nil {
		l := map[string]any{"limit": q.Limit.Limit}
		if q.Limit.Offset != nil {
			l["offset"] = *q.Limit.Offset
		}
		doc["limit"] = l
	}
	return doc, nil
}

func encodeScan(s Scan) (map[string]any, error) {
	src, err := encodeSource(s.Source)
	if err != nil {
		return nil, err
	}
	out := map[string]any{"source": src}
	if len(s.Joins) > 0 {
		joins := make([]any, len(s.Joins))
		for i, j := range s.Joins {
			js, err := encodeSource(j.Source)
			if err != nil {
				return nil, fmt.Errorf("join[%d]: %w", i, err)
			}
			on := make([]any, len(j.On))
			for k, p := range j.On {
				on[k] = map[string]any{"left": encodeColumn(p.Left), "right": encodeColumn(p.Right)}
			}
			joins[i] = map[string]any{"kind": string(j.Kind), "source": js, "on": on}
		}
		out["joins"] = joins
	}
	return out, nil
}

func encodeSource(s ScanSource) (map[string]any, error) {
	out := map[string]any{}
	switch {
	case s.Subquery != nil:
		q, err := Encode(s.Subquery)
		if err != nil {
			return nil, err
		}
		out["subquery"] = q
	case s.Stream != "":
		out["stream"] = s.Stream
	default:
		return nil, fmt.Errorf("source has neither stream nor subquery")
	}
	if s.Alias != "" {
		out["alias"] = s.Alias
	}
	return out, nil
}

func encodeColumn(c ColumnRef) map[string]any {
	out := map[string]any{"name": c.Name}
	if c.Qualifier != "" {
		out["qualifier"] = c.Qualifier
	}
	return out
}

func encodeColumns(cs []ColumnRef) []any {
	out := make([]any, len(cs))
	for i, c := range cs {
		out[i] = encodeColumn(c)
	}
	return out
}

func encodeValue(v Value) (map[string]any, error) {
	switch val := v.(type) {
	case Bool:
		return map[string]any{"bool": bool(val)}, nil
	case Int:
		return map[string]any{"int": int64(val)}, nil
	case Decimal:
		return map[string]any{"decimal": val.D.String()}, nil
	case String:
		return map[string]any{"string": string(val)}, nil
	}
	return nil, fmt.Errorf("unknown value type %T", v)
}

func encodeExpr(e Expr) (map[string]any, error) {
	switch x := e.(type) {
	case Column:
		return map[string]any{"column": encodeColumn(x.Ref)}, nil
	case Literal:
		v, err := encodeValue(x.Value)
		if err != nil {
			return nil, err
		}
		return map[string]any{"literal": v}, nil
	case Aggregate:
		a := map[string]any{"func": string(x.Func), "star": x.Star}
		if !x.Star {
			a["column"] = encodeColumn(x.Column)
		}
		return map[string]any{"aggregate": a}, nil
	case Subquery:
		q, err := Encode(x.Query)
		if err != nil {
			return nil, err
		}
		return map[string]any{"subquery": q}, nil
	case Binary:
		l, err := encodeExpr(x.Left)
		if err != nil {
			return nil, err
		}
		r, err := encodeExpr(x.Right)
		if err != nil {
			return nil, err
		}
		return map[string]any{"binary": map[string]any{"left": l, "op": string(x.Op), "right": r}}, nil
	}
	return nil, fmt.Errorf("unknown expression type %T", e)
}

func encodeBool(b BoolExpr) (map[string]any, error) {
	switch x := b.(type) {
	case Comparison:
		l, err := encodeExpr(x.Left)
		if err != nil {
			return nil, err
		}
		r, err := encodeExpr(x.Right)
		if err != nil {
			return nil, err
		}
		return map[string]any{"compare": map[string]any{"left": l, "op": string(x.Op), "right": r}}, nil
	case NullCheck:
		e, err := encodeExpr(x.Expr)
		if err != nil {
			return nil, err
		}
		return map[string]any{"null_check": map[string]any{"expr": e, "negated": x.Negated}}, nil
	case Exists:
		q, err := Encode(x.Query)
		if err != nil {
			return nil, err
		}
		return map[string]any{"exists": map[string]any{"query": q, "negated": x.Negated}}, nil
	case In:
		e, err := encodeExpr(x.Expr)
		if err != nil {
			return nil, err
		}
		q, err := Encode(x.Query)
		if err != nil {
			return nil, err
		}
		return map[string]any{"in": map[string]any{"expr": e, "query": q, "negated": x.Negated}}, nil
	case BoolLiteral:
		return map[string]any{"bool": x.Value}, nil
	case Logical:
		l, err := encodeBool(x.Left)
		if err != nil {
			return nil, err
		}
		r, err := encodeBool(x.Right)
		if err != nil {
			return nil, err
		}
		return map[string]any{"logical": map[string]any{"left": l, "op": string(x.Op), "right": r}}, nil
	}
	return nil, fmt.Errorf("unknown condition type %T", b)
}
