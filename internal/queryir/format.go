package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/streamql/internal/ir"
	"github.com/roach88/streamql/internal/querysql"
)

// Format prints the plan one operator per line. Nested plans follow the
// operator that owns them, indented by two spaces.
//
//	scan orders as o
//	filter amount > 10
//	project region, amount
func (p *Plan) Format() (string, error) {
	var b strings.Builder
	if err := formatPlan(&b, p, 0); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func (p *Plan) String() string {
	s, err := p.Format()
	if err != nil {
		return "<invalid plan: " + err.Error() + ">"
	}
	return s
}

var render = querysql.Renderer{}

func formatPlan(b *strings.Builder, p *Plan, depth int) error {
	line := func(s string) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(s)
		b.WriteByte('\n')
	}
	nested := func(subs []*Plan) error {
		for _, s := range subs {
			if err := formatPlan(b, s, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, op := range p.Ops {
		switch op := op.(type) {
		case Scan:
			line("scan " + scanName(op))
			if op.Input != nil {
				if err := nested([]*Plan{op.Input}); err != nil {
					return err
				}
			}
		case Join:
			on := make([]string, len(op.On))
			for i, pr := range op.On {
				on[i] = pr.Left.String() + " = " + pr.Right.String()
			}
			line(fmt.Sprintf("join %s %s on %s", op.Kind, scanName(op.Source), strings.Join(on, " and ")))
			if op.Source.Input != nil {
				if err := nested([]*Plan{op.Source.Input}); err != nil {
					return err
				}
			}
		case Filter:
			c, err := render.Cond(op.Predicate)
			if err != nil {
				return err
			}
			line("filter " + c)
			if err := nested(op.Subplans); err != nil {
				return err
			}
		case Aggregate:
			s, err := formatAggregate(op)
			if err != nil {
				return err
			}
			line(s)
			if err := nested(op.Subplans); err != nil {
				return err
			}
		case Project:
			s, err := formatProject(op)
			if err != nil {
				return err
			}
			line(s)
			if err := nested(op.Subplans); err != nil {
				return err
			}
		case Distinct:
			line("distinct")
		case Sort:
			items := make([]string, len(op.Items))
			for i, o := range op.Items {
				s := o.Column.String()
				if o.Direction == ir.Desc {
					s += " desc"
				}
				if o.Nulls != ir.NullsUnspecified {
					s += " nulls " + string(o.Nulls)
				}
				items[i] = s
			}
			line("sort " + strings.Join(items, ", "))
		case Limit:
			s := "limit " + strconv.FormatInt(op.Count, 10)
			if op.Offset != 0 {
				s += " offset " + strconv.FormatInt(op.Offset, 10)
			}
			line(s)
		default:
			return fmt.Errorf("unknown operator %T", op)
		}
	}
	return nil
}

func scanName(s Scan) string {
	name := s.Stream
	if s.Input != nil {
		name = "(derived)"
	}
	if s.Alias != "" {
		name += " as " + s.Alias
	}
	return name
}

func formatAggregate(a Aggregate) (string, error) {
	var b strings.Builder
	b.WriteString("aggregate")
	if len(a.Keys) > 0 {
		keys := make([]string, len(a.Keys))
		for i, k := range a.Keys {
			keys[i] = k.String()
		}
		b.WriteString(" by " + strings.Join(keys, ", "))
	}
	if len(a.Calls) > 0 {
		calls := make([]string, len(a.Calls))
		for i, c := range a.Calls {
			s, err := render.Expr(c)
			if err != nil {
				return "", err
			}
			calls[i] = s
		}
		b.WriteString(": " + strings.Join(calls, ", "))
	}
	if a.Having != nil {
		c, err := render.Cond(a.Having)
		if err != nil {
			return "", err
		}
		b.WriteString(" having " + c)
	}
	return b.String(), nil
}

func formatProject(p Project) (string, error) {
	if p.Star {
		return "project *", nil
	}
	items := make([]string, len(p.Items))
	for i, item := range p.Items {
		s, err := render.Expr(item.Expr)
		if err != nil {
			return "", err
		}
		if item.Alias != "" {
			s += " as " + item.Alias
		}
		items[i] = s
	}
	return "project " + strings.Join(items, ", "), nil
}
