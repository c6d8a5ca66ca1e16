package records

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Domain query names.
const (
	QueryByMonth       = "by-month"
	QueryByEmployee    = "by-employee"
	QueryUnpaidByOwner = "unpaid-by-owner"
	QueryByCategory    = "by-category"
)

// Query parameter names.
const (
	ParamYear       = "year"
	ParamMonth      = "month"
	ParamEmployeeID = "employeeId"
	ParamOwnerID    = "ownerId"
	ParamCategoryID = "categoryId"
)

var ErrInvalidQuery = errors.New("invalid query")

// Query is a named domain read with string parameters, e.g.
// {Name: "by-month", Params: {"year": "2024", "month": "3"}}.
type Query struct {
	Name   string
	Params map[string]string
}

func ByMonth(year, month int) Query {
	return Query{Name: QueryByMonth, Params: map[string]string{
		ParamYear:  strconv.Itoa(year),
		ParamMonth: strconv.Itoa(month),
	}}
}

func ByEmployee(employeeID string) Query {
	return Query{Name: QueryByEmployee, Params: map[string]string{ParamEmployeeID: employeeID}}
}

func UnpaidByOwner(ownerID string) Query {
	return Query{Name: QueryUnpaidByOwner, Params: map[string]string{ParamOwnerID: ownerID}}
}

func ByCategory(categoryID string) Query {
	return Query{Name: QueryByCategory, Params: map[string]string{ParamCategoryID: categoryID}}
}

// Predicate compiles q into a record filter, validating its parameters.
func (q Query) Predicate() (func(Record) bool, error) {
	switch q.Name {
	case QueryByMonth:
		year, err := q.intParam(ParamYear)
		if err != nil {
			return nil, err
		}
		month, err := q.intParam(ParamMonth)
		if err != nil {
			return nil, err
		}
		if month < 1 || month > 12 {
			return nil, fmt.Errorf("%w: month %d out of range", ErrInvalidQuery, month)
		}
		prefix := fmt.Sprintf("%04d-%02d", year, month)
		return func(r Record) bool {
			y, okY := toInt64(r["year"])
			m, okM := toInt64(r["month"])
			if okY && okM {
				return int(y) == year && int(m) == month
			}
			date, _ := r["date"].(string)
			return strings.HasPrefix(date, prefix)
		}, nil

	case QueryByEmployee:
		id, err := q.stringParam(ParamEmployeeID)
		if err != nil {
			return nil, err
		}
		return func(r Record) bool { return toString(r["employeeId"]) == id }, nil

	case QueryUnpaidByOwner:
		id, err := q.stringParam(ParamOwnerID)
		if err != nil {
			return nil, err
		}
		return func(r Record) bool {
			owner := toString(r["ownerId"])
			if owner == "" {
				owner = toString(r["employeeId"])
			}
			return owner == id && !truthy(r["paid"])
		}, nil

	case QueryByCategory:
		id, err := q.stringParam(ParamCategoryID)
		if err != nil {
			return nil, err
		}
		return func(r Record) bool { return toString(r["categoryId"]) == id }, nil
	}
	return nil, fmt.Errorf("%w: unknown query %q", ErrInvalidQuery, q.Name)
}

// Filter returns the records of in matching q, preserving order.
func Filter(in []Record, q Query) ([]Record, error) {
	pred, err := q.Predicate()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(in))
	for _, r := range in {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (q Query) stringParam(name string) (string, error) {
	v := strings.TrimSpace(q.Params[name])
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidQuery, name)
	}
	return v, nil
}

func (q Query) intParam(name string) (int, error) {
	v, err := q.stringParam(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidQuery, name)
	}
	return n, nil
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true" || b == "paid"
	case float64:
		return b != 0
	default:
		return false
	}
}
