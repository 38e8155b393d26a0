package committer

import (
	"fmt"
	"sort"
	"time"
)

// Entity is anything a TransactionManager can upsert.
type Entity interface {
	// PrepareForSave is called by the manager immediately before Row, with the
	// time of the enclosing transaction. Implementations stamp their
	// auto-maintained timestamps here.
	PrepareForSave(txTime time.Time)

	// Row returns the full column image of the entity.
	Row() Row
}

// Row is a dialect-neutral insert-or-update of one row, matched on KeyColumn.
type Row struct {
	Table     string
	KeyColumn string
	Values    map[string]interface{}
}

// Key returns the value of the key column.
func (r Row) Key() interface{} {
	return r.Values[r.KeyColumn]
}

// Columns returns the row's column names sorted, key column first.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r.Values))
	for c := range r.Values {
		if c != r.KeyColumn {
			cols = append(cols, c)
		}
	}
	sort.Strings(cols)
	return append([]string{r.KeyColumn}, cols...)
}

// NonKeyColumns returns the sorted column names without the key column.
func (r Row) NonKeyColumns() []string {
	return r.Columns()[1:]
}

// OrderedValues returns the values in Columns order.
func (r Row) OrderedValues() []interface{} {
	cols := r.Columns()
	vals := make([]interface{}, 0, len(cols))
	for _, c := range cols {
		vals = append(vals, r.Values[c])
	}
	return vals
}

// Validate reports rows that cannot be matched on a key.
func (r Row) Validate() error {
	if r.Table == "" {
		return fmt.Errorf("committer: row has no table")
	}
	if r.KeyColumn == "" {
		return fmt.Errorf("committer: row for %s has no key column", r.Table)
	}
	k, ok := r.Values[r.KeyColumn]
	if !ok || k == nil || k == "" {
		return fmt.Errorf("committer: row for %s has an empty %s", r.Table, r.KeyColumn)
	}
	return nil
}
