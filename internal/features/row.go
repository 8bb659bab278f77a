package features

import (
	"encoding/json"
	"strings"
)

// Row is one wide feature row. Numeric columns keep insertion order;
// categorical columns are stored separately.
type Row struct {
	columns []string
	numeric map[string]float64
	labels  map[string]string
}

// NewRow returns an empty row.
func NewRow() *Row {
	return &Row{
		numeric: map[string]float64{},
		labels:  map[string]string{},
	}
}

// Set stores a numeric column, appending it if new.
func (r *Row) Set(name string, v float64) {
	if _, ok := r.numeric[name]; !ok {
		r.columns = append(r.columns, name)
	}
	r.numeric[name] = v
}

// Get returns a numeric column, or 0 when absent.
func (r *Row) Get(name string) float64 {
	return r.numeric[name]
}

// Has reports whether the numeric column exists.
func (r *Row) Has(name string) bool {
	_, ok := r.numeric[name]
	return ok
}

// SetLabel stores a categorical column.
func (r *Row) SetLabel(name, v string) {
	r.labels[name] = v
}

// Label returns a categorical column.
func (r *Row) Label(name string) (string, bool) {
	v, ok := r.labels[name]
	return v, ok
}

// Labels returns a copy of the categorical columns.
func (r *Row) Labels() map[string]string {
	out := make(map[string]string, len(r.labels))
	for k, v := range r.labels {
		out[k] = v
	}
	return out
}

// Columns returns the numeric column names in order.
func (r *Row) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Drop removes numeric columns. Unknown names are ignored.
func (r *Row) Drop(names ...string) {
	for _, name := range names {
		if _, ok := r.numeric[name]; !ok {
			continue
		}
		delete(r.numeric, name)
		for i, c := range r.columns {
			if c == name {
				r.columns = append(r.columns[:i], r.columns[i+1:]...)
				break
			}
		}
	}
}

// DropPrefix removes every numeric column whose name starts with prefix.
func (r *Row) DropPrefix(prefix string) {
	var names []string
	for _, c := range r.columns {
		if strings.HasPrefix(c, prefix) {
			names = append(names, c)
		}
	}
	r.Drop(names...)
}

// Clone returns a deep copy.
func (r *Row) Clone() *Row {
	c := &Row{
		columns: append([]string(nil), r.columns...),
		numeric: make(map[string]float64, len(r.numeric)),
		labels:  r.Labels(),
	}
	for k, v := range r.numeric {
		c.numeric[k] = v
	}
	return c
}

// MarshalJSON writes numeric and categorical columns as one object.
func (r *Row) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.numeric)+len(r.labels))
	for k, v := range r.numeric {
		out[k] = v
	}
	for k, v := range r.labels {
		out[k] = v
	}
	return json.Marshal(out)
}
