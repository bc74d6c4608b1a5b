package domain

// Row is one record of an external table, keyed by column name.
type Row map[string]string

// Column returns the value of a column and whether it exists.
func (r Row) Column(name string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r[name]
	return v, ok
}

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
