package store

// Int64 returns a pointer to v, for populating MetricRow's nullable int64
// fields from plain int values computed elsewhere in the pipeline.
func Int64(v int) *int64 {
	n := int64(v)

	return &n
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}

// String returns a pointer to v.
func String(v string) *string {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}
