package features

import "math"

// Feature names. The set and order per score type is fixed: it must match
// what the corresponding model was trained on, and the scorer rejects any
// drift as a hard error.
const (
	AfterHoursRatio        = "after_hours_ratio"
	WeekendRatio           = "weekend_ratio"
	OpenTickets            = "open_tickets"
	AvgTimeSpent           = "avg_time_spent"
	TotalLinesChanged      = "total_lines_changed"
	HighValueTicketsClosed = "high_value_tickets_closed"
	AvgSentiment           = "avg_sentiment"
	ResponseRatio          = "response_ratio"
)

// Canonical schemas, one per score type.
var (
	WorkPatternSchema   = []string{AfterHoursRatio, WeekendRatio, OpenTickets, AvgTimeSpent}
	WorkloadSchema      = []string{TotalLinesChanged, HighValueTicketsClosed}
	CommunicationSchema = []string{AvgSentiment, ResponseRatio}
)

// Vector is a fixed-schema, ordered feature-name -> value mapping for one
// developer and one analysis window. It is ephemeral: recomputed on every
// scoring request, never persisted.
type Vector struct {
	names  []string
	values map[string]float64
}

// NewVector creates a vector with the given schema, all values zero.
func NewVector(names []string) *Vector {
	v := &Vector{
		names:  make([]string, len(names)),
		values: make(map[string]float64, len(names)),
	}
	copy(v.names, names)
	for _, n := range names {
		v.values[n] = 0
	}
	return v
}

// Set assigns a value to a feature declared in the schema. NaN and infinite
// values are coerced to 0 so a vector can never poison a model input.
func (v *Vector) Set(name string, value float64) {
	if _, ok := v.values[name]; !ok {
		return
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	v.values[name] = value
}

// Value returns the value for a feature, 0 if not declared.
func (v *Vector) Value(name string) float64 {
	return v.values[name]
}

// Names returns the schema in order.
func (v *Vector) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Ordered returns the values in schema order, ready to feed a model.
func (v *Vector) Ordered() []float64 {
	out := make([]float64, len(v.names))
	for i, n := range v.names {
		out[i] = v.values[n]
	}
	return out
}

// Map returns a copy of the name -> value mapping for API responses.
func (v *Vector) Map() map[string]float64 {
	out := make(map[string]float64, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}

// ratio divides count by total, returning 0 when total is zero. Ratios are
// defined to be 0 with no data; they never raise or go NaN.
func ratio(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}
