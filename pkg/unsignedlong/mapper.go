package unsignedlong

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// TypeName is the mapping type handled by Mapper.
const TypeName = "unsigned_long"

// MetricType is the time_series_metric kind of a field.
type MetricType string

const (
	MetricNone    MetricType = ""
	MetricGauge   MetricType = "gauge"
	MetricCounter MetricType = "counter"
)

// IndexMode distinguishes regular indices from time-series indices.
type IndexMode int

const (
	IndexModeStandard IndexMode = iota
	IndexModeTimeSeries
)

// FieldKind identifies what a produced field is used for.
type FieldKind int

const (
	// PointField is the indexed value used for term and range queries.
	PointField FieldKind = iota
	// DocValueField is the sorted numeric column used for sorting and aggregations.
	DocValueField
	// StoredField keeps the decimal text of the value.
	StoredField
)

func (k FieldKind) String() string {
	switch k {
	case PointField:
		return "point"
	case DocValueField:
		return "doc_value"
	case StoredField:
		return "stored"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// Field is one index-level field produced for a document value.
type Field struct {
	Name  string
	Kind  FieldKind
	Value int64  // encoded value, unused for StoredField
	Text  string // decimal text, StoredField only
}

// Unsigned returns the decoded value of a point or doc-value field.
func (f Field) Unsigned() uint64 { return Decode(f.Value) }

// Result is the outcome of parsing one document value.
type Result struct {
	Fields []Field
	// Ignored is set when a malformed value was skipped under ignore_malformed.
	Ignored bool
}

// Mapping is the resolved configuration of an unsigned_long field.
type Mapping struct {
	Name            string
	Index           bool
	DocValues       bool
	Store           bool
	NullValue       *uint64
	IgnoreMalformed bool
	Dimension       bool
	Metric          MetricType
}

// MappingError reports an invalid field definition.
type MappingError struct {
	msg string
}

func (e *MappingError) Error() string { return "Failed to parse mapping: " + e.msg }

// ParseError reports a document value the field could not index.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse field [%s] of type [%s]: %v", e.Field, TypeName, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	// ErrMultiValuedDimension is returned for arrays sent to a dimension field.
	ErrMultiValuedDimension = errors.New("multi-valued dimension")
	// ErrConflict is returned by Mapping.Merge for changes to immutable parameters.
	ErrConflict = errors.New("mapper conflict")
)

func mappingErr(format string, args ...any) error {
	return &MappingError{msg: fmt.Sprintf(format, args...)}
}

var knownParams = map[string]bool{
	"type":                  true,
	"index":                 true,
	"doc_values":            true,
	"store":                 true,
	"null_value":            true,
	"ignore_malformed":      true,
	"time_series_dimension": true,
	"time_series_metric":    true,
	"meta":                  true,
}

// ParseMapping resolves the parameters of a field definition.
func ParseMapping(name string, params map[string]any, mode IndexMode) (*Mapping, error) {
	if name == "" {
		return nil, mappingErr("field name is required")
	}
	unknown := make([]string, 0)
	for k := range params {
		if !knownParams[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, mappingErr("unknown parameter [%s] on mapper [%s] of type [%s]", unknown[0], name, TypeName)
	}
	if t, ok := params["type"]; ok && t != TypeName {
		return nil, mappingErr("mapper [%s] cannot be declared with type [%v]", name, t)
	}

	m := &Mapping{Name: name, Index: true, DocValues: true}
	var err error
	if m.Index, err = boolParam(params, "index", true); err != nil {
		return nil, err
	}
	if m.DocValues, err = boolParam(params, "doc_values", true); err != nil {
		return nil, err
	}
	if m.Store, err = boolParam(params, "store", false); err != nil {
		return nil, err
	}
	if m.IgnoreMalformed, err = boolParam(params, "ignore_malformed", false); err != nil {
		return nil, err
	}
	if m.Dimension, err = boolParam(params, "time_series_dimension", false); err != nil {
		return nil, err
	}

	if raw, ok := params["null_value"]; ok && raw != nil {
		v, perr := Parse(raw)
		if perr != nil {
			return nil, mappingErr("Error parsing [null_value] on field [%s]: %v", name, perr)
		}
		m.NullValue = &v
	}

	if raw, ok := params["time_series_metric"]; ok && raw != nil {
		s, _ := raw.(string)
		switch MetricType(s) {
		case MetricGauge, MetricCounter:
			m.Metric = MetricType(s)
		default:
			return nil, mappingErr("Unknown value [%v] for field [time_series_metric] - accepted values are [gauge, counter]", raw)
		}
	}

	if m.Dimension && (!m.Index || !m.DocValues) {
		return nil, mappingErr("Field [time_series_dimension] requires that [index] and [doc_values] are true")
	}
	if m.Metric != MetricNone && !m.DocValues {
		return nil, mappingErr("Field [time_series_metric] requires that [doc_values] is true")
	}
	if m.Dimension && m.Metric != MetricNone {
		return nil, mappingErr("Field [time_series_dimension] cannot be set in conjunction with field [time_series_metric]")
	}

	// Metrics in a time-series index are only read through doc values.
	if mode == IndexModeTimeSeries && m.Metric != MetricNone {
		m.Index = false
	}
	return m, nil
}

func boolParam(params map[string]any, key string, def bool) (bool, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, mappingErr("Failed to parse value [%v] as only [true] or [false] are allowed for [%s]", raw, key)
}

// Merge applies an updated definition to m. Parameters that change how
// existing documents were indexed cannot be updated.
func (m *Mapping) Merge(update *Mapping) error {
	var conflicts []string
	if m.Index != update.Index {
		conflicts = append(conflicts, "index")
	}
	if m.DocValues != update.DocValues {
		conflicts = append(conflicts, "doc_values")
	}
	if m.Store != update.Store {
		conflicts = append(conflicts, "store")
	}
	if !sameNull(m.NullValue, update.NullValue) {
		conflicts = append(conflicts, "null_value")
	}
	if m.Dimension != update.Dimension {
		conflicts = append(conflicts, "time_series_dimension")
	}
	if m.Metric != update.Metric {
		conflicts = append(conflicts, "time_series_metric")
	}
	if len(conflicts) > 0 {
		return fmt.Errorf("%w: cannot update parameter [%s] on mapper [%s]", ErrConflict, strings.Join(conflicts, ", "), m.Name)
	}
	m.IgnoreMalformed = update.IgnoreMalformed
	return nil
}

func sameNull(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Parse indexes one document value. A []any value is treated as a
// multi-valued field.
func (m *Mapping) Parse(value any) (Result, error) {
	values, ok := value.([]any)
	if !ok {
		values = []any{value}
	}
	if m.Dimension && len(values) > 1 {
		return Result{}, &ParseError{
			Field: m.Name,
			Err:   fmt.Errorf("%w: Dimension field [%s] cannot be a multi-valued field", ErrMultiValuedDimension, m.Name),
		}
	}

	var res Result
	for _, raw := range values {
		if raw == nil {
			if m.NullValue == nil {
				continue
			}
			res.Fields = append(res.Fields, m.fields(*m.NullValue)...)
			continue
		}
		v, err := Parse(raw)
		if err != nil {
			if m.IgnoreMalformed {
				res.Ignored = true
				continue
			}
			return Result{}, &ParseError{Field: m.Name, Err: err}
		}
		res.Fields = append(res.Fields, m.fields(v)...)
	}
	return res, nil
}

func (m *Mapping) fields(v uint64) []Field {
	out := make([]Field, 0, 3)
	enc := Encode(v)
	if m.Index {
		out = append(out, Field{Name: m.Name, Kind: PointField, Value: enc})
	}
	if m.DocValues {
		out = append(out, Field{Name: m.Name, Kind: DocValueField, Value: enc})
	}
	if m.Store {
		out = append(out, Field{Name: m.Name, Kind: StoredField, Text: Format(v)})
	}
	return out
}
