package unsignedlong

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMapping(t *testing.T, params map[string]any) *Mapping {
	t.Helper()
	m, err := ParseMapping("field", params, IndexModeStandard)
	require.NoError(t, err)
	return m
}

func kinds(fields []Field) []FieldKind {
	out := make([]FieldKind, len(fields))
	for i, f := range fields {
		out[i] = f.Kind
	}
	return out
}

func TestMapping_DefaultFields(t *testing.T) {
	m := mustMapping(t, map[string]any{"type": "unsigned_long"})

	res, err := m.Parse("18446744073709551615")
	require.NoError(t, err)
	require.Equal(t, []FieldKind{PointField, DocValueField}, kinds(res.Fields))
	for _, f := range res.Fields {
		assert.Equal(t, "field", f.Name)
		assert.Equal(t, int64(math.MaxInt64), f.Value)
		assert.Equal(t, uint64(math.MaxUint64), f.Unsigned())
	}

	res, err = m.Parse("9223372036854775807")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), res.Fields[0].Value)
}

func TestMapping_FieldSelection(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   []FieldKind
	}{
		{name: "not indexed", params: map[string]any{"index": false}, want: []FieldKind{DocValueField}},
		{name: "no doc values", params: map[string]any{"doc_values": false}, want: []FieldKind{PointField}},
		{name: "stored", params: map[string]any{"store": true}, want: []FieldKind{PointField, DocValueField, StoredField}},
		{name: "string booleans", params: map[string]any{"index": "false", "store": "true"}, want: []FieldKind{DocValueField, StoredField}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := mustMapping(t, tt.params).Parse("18446744073709551615")
			require.NoError(t, err)
			assert.Equal(t, tt.want, kinds(res.Fields))
		})
	}
}

func TestMapping_StoredKeepsDecimalText(t *testing.T) {
	res, err := mustMapping(t, map[string]any{"store": true}).Parse(uint64(math.MaxUint64))
	require.NoError(t, err)
	require.Len(t, res.Fields, 3)
	assert.Equal(t, "18446744073709551615", res.Fields[2].Text)
}

func TestMapping_NullValue(t *testing.T) {
	res, err := mustMapping(t, nil).Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, res.Fields)

	m := mustMapping(t, map[string]any{"null_value": "18446744073709551615"})
	res, err = m.Parse(nil)
	require.NoError(t, err)
	require.Len(t, res.Fields, 2)
	assert.Equal(t, int64(math.MaxInt64), res.Fields[0].Value)

	_, err = ParseMapping("field", map[string]any{"null_value": "-1"}, IndexModeStandard)
	var me *MappingError
	require.ErrorAs(t, err, &me)
	assert.Contains(t, err.Error(), "null_value")
}

func TestMapping_MalformedValues(t *testing.T) {
	m := mustMapping(t, nil)
	for _, v := range []any{"a", false, "10.5", "-1", "18446744073709551616"} {
		_, err := m.Parse(v)
		var pe *ParseError
		require.ErrorAs(t, err, &pe, "value %v", v)
		assert.Equal(t, "field", pe.Field)
		assert.ErrorIs(t, err, ErrMalformed)
	}
}

func TestMapping_IgnoreMalformed(t *testing.T) {
	m := mustMapping(t, map[string]any{"ignore_malformed": true})

	res, err := m.Parse("a")
	require.NoError(t, err)
	assert.True(t, res.Ignored)
	assert.Empty(t, res.Fields)

	res, err = m.Parse([]any{"1", "b", 2})
	require.NoError(t, err)
	assert.True(t, res.Ignored)
	assert.Len(t, res.Fields, 4)
}

func TestMapping_MultiValued(t *testing.T) {
	res, err := mustMapping(t, nil).Parse([]any{"1", uint64(2), nil, 3.0})
	require.NoError(t, err)
	require.Len(t, res.Fields, 6)
	assert.Equal(t, uint64(3), res.Fields[4].Unsigned())
}

func TestMapping_Errors(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		wantErr string
	}{
		{
			name:    "unknown parameter",
			params:  map[string]any{"coerce": false},
			wantErr: "Failed to parse mapping: unknown parameter [coerce] on mapper [field] of type [unsigned_long]",
		},
		{
			name:    "dimension without index",
			params:  map[string]any{"time_series_dimension": true, "index": false},
			wantErr: "Field [time_series_dimension] requires that [index] and [doc_values] are true",
		},
		{
			name:    "dimension without doc values",
			params:  map[string]any{"time_series_dimension": true, "doc_values": false},
			wantErr: "Field [time_series_dimension] requires that [index] and [doc_values] are true",
		},
		{
			name:    "unknown metric",
			params:  map[string]any{"time_series_metric": "histogram"},
			wantErr: "Unknown value [histogram] for field [time_series_metric] - accepted values are [gauge, counter]",
		},
		{
			name:    "metric without doc values",
			params:  map[string]any{"time_series_metric": "gauge", "doc_values": false},
			wantErr: "Field [time_series_metric] requires that [doc_values] is true",
		},
		{
			name:    "dimension and metric",
			params:  map[string]any{"time_series_dimension": true, "time_series_metric": "counter"},
			wantErr: "Field [time_series_dimension] cannot be set in conjunction with field [time_series_metric]",
		},
		{
			name:    "invalid boolean",
			params:  map[string]any{"store": "yes"},
			wantErr: "only [true] or [false] are allowed for [store]",
		},
		{
			name:    "wrong type",
			params:  map[string]any{"type": "long"},
			wantErr: "cannot be declared with type [long]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMapping("field", tt.params, IndexModeStandard)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMapping_DimensionRejectsArrays(t *testing.T) {
	m := mustMapping(t, map[string]any{"time_series_dimension": true})

	_, err := m.Parse([]any{"1", "2", "3"})
	require.ErrorIs(t, err, ErrMultiValuedDimension)
	assert.Contains(t, err.Error(), "Dimension field [field] cannot be a multi-valued field")

	res, err := m.Parse([]any{"1"})
	require.NoError(t, err)
	assert.Len(t, res.Fields, 2)
}

func TestMapping_TimeSeriesMetricNotIndexed(t *testing.T) {
	m, err := ParseMapping("field", map[string]any{"time_series_metric": "counter"}, IndexModeTimeSeries)
	require.NoError(t, err)
	assert.False(t, m.Index)

	res, err := m.Parse(uint64(5))
	require.NoError(t, err)
	assert.Equal(t, []FieldKind{DocValueField}, kinds(res.Fields))

	m, err = ParseMapping("field", map[string]any{"time_series_metric": "gauge"}, IndexModeStandard)
	require.NoError(t, err)
	assert.True(t, m.Index)
}

func TestMapping_Merge(t *testing.T) {
	base := mustMapping(t, nil)

	for _, params := range []map[string]any{
		{"doc_values": false},
		{"index": false},
		{"store": true},
		{"null_value": "1"},
	} {
		err := base.Merge(mustMapping(t, params))
		assert.ErrorIs(t, err, ErrConflict, "params %v", params)
	}

	require.NoError(t, base.Merge(mustMapping(t, map[string]any{"ignore_malformed": true})))
	assert.True(t, base.IgnoreMalformed)
}
