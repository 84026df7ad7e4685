package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evstar/internal/table"
)

func ranges(t *testing.T, vals ...table.Value) *table.Table {
	t.Helper()
	tb := table.MustNew(table.Column{Name: "electric_range", Type: table.TypeFloat}, table.Column{Name: "city"})
	for _, v := range vals {
		require.NoError(t, tb.Append(v, table.Null()))
	}
	return tb
}

func TestDescribe(t *testing.T) {
	tb := ranges(t, table.Float(4), table.Float(1), table.Null(), table.Float(3), table.Float(2))

	s, err := Describe(tb, "electric_range")
	require.NoError(t, err)
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2.5, s.Mean, 1e-9)
	assert.InDelta(t, 1.2909944, s.Std, 1e-6)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 1.75, s.Q25, 1e-9)
	assert.InDelta(t, 2.5, s.Median, 1e-9)
	assert.InDelta(t, 3.25, s.Q75, 1e-9)

	d := s.Dispersion()
	assert.Equal(t, "electric_range", d.Column)
	assert.InDelta(t, 1.5, d.IQR, 1e-9)
	assert.Equal(t, 3.0, d.Range)
}

func TestDescribe_EmptyAndSingle(t *testing.T) {
	s, err := Describe(ranges(t, table.Null()), "electric_range")
	require.NoError(t, err)
	assert.Zero(t, s.Count)

	s, err = Describe(ranges(t, table.Float(7)), "electric_range")
	require.NoError(t, err)
	assert.Equal(t, 7.0, s.Median)
	assert.Equal(t, 7.0, s.Q75)

	_, err = Describe(ranges(t), "nope")
	assert.ErrorIs(t, err, table.ErrUnknownColumn)
}

func TestMissingValues(t *testing.T) {
	tb := ranges(t, table.Float(0), table.Null(), table.Float(10))

	m, err := MissingValues(tb, "electric_range")
	require.NoError(t, err)
	assert.Equal(t, 3, m.Rows)
	assert.Equal(t, []ColumnCount{{"city", 3}, {"electric_range", 1}}, m.Nulls)
	assert.Equal(t, []ColumnCount{{"electric_range", 1}}, m.Zeros)

	var buf bytes.Buffer
	require.NoError(t, WriteMissing(&buf, m))
	assert.Contains(t, buf.String(), `Number of 0 values in "electric_range":`)
	assert.Contains(t, buf.String(), "Total rows:")
}

func TestWriteSummaries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummaries(&buf, []Summary{{
		Column: "base_msrp", Count: 2, Mean: 35000, Min: 30000, Q25: 32500, Q75: 37500, Max: 40000,
	}}))
	assert.Contains(t, buf.String(), "base_msrp")
	assert.Contains(t, buf.String(), "35000.00")
	// IQR then range.
	assert.Contains(t, buf.String(), "5000.00  10000.00")
}
