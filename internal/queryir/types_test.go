package queryir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitColumnRef(t *testing.T) {
	tests := []struct {
		ref    string
		table  string
		column string
		ok     bool
	}{
		{"orders.amount", "orders", "amount", true},
		{"a.b", "a", "b", true},
		{"amount", "", "", false},
		{"orders.amount.x", "", "", false},
		{".amount", "", "", false},
		{"orders.", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			table, column, ok := SplitColumnRef(tt.ref)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.table, table)
			assert.Equal(t, tt.column, column)
		})
	}
}

func TestQueryIR_InScope(t *testing.T) {
	q := QueryIR{Tables: []string{"orders", "customers"}}

	assert.True(t, q.InScope("orders"))
	assert.True(t, q.InScope("customers"))
	assert.False(t, q.InScope("Orders"), "scope match is exact")
	assert.False(t, q.InScope("products"))
}

func TestOperation_UnmarshalNormalizesCase(t *testing.T) {
	for _, in := range []string{"sum", "Sum", "SUM", " sum "} {
		var op Operation
		require.NoError(t, op.UnmarshalText([]byte(in)))
		assert.Equal(t, OpSum, op)
	}
}

func TestOperation_UnmarshalRejectsUnknown(t *testing.T) {
	var op Operation
	err := op.UnmarshalText([]byte("MEDIAN"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MEDIAN")
}

func TestOperator_Unmarshal(t *testing.T) {
	for _, op := range Operators {
		var got Operator
		require.NoError(t, got.UnmarshalText([]byte(op)))
		assert.Equal(t, op, got)
	}

	var bad Operator
	assert.Error(t, bad.UnmarshalText([]byte("LIKE")))
	assert.Error(t, bad.UnmarshalText([]byte("==")))
}

func TestIntent_Unmarshal(t *testing.T) {
	var i Intent
	require.NoError(t, i.UnmarshalText([]byte("Aggregation")))
	assert.Equal(t, IntentAggregation, i)

	assert.Error(t, i.UnmarshalText([]byte("delete")))
}

func TestQueryIR_JSONWireShape(t *testing.T) {
	raw := `{
		"intent": "aggregation",
		"tables": ["orders"],
		"metrics": [{"column": "orders.amount", "operation": "sum"}],
		"dimensions": ["orders.customer_id"],
		"filters": [{"column": "orders.amount", "operator": ">=", "value": "10"}],
		"joins": [{"left_table": "orders", "right_table": "customers", "left_column": "customer_id", "right_column": "customer_id"}]
	}`

	var q QueryIR
	require.NoError(t, json.Unmarshal([]byte(raw), &q))

	assert.Equal(t, IntentAggregation, q.Intent)
	assert.Equal(t, []string{"orders"}, q.Tables)
	assert.Equal(t, []Metric{{Column: "orders.amount", Operation: OpSum}}, q.Metrics)
	assert.Equal(t, []string{"orders.customer_id"}, q.Dimensions)
	assert.Equal(t, []Filter{{Column: "orders.amount", Operator: OpGte, Value: "10"}}, q.Filters)
	require.Len(t, q.Joins, 1)
	assert.Equal(t, "customers", q.Joins[0].RightTable)
}

func TestQueryIR_CloneIsDeep(t *testing.T) {
	q := QueryIR{
		Tables:  []string{"orders"},
		Metrics: []Metric{{Column: "orders.amount", Operation: OpSum}},
	}

	c := q.Clone()
	c.Tables[0] = "changed"
	c.Metrics[0].Column = "changed"

	assert.Equal(t, "orders", q.Tables[0])
	assert.Equal(t, "orders.amount", q.Metrics[0].Column)
}
