package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashrisk-mcp/internal/ledger"
)

func TestRead_FlowsAndBalance(t *testing.T) {
	in := `date,inflow,outflow,balance
2025-01-02,100.50,40.25,1060.25
2025-01-01,200.00,100.00,1000.00
`
	series, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	assert.True(t, series.HasFlows)
	assert.True(t, series.HasBalance)
	assert.False(t, series.HasClients)
	assert.False(t, series.HasInvoices)
	require.Len(t, series.Rows, 2)

	// Rows come back sorted by date.
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), series.Rows[0].Date)
	assert.Equal(t, 200.0, series.Rows[0].Inflow)
	assert.Equal(t, 100.0, series.Rows[0].NetFlow)
	assert.Equal(t, 1060.25, series.Rows[1].Balance)
}

func TestRead_NetFlowOnly(t *testing.T) {
	in := `date,net_flow
2025-01-01,150.00
2025-01-02,-75.50
`
	series, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	assert.False(t, series.HasFlows)
	assert.True(t, series.HasBalance, "balance is derived when the column is absent")
	require.Len(t, series.Rows, 2)

	// Derived balance accumulates the net flows.
	assert.Equal(t, 150.0, series.Rows[0].Balance)
	assert.Equal(t, 74.5, series.Rows[1].Balance)
}

func TestRead_DerivedBalanceFromFlows(t *testing.T) {
	in := `date,inflow,outflow
2025-01-01,500,200
2025-01-02,100,400
`
	series, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 300.0, series.Rows[0].Balance)
	assert.Equal(t, 0.0, series.Rows[1].Balance)
}

func TestRead_OptionalColumns(t *testing.T) {
	in := `date,inflow,outflow,balance,client_id,category,due_date,paid_date,invoice_amount
2025-01-01,500,200,300,CL-001,vendas,2025-01-15,2025-01-14,500
2025-01-02,100,400,0,CL-002,servicos,2025-01-16,,100
`
	series, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	assert.True(t, series.HasClients)
	assert.True(t, series.HasCategories)
	assert.True(t, series.HasInvoices)

	first := series.Rows[0]
	assert.Equal(t, "CL-001", first.ClientID)
	assert.Equal(t, "vendas", first.Category)
	require.NotNil(t, first.DueDate)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), *first.DueDate)
	require.NotNil(t, first.PaidDate)

	second := series.Rows[1]
	assert.Nil(t, second.PaidDate)
	assert.Equal(t, 100.0, second.InvoiceAmount)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		validation bool
	}{
		{"Empty", "", true},
		{"MissingDate", "inflow,outflow\n1,2\n", true},
		{"MissingFlowBasis", "date,balance\n2025-01-01,100\n", true},
		{"HeaderOnly", "date,net_flow\n", true},
		{"BadDate", "date,net_flow\nnot-a-date,1\n", false},
		{"BadAmount", "date,net_flow\n2025-01-01,abc\n", false},
		{"NegativeInflow", "date,inflow,outflow\n2025-01-01,-5,0\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Equal(t, tt.validation, ledger.IsValidation(err))
		})
	}
}

func TestRead_HeaderCaseInsensitive(t *testing.T) {
	in := "Date,Inflow,Outflow\n2025-01-01,10,5\n"
	series, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	assert.True(t, series.HasFlows)
}
