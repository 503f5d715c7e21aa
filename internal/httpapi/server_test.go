package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/irgate/internal/catalog"
	"github.com/roach88/irgate/internal/queryir"
	"github.com/roach88/irgate/internal/translate"
	"github.com/roach88/irgate/internal/testutil"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger, _ = testutil.NewLogger()
	}
	snap := catalog.ExampleSnapshot()
	return NewServer(translate.New(snap, translate.WithLogger(opts.Logger)), snap, opts)
}

func postQuery(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func TestQuery_EndToEnd(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantSQL    string
		wantCode   queryir.ErrorCode
		wantDetail string
	}{
		{
			name: "aggregation with filter",
			body: `{"intent":"aggregation","tables":["orders"],
				"metrics":[{"column":"orders.amount","operation":"SUM"}],
				"filters":[{"column":"orders.customer_id","operator":"=","value":"5"}]}`,
			wantStatus: http.StatusOK,
			wantSQL:    "SELECT SUM(orders.amount) FROM orders WHERE orders.customer_id = '5'",
		},
		{
			name:       "group by without metrics",
			body:       `{"intent":"select","tables":["orders"],"dimensions":["orders.customer_id"]}`,
			wantStatus: http.StatusOK,
			wantSQL:    "SELECT * FROM orders GROUP BY orders.customer_id",
		},
		{
			name:       "unknown table",
			body:       `{"intent":"select","tables":["ghost"]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   queryir.ErrCodeUnknownTable,
			wantDetail: "Unknown table: ghost",
		},
		{
			name:       "hallucinated column",
			body:       `{"intent":"select","tables":["orders"],"filters":[{"column":"orders.bogus_col","operator":"=","value":"x"}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   queryir.ErrCodeHallucinatedColumn,
			wantDetail: "Hallucination detected: Column 'bogus_col' does not exist in table 'orders'.",
		},
		{
			name:       "table exists but not in scope",
			body:       `{"intent":"select","tables":["orders"],"filters":[{"column":"customers.name","operator":"=","value":"x"}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   queryir.ErrCodeOutOfScope,
			wantDetail: "Column 'customers.name' references table 'customers' which is not in the query scope (tables list).",
		},
		{
			name:       "malformed reference",
			body:       `{"intent":"select","tables":["orders"],"dimensions":["customer_id"]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   queryir.ErrCodeMalformedReference,
			wantDetail: "Ambiguous column reference: 'customer_id'. Must be 'table.column'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postQuery(t, srv, tt.body)

			require.Equal(t, tt.wantStatus, rec.Code, "body: %s", rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			if tt.wantStatus == http.StatusOK {
				resp := decodeBody[QueryResponse](t, rec)
				assert.Equal(t, tt.wantSQL, resp.SQL)
				assert.Equal(t, "SQL generated from validated semantic IR", resp.Explanation)
				assert.Len(t, rec.Header().Get(FingerprintHeader), 64)
				return
			}

			resp := decodeBody[ErrorResponse](t, rec)
			assert.Equal(t, string(tt.wantCode), resp.Code)
			assert.Equal(t, tt.wantDetail, resp.Detail)
			assert.Empty(t, rec.Header().Get(FingerprintHeader))
		})
	}
}

func TestQuery_FingerprintMatchesIR(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec := postQuery(t, srv, `{"intent":"select","tables":["customers"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	want := queryir.Fingerprint(queryir.QueryIR{Intent: queryir.IntentSelect, Tables: []string{"customers"}})
	assert.Equal(t, want, rec.Header().Get(FingerprintHeader))
}

func TestQuery_DecodeErrors(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `{`, "decode IR JSON"},
		{"missing intent", `{"tables":["orders"]}`, "intent is required"},
		{"missing tables", `{"intent":"select"}`, "tables is required"},
		{"unknown operation", `{"intent":"aggregation","tables":["orders"],"metrics":[{"column":"orders.amount","operation":"MEDIAN"}]}`, "unknown operation"},
		{"unknown operator", `{"intent":"select","tables":["orders"],"filters":[{"column":"orders.amount","operator":"LIKE","value":"1"}]}`, "unknown operator"},
		{"unknown field", `{"intent":"select","tables":["orders"],"filter":[{"column":"orders.amount","operator":">","value":"5"}]}`, `unknown field "filter"`},
		{"trailing data", `{"intent":"select","tables":["orders"]} {}`, "trailing data"},
		{"missing operation", `{"intent":"select","tables":["ghost"],"metrics":[{"column":"orders.amount"}]}`, "metrics[0].operation is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postQuery(t, srv, tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeBody[ErrorResponse](t, rec)
			assert.Equal(t, string(queryir.ErrCodeInvalidShape), resp.Code)
			assert.Contains(t, resp.Detail, tt.want)
		})
	}
}

func TestQuery_SQLOperatorsNotHTMLEscaped(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec := postQuery(t, srv, `{"intent":"select","tables":["orders"],"filters":[{"column":"orders.amount","operator":">","value":"5"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sql":"SELECT * FROM orders WHERE orders.amount > '5'"`)
	assert.NotContains(t, rec.Body.String(), `\u003e`)
}

func TestQuery_EmptyTablesIsInvalidShape(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec := postQuery(t, srv, `{"intent":"select","tables":[]}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "E200", decodeBody[ErrorResponse](t, rec).Code)
}

func TestQuery_BodyTooLarge(t *testing.T) {
	srv := newTestServer(t, Options{MaxBodyBytes: 16})

	rec := postQuery(t, srv, `{"intent":"select","tables":["orders","customers"]}`)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestQuery_CatalogFailureIs500(t *testing.T) {
	logger, logs := testutil.NewLogger()
	failing := testutil.FailingCatalog{}
	srv := NewServer(translate.New(failing, translate.WithLogger(logger)), catalog.ExampleSnapshot(), Options{Logger: logger})

	rec := postQuery(t, srv, `{"intent":"select","tables":["orders"]}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Empty(t, resp.Code)
	assert.Equal(t, "schema catalog unavailable", resp.Detail)
	assert.NotContains(t, rec.Body.String(), testutil.ErrCatalogDown.Error())
	assert.Contains(t, logs.String(), "catalog lookup failed")
}

func TestQuery_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/query", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSchema(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schema", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[SchemaResponse](t, rec)
	require.Len(t, resp.Tables, 2)
	assert.Equal(t, "customers", resp.Tables[0].Name)
	assert.Equal(t, "orders", resp.Tables[1].Name)
	assert.Equal(t, []string{"order_id", "customer_id", "amount", "order_date"}, resp.Tables[1].ColumnNames())
	assert.Equal(t, "REAL", resp.Tables[1].Columns[2].Type)
	assert.Equal(t, []catalog.ForeignKey{{Column: "customer_id", RefTable: "customers", RefColumn: "customer_id"}}, resp.Tables[1].ForeignKeys)
}

type brokenSchema struct {
	testutil.FailingCatalog
}

func (brokenSchema) Columns(ctx context.Context, table string) ([]catalog.Column, error) {
	return nil, testutil.ErrCatalogDown
}

func (brokenSchema) ForeignKeys(ctx context.Context, table string) ([]catalog.ForeignKey, error) {
	return nil, testutil.ErrCatalogDown
}

func TestSchema_CatalogFailure(t *testing.T) {
	logger, _ := testutil.NewLogger()
	srv := NewServer(translate.New(brokenSchema{}), brokenSchema{}, Options{Logger: logger})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schema", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	logger, logs := testutil.NewLogger()
	srv := newTestServer(t, Options{Logger: logger})

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		parsed, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), parsed.Version())
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"intent":"select","tables":["ghost"]}`))
		req.Header.Set(RequestIDHeader, "client-123")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, "client-123", rec.Header().Get(RequestIDHeader))
		assert.Contains(t, logs.String(), `"request_id":"client-123"`)
		assert.Contains(t, logs.String(), `"msg":"http request"`)
	})

	t.Run("oversized id replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
		assert.NoError(t, err)
	})
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, Options{CORSOrigins: []string{"https://app.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/query", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_DisabledByDefault(t *testing.T) {
	srv := newTestServer(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
