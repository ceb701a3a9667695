package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/go-k720"
)

func TestResult(t *testing.T) {
	tests := []struct {
		name   string
		report k720.Report
		want   string
	}{
		{"complete", k720.Report{State: k720.StateComplete}, "ok"},
		{"nak", k720.Report{State: k720.StateFailed, Err: fmt.Errorf("ack: %w", k720.ErrNAK)}, "nak"},
		{"timeout", k720.Report{State: k720.StateFailed, Err: fmt.Errorf("stx: %w", k720.ErrTimeout)}, "timeout"},
		{"other", k720.Report{State: k720.StateFailed, Err: k720.ErrProtocol}, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Result(tt.report))
		})
	}
}

func TestObserveTransaction(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTransactionMetrics(reg)

	m.ObserveTransaction(k720.Report{Command: "version", State: k720.StateComplete, Duration: 40 * time.Millisecond})
	m.ObserveTransaction(k720.Report{Command: "version", State: k720.StateComplete, Duration: 30 * time.Millisecond})
	m.ObserveTransaction(k720.Report{
		Command: "s50-card-id",
		State:   k720.StateFailed,
		Failed:  k720.StateResponseAwaited,
		Err:     fmt.Errorf("stx: %w", k720.ErrTimeout),
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transactions.WithLabelValues("version", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transactions.WithLabelValues("s50-card-id", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FailedState.WithLabelValues("response-awaited")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Duration))
}

func TestCardsDispensed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewTransactionMetrics(reg)
	m.CardsDispensed.Inc()

	expected := `
# HELP k720_cards_dispensed_total Cards moved to the take position by the operate loop.
# TYPE k720_cards_dispensed_total counter
k720_cards_dispensed_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "k720_cards_dispensed_total"))
}

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	m := NewTransactionMetrics(reg)
	m.ObserveTransaction(k720.Report{Command: "reset", State: k720.StateComplete})

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `k720_transactions_total{command="reset",result="ok"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
