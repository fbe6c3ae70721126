package pkg

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	s := filterSnapshot()
	s.Enumerated = 6
	s.PidProcess[12].Unreadable = []string{"exec"}

	m.ObserveSnapshot(s)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.records))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.dropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.partial))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.byType.WithLabelValues("Internal")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.byType.WithLabelValues("External")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.unknown))

	m.ObserveChange(Diff(snapshotOf(1, 2, 3), snapshotOf(2, 3, 4, 5)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.changes.WithLabelValues("added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.changes.WithLabelValues("removed")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "pswatch_snapshots_total 1"))
}
