package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTransition(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordTransition("not_started", "starting")
	c.RecordTransition("starting", "started")
	c.RecordTransition("starting", "started")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.transitions.WithLabelValues("starting", "started")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("not_started", "starting")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.systemState))

	c.RecordTransition("started", "bogus")
	assert.Equal(t, 2.0, testutil.ToFloat64(c.systemState), "unknown states leave the gauge alone")
}

func TestRecordRoleOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRoleOperation("db", "start", "success", 3*time.Millisecond)
	c.RecordRoleOperation("db", "start", "error", time.Millisecond)
	c.RecordRoleOperation("web", "stop", "success", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.roleOperations.WithLabelValues("db", "start", "error")))
	assert.Equal(t, 3, testutil.CollectAndCount(c.roleOperations))
	assert.Equal(t, 2, testutil.CollectAndCount(c.roleDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "dagsys_role_operations_total")
	assert.Contains(t, names, "dagsys_role_operation_duration_seconds")
}

func TestRecordWorkerPoolStatus(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.RecordWorkerPoolStatus(3, 1, 0)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.workerPoolIdle))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.workerPoolBusy))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.workerPoolStopped))
}

func TestCollectorsUseSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewCollector(prometheus.NewRegistry())
		NewCollector(prometheus.NewRegistry())
	})
}
