package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsSingleton(t *testing.T) {
	a := Get()
	b := Get()
	require.Same(t, a, b)
}

func TestRecordCompressionUpdatesCollectors(t *testing.T) {
	m := Get()
	before := testutil.ToFloat64(m.CompressionsTotal.WithLabelValues("greedy"))
	m.RecordCompression("greedy", 10, 4, 2)
	after := testutil.ToFloat64(m.CompressionsTotal.WithLabelValues("greedy"))
	require.Equal(t, before+1, after)
}

func TestRecordDecompressionLabelsByOutcome(t *testing.T) {
	m := Get()
	beforeOK := testutil.ToFloat64(m.DecompressionsTotal.WithLabelValues("ok"))
	m.RecordDecompression(nil)
	require.Equal(t, beforeOK+1, testutil.ToFloat64(m.DecompressionsTotal.WithLabelValues("ok")))

	beforeErr := testutil.ToFloat64(m.DecompressionsTotal.WithLabelValues("error"))
	m.RecordDecompression(errBoom)
	require.Equal(t, beforeErr+1, testutil.ToFloat64(m.DecompressionsTotal.WithLabelValues("error")))
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
