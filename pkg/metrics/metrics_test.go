package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterCollectors(reg)

	SectionEdits.WithLabelValues("media").Inc()
	require.GreaterOrEqual(t, testutil.ToFloat64(SectionEdits.WithLabelValues("media")), 1.0)

	n, err := testutil.GatherAndCount(reg, "pmr_atlas_disease_edits_total")
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, 1)

	require.Panics(t, func() { RegisterCollectors(reg) }, "double registration must fail loudly")
}
