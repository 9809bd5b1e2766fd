package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsAreRegistered(t *testing.T) {
	BuildsTotal.WithLabelValues("ok").Inc()
	Resolutions.WithLabelValues("not_found").Inc()

	n, err := testutil.GatherAndCount(Registry, "llmdb_catalog_builds_total", "llmdb_spec_resolutions_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 2)
}

func TestGaugeExposition(t *testing.T) {
	Models.Set(3)
	expected := `
# HELP llmdb_catalog_models Models in the published snapshot
# TYPE llmdb_catalog_models gauge
llmdb_catalog_models 3
`
	require.NoError(t, testutil.GatherAndCompare(Registry, strings.NewReader(expected), "llmdb_catalog_models"))
}
