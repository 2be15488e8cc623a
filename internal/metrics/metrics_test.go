package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSubmission(t *testing.T) {
	before := testutil.ToFloat64(submissionsTotal.WithLabelValues(OutcomeCompleted))
	beforeRejected := testutil.ToFloat64(submissionsTotal.WithLabelValues(OutcomeRejected))

	RecordSubmission(OutcomeCompleted, 120*time.Millisecond)
	RecordSubmission(OutcomeRejected, 0)

	assert.Equal(t, before+1, testutil.ToFloat64(submissionsTotal.WithLabelValues(OutcomeCompleted)))
	assert.Equal(t, beforeRejected+1, testutil.ToFloat64(submissionsTotal.WithLabelValues(OutcomeRejected)))
}

func TestCounters(t *testing.T) {
	delivery := testutil.ToFloat64(deliveryFailuresTotal)
	chart := testutil.ToFloat64(chartUnavailableTotal)
	drafts := testutil.ToFloat64(draftsSavedTotal)

	RecordDeliveryFailure()
	RecordChartUnavailable()
	RecordDraftSaved()

	assert.Equal(t, delivery+1, testutil.ToFloat64(deliveryFailuresTotal))
	assert.Equal(t, chart+1, testutil.ToFloat64(chartUnavailableTotal))
	assert.Equal(t, drafts+1, testutil.ToFloat64(draftsSavedTotal))
}

func TestWriteTextfile(t *testing.T) {
	RecordDraftSaved()
	path := filepath.Join(t.TempDir(), "dora.prom")

	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dora_drafts_saved_total")
}
