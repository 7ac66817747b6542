package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel-sandbox/internal/verdict"
)

func TestFromVerdict(t *testing.T) {
	target := filepath.Join(t.TempDir(), "sample.bin")
	require.NoError(t, os.WriteFile(target, []byte("test"), 0600))

	v := verdict.NewAssemblerAt(func() time.Time { return time.Unix(1_700_000_000, 0) }).Assemble(
		verdict.StatusAnalyzed, "MicroVM executed.\nStdout: \nStderr: ", verdict.IsolationFirecracker,
		verdict.ThreatScore{Level: verdict.LevelLow, Score: 10, Confidence: 0.8, Indicators: []string{"Suspiciously small file size"}},
	)

	rec := FromVerdict("id-1", target, v)

	assert.Equal(t, "id-1", rec.AnalysisID)
	assert.Equal(t, "ANALYZED", rec.Status)
	assert.Equal(t, "firecracker_microvm", rec.IsolationMethod)
	assert.Equal(t, "LOW", rec.Level)
	assert.Equal(t, 10, rec.Score)
	assert.Equal(t, int64(1_700_000_000), rec.Timestamp)
	assert.Equal(t, []string{"Suspiciously small file size"}, rec.Indicators)
	// sha256("test")
	assert.Equal(t, "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08", rec.TargetSHA256)
}

func TestFromVerdict_UnreadableTarget(t *testing.T) {
	v := verdict.NewAssembler().Assemble(verdict.StatusError, "Firecracker not installed.", verdict.IsolationNone,
		verdict.Unknown("Analysis failed - Firecracker not installed"))

	rec := FromVerdict("id-2", filepath.Join(t.TempDir(), "missing"), v)

	assert.Empty(t, rec.TargetSHA256)
	assert.Equal(t, "UNKNOWN", rec.Level)
}

func TestHashFile_Missing(t *testing.T) {
	_, err := HashFile(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
