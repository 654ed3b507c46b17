package application

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chaoslog/internal/adapters/manifest"
	"github.com/hailam/chaoslog/internal/ports"
)

// generateCorpus writes a small corpus where every unit carries a marker.
func generateCorpus(t *testing.T, count int) (string, ports.Summary, []string) {
	t.Helper()
	cfg := testConfig(t)
	cfg.FileCount = count
	cfg.TargetSize = 20_000
	cfg.HitChance = 1
	cfg.Manifest = "manifest.json"

	summary, err := newTestService(nil, manifest.NewJSONWriter()).Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, count, summary.Succeeded)
	return cfg.OutputDir, summary, cfg.Markers
}

func TestVerifyService_RoundTrip(t *testing.T) {
	dir, _, markers := generateCorpus(t, 12)

	m, err := manifest.ReadJSON(filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)

	v, err := NewVerifyService(markers, "")
	require.NoError(t, err)
	report, err := v.Verify(context.Background(), dir, &m)
	require.NoError(t, err)

	assert.True(t, report.OK(), "problems: %v", report.Problems)
	require.Len(t, report.Files, 12)
	for _, fc := range report.Files {
		assert.Empty(t, fc.Err)
		carriers := 0
		for _, mc := range fc.Members {
			assert.True(t, mc.ValidUTF8)
			assert.Zero(t, mc.UnknownLines)
			assert.Positive(t, mc.Bytes)
			if mc.MarkerCount() > 0 {
				carriers++
				assert.Equal(t, 1, mc.MarkerCount())
			}
		}
		assert.Equal(t, 1, carriers, fc.Name)
	}
}

func TestVerifyService_DetectsProblems(t *testing.T) {
	dir, summary, markers := generateCorpus(t, 4)
	m := summary

	// A stray file that is not in the manifest and holds two markers.
	stray := "catalina_2030-01-01_00-00-00.log"
	require.NoError(t, os.WriteFile(filepath.Join(dir, stray),
		[]byte("\n[SECURITY_AUDIT] 2030-01-01 00:00:00.000 ALERT: Pattern FATALE detected in input stream from 1.2.3.4 !!!\nnot a log line FATALE\n"), 0o644))

	// A corrupt zip.
	broken := "trace_2030-01-02_00-00-00.zip"
	require.NoError(t, os.WriteFile(filepath.Join(dir, broken), []byte("PK not really"), 0o644))

	// A unit from the manifest removed from disk.
	removed := m.Units[0].Name
	require.NoError(t, os.Remove(filepath.Join(dir, removed)))

	v, err := NewVerifyService(markers, "")
	require.NoError(t, err)
	report, err := v.Verify(context.Background(), dir, &m)
	require.NoError(t, err)
	require.False(t, report.OK())

	joined := strings.Join(report.Problems, "\n")
	assert.Contains(t, joined, stray+": member "+stray+" has 1 unrecognized lines")
	assert.Contains(t, joined, stray+": not listed in manifest")
	assert.Contains(t, joined, broken+": opening zip")
	assert.Contains(t, joined, removed+": listed in manifest but missing")
}

func TestVerifyService_MarkerMismatch(t *testing.T) {
	dir, summary, markers := generateCorpus(t, 3)
	m := summary
	// Pretend the first unit was generated without a marker.
	m.Units[0].Marker = ""
	for i := range m.Units[0].Members {
		m.Units[0].Members[i].HasMarker = false
	}

	v, err := NewVerifyService(markers, "")
	require.NoError(t, err)
	report, err := v.Verify(context.Background(), dir, &m)
	require.NoError(t, err)
	require.Len(t, report.Problems, 1)
	assert.Contains(t, report.Problems[0], m.Units[0].Name+": unexpected marker")
}

func TestVerifyService_Include(t *testing.T) {
	dir, _, markers := generateCorpus(t, 10)

	v, err := NewVerifyService(markers, "*.zip")
	require.NoError(t, err)
	report, err := v.Verify(context.Background(), dir, nil)
	require.NoError(t, err)
	assert.True(t, report.OK(), "problems: %v", report.Problems)
	for _, fc := range report.Files {
		assert.Equal(t, ports.FormatZip, fc.Format)
	}
}

func TestNewVerifyService_Errors(t *testing.T) {
	_, err := NewVerifyService(nil, "")
	assert.Error(t, err)

	_, err = NewVerifyService([]string{"FATALE"}, "[unclosed")
	assert.Error(t, err)
}

func TestVerifyService_MissingDir(t *testing.T) {
	v, err := NewVerifyService([]string{"FATALE"}, "")
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}

func TestScanLinesKeepEOL(t *testing.T) {
	adv, tok, err := scanLinesKeepEOL([]byte("ab\ncd"), false)
	require.NoError(t, err)
	assert.Equal(t, 3, adv)
	assert.Equal(t, "ab\n", string(tok))

	adv, tok, _ = scanLinesKeepEOL([]byte("cd"), false)
	assert.Zero(t, adv)
	assert.Nil(t, tok)

	adv, tok, _ = scanLinesKeepEOL([]byte("cd"), true)
	assert.Equal(t, 2, adv)
	assert.Equal(t, "cd", string(tok))
}
