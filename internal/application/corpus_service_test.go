package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	jujuerrors "github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chaoslog/internal/adapters/factory"
	"github.com/hailam/chaoslog/internal/adapters/manifest"
	"github.com/hailam/chaoslog/internal/archive"
	"github.com/hailam/chaoslog/internal/config"
	"github.com/hailam/chaoslog/internal/ports"
	"github.com/hailam/chaoslog/internal/theme"
	"github.com/hailam/chaoslog/internal/utils"
)

// --- Mock Implementations ---

// MockReporter records every progress callback.
type MockReporter struct {
	Total       int
	Started     []string
	Done        []ports.UnitReport
	Finished    bool
	OnUnitDone  func(ports.UnitReport)
	LastSummary ports.Summary
}

func (m *MockReporter) Start(total int) { m.Total = total }

func (m *MockReporter) UnitStarted(index, total int, name, marker string) {
	m.Started = append(m.Started, name)
}

func (m *MockReporter) UnitDone(report ports.UnitReport) {
	m.Done = append(m.Done, report)
	if m.OnUnitDone != nil {
		m.OnUnitDone(report)
	}
}

func (m *MockReporter) Finish(summary ports.Summary) {
	m.Finished = true
	m.LastSummary = summary
}

// MockUnitWriter is a UnitWriter whose behaviour is set per test.
type MockUnitWriter struct {
	WriteFunc func(unit archive.Unit, path string) (archive.Result, error)
	Units     []archive.Unit
}

func (m *MockUnitWriter) Write(unit archive.Unit, path string) (archive.Result, error) {
	m.Units = append(m.Units, unit)
	if m.WriteFunc != nil {
		return m.WriteFunc(unit, path)
	}
	return archive.Result{Bytes: 1}, nil
}

// MockManifestWriter fails on demand.
type MockManifestWriter struct {
	Err   error
	Paths []string
}

func (m *MockManifestWriter) Ext() string { return ".mock" }

func (m *MockManifestWriter) WriteManifest(path string, summary ports.Summary) error {
	m.Paths = append(m.Paths, path)
	return m.Err
}

// --- Helpers ---

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = filepath.Join(t.TempDir(), "corpus")
	cfg.FileCount = 5
	cfg.TargetSize = 4096
	cfg.BatchSize = 20
	cfg.Seed = 1234
	cfg.Manifest = ""
	return cfg
}

func newTestService(reporter ports.Reporter, manifests ...ports.ManifestWriter) *CorpusService {
	return NewCorpusService(factory.NewStaticEncoderFactory(), reporter, manifests...).WithLogger(quietLogger())
}

func withWriter(s *CorpusService, w UnitWriter) *CorpusService {
	s.newWriter = func(*rand.Rand, config.Config) UnitWriter { return w }
	return s
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

var unitNameRe = regexp.MustCompile(`^(apache_access|catalina|syslog|db_slow_query|error|trace)_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}(\.log|\.zip|\.tar\.gz)$`)

// --- Test Cases ---

func TestCorpusService_Run(t *testing.T) {
	reporter := &MockReporter{}
	cfg := testConfig(t)

	summary, err := newTestService(reporter).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Requested)
	assert.Equal(t, 5, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	assert.False(t, summary.Interrupted)
	assert.NotEmpty(t, summary.RunID)
	require.Len(t, summary.Units, 5)

	assert.Equal(t, 5, reporter.Total)
	assert.Len(t, reporter.Started, 5)
	assert.Len(t, reporter.Done, 5)
	assert.True(t, reporter.Finished)

	names := listDir(t, cfg.OutputDir)
	assert.Len(t, names, 5)
	for i, u := range summary.Units {
		assert.Equal(t, i, u.Index)
		assert.Regexp(t, unitNameRe, u.Name)
		assert.True(t, strings.HasSuffix(u.Name, u.Format.Ext()))
		assert.Contains(t, names, u.Name)
		assert.False(t, u.Timestamp.Before(cfg.StartDate.Time))
		assert.True(t, u.Timestamp.Before(cfg.EndDate.Time))
		assert.Contains(t, u.Name, u.Timestamp.Format(unitTimeLayout))
		assert.Positive(t, u.Bytes)

		info, err := os.Stat(filepath.Join(cfg.OutputDir, u.Name))
		require.NoError(t, err)
		assert.Equal(t, info.Size(), u.Bytes)
	}
}

// Scenario 1: a single 1024-byte plain unit without marker.
func TestCorpusService_PlainUnitScenario(t *testing.T) {
	cfg := testConfig(t)
	cfg.FileCount = 1
	cfg.TargetSize = 1024
	cfg.HitChance = 0
	cfg.Formats = []ports.Format{ports.FormatPlain}

	summary, err := newTestService(nil).Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)

	names := listDir(t, cfg.OutputDir)
	require.Len(t, names, 1)
	assert.True(t, strings.HasSuffix(names[0], ".log"))

	b, err := os.ReadFile(filepath.Join(cfg.OutputDir, names[0]))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(b), 1024)
	assert.True(t, utf8.Valid(b))
	assert.NotContains(t, string(b), theme.MarkerPrefix)
	for _, l := range strings.Split(string(b), "\n") {
		assert.True(t, theme.KnownLine(l), "unexpected line %q", l)
	}
}

// Scenario 3: zero units leave an empty directory and a zero summary.
func TestCorpusService_ZeroUnits(t *testing.T) {
	cfg := testConfig(t)
	cfg.FileCount = 0
	cfg.Manifest = "manifest.json"

	summary, err := newTestService(nil, manifest.NewJSONWriter()).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Zero(t, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	assert.Empty(t, summary.Units)
	assert.Empty(t, listDir(t, cfg.OutputDir))
}

func TestCorpusService_FormatDistribution(t *testing.T) {
	cfg := testConfig(t)
	cfg.FileCount = 300
	cfg.TargetSize = 1
	cfg.BatchSize = 1

	summary, err := newTestService(nil).Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Equal(t, 300, summary.Succeeded)

	counts := map[ports.Format]int{}
	for _, u := range summary.Units {
		counts[u.Format]++
	}
	for _, f := range ports.AllFormats() {
		assert.InDelta(t, 100, counts[f], 40, "format %s", f)
	}
	assert.Len(t, listDir(t, cfg.OutputDir), 300)
}

func TestCorpusService_HitChance(t *testing.T) {
	tests := []struct {
		name      string
		chance    float64
		wantAll   bool
		wantNone  bool
		wantRatio float64
	}{
		{"Never", 0, false, true, 0},
		{"Always", 1, true, false, 1},
		{"Quarter", 0.25, false, false, 0.25},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.FileCount = 400
			cfg.HitChance = tc.chance
			w := &MockUnitWriter{}

			summary, err := withWriter(newTestService(nil), w).Run(context.Background(), cfg)
			require.NoError(t, err)

			withMarker := 0
			for _, u := range w.Units {
				if u.Marker != "" {
					withMarker++
					assert.Contains(t, cfg.Markers, u.Marker)
				}
				assert.Equal(t, int64(cfg.TargetSize), u.TargetSize)
			}
			switch {
			case tc.wantAll:
				assert.Equal(t, 400, withMarker)
			case tc.wantNone:
				assert.Zero(t, withMarker)
			default:
				assert.InDelta(t, tc.wantRatio, float64(withMarker)/400, 0.07)
			}
			assert.Equal(t, 400, summary.Succeeded)
		})
	}
}

func TestCorpusService_UnitFailureDoesNotAbort(t *testing.T) {
	cfg := testConfig(t)
	calls := 0
	w := &MockUnitWriter{WriteFunc: func(unit archive.Unit, path string) (archive.Result, error) {
		calls++
		if calls == 2 || calls == 4 {
			return archive.Result{}, errors.New("disk full")
		}
		return archive.Result{Bytes: 10}, nil
	}}
	reporter := &MockReporter{}

	summary, err := withWriter(newTestService(reporter), w).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 5, calls)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, "disk full", summary.Units[1].Err)
	assert.False(t, summary.Units[1].OK())
	assert.True(t, summary.Units[2].OK())
	assert.Equal(t, 2, reporter.LastSummary.Failed)
}

func TestCorpusService_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"ZeroTargetSize", func(c *config.Config) { c.TargetSize = 0 }},
		{"EmptyMarkers", func(c *config.Config) { c.Markers = nil }},
		{"BadHitChance", func(c *config.Config) { c.HitChance = 2 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(t)
			tc.mutate(&cfg)
			w := &MockUnitWriter{}

			_, err := withWriter(newTestService(nil), w).Run(context.Background(), cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Empty(t, w.Units)
			assert.NoDirExists(t, cfg.OutputDir)
		})
	}
}

func TestCorpusService_Interrupt(t *testing.T) {
	t.Run("BeforeFirstUnit", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		w := &MockUnitWriter{}

		summary, err := withWriter(newTestService(nil), w).Run(ctx, testConfig(t))
		require.Error(t, err)
		assert.True(t, summary.Interrupted)
		assert.Empty(t, w.Units)
	})

	t.Run("BetweenUnits", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		reporter := &MockReporter{}
		reporter.OnUnitDone = func(r ports.UnitReport) {
			if r.Index == 1 {
				cancel()
			}
		}
		w := &MockUnitWriter{}

		summary, err := withWriter(newTestService(reporter), w).Run(ctx, testConfig(t))
		require.Error(t, err)
		assert.Equal(t, context.Canceled, jujuerrors.Cause(err))
		assert.True(t, summary.Interrupted)
		assert.Len(t, w.Units, 2)
		assert.Equal(t, 2, summary.Succeeded)
		assert.Equal(t, 5, summary.Requested)
		assert.True(t, reporter.Finished)
	})
}

func TestCorpusService_Manifests(t *testing.T) {
	cfg := testConfig(t)
	cfg.Manifest = "truth.json"
	mock := &MockManifestWriter{}

	summary, err := newTestService(nil, manifest.NewJSONWriter(), mock).Run(context.Background(), cfg)
	require.NoError(t, err)

	got, err := manifest.ReadJSON(filepath.Join(cfg.OutputDir, "truth.json"))
	require.NoError(t, err)
	assert.Equal(t, summary.RunID, got.RunID)
	assert.Len(t, got.Units, cfg.FileCount)
	assert.Equal(t, []string{filepath.Join(cfg.OutputDir, "truth.mock")}, mock.Paths)

	t.Run("WriterFailure", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Manifest = "truth.json"
		summary, err := newTestService(nil, &MockManifestWriter{Err: errors.New("read-only fs")}).Run(context.Background(), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read-only fs")
		assert.Equal(t, cfg.FileCount, summary.Succeeded)
	})
}

func TestPlanUnit_UniqueNames(t *testing.T) {
	cfg := testConfig(t)
	cfg.Prefixes = []string{"syslog"}
	cfg.Formats = []ports.Format{ports.FormatPlain}
	cfg.StartDate = config.NewDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cfg.EndDate = config.NewDate(cfg.StartDate.Add(3 * time.Second))

	r := utils.NewRand(9)
	used := map[string]bool{}
	for i := 0; i < 20; i++ {
		u := planUnit(r, cfg, used)
		assert.True(t, strings.HasPrefix(u.Name, "syslog_2024-01-01_00-00-0"), u.Name)
	}
	assert.Len(t, used, 20)
}

func TestRandomTimestamp(t *testing.T) {
	r := utils.NewRand(11)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	years := map[int]bool{}
	for i := 0; i < 1000; i++ {
		ts := randomTimestamp(r, start, end)
		require.False(t, ts.Before(start))
		require.True(t, ts.Before(end))
		assert.Zero(t, ts.Nanosecond())
		years[ts.Year()] = true
	}
	assert.Len(t, years, 3)
}
