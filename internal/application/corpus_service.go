package application

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/hailam/chaoslog/internal/archive"
	"github.com/hailam/chaoslog/internal/config"
	"github.com/hailam/chaoslog/internal/mixer"
	"github.com/hailam/chaoslog/internal/ports"
	"github.com/hailam/chaoslog/internal/utils"
)

// unitTimeLayout is the timestamp part of unit file names.
const unitTimeLayout = "2006-01-02_15-04-05"

// maxNameRedraws bounds the timestamp redraws used to avoid a name collision.
const maxNameRedraws = 16

// UnitWriter writes one unit to disk.
type UnitWriter interface {
	Write(unit archive.Unit, path string) (archive.Result, error)
}

// CorpusService orchestrates a generation run: it plans each unit, decides
// whether it carries a marker, and delegates writing.
type CorpusService struct {
	encoders  ports.EncoderFactory
	reporter  ports.Reporter
	manifests []ports.ManifestWriter
	logger    *slog.Logger

	// newWriter is swapped in tests to inject failures.
	newWriter func(r *rand.Rand, cfg config.Config) UnitWriter
}

// NewCorpusService constructs a CorpusService. reporter may be nil.
func NewCorpusService(encoders ports.EncoderFactory, reporter ports.Reporter, manifests ...ports.ManifestWriter) *CorpusService {
	s := &CorpusService{
		encoders:  encoders,
		reporter:  reporter,
		manifests: manifests,
		logger:    slog.Default(),
	}
	s.newWriter = func(r *rand.Rand, cfg config.Config) UnitWriter {
		m := mixer.New(r, cfg.Vocabulary, cfg.BatchSize)
		return archive.NewWriter(r, m, s.encoders)
	}
	return s
}

// WithLogger replaces the default slog logger.
func (s *CorpusService) WithLogger(l *slog.Logger) *CorpusService {
	s.logger = l
	return s
}

// Run generates cfg.FileCount units into cfg.OutputDir. Configuration errors
// are returned before anything touches the disk. A failing unit is logged,
// counted in the summary and skipped. Cancelling ctx stops the run between
// units.
func (s *CorpusService) Run(ctx context.Context, cfg config.Config) (ports.Summary, error) {
	if err := cfg.Validate(); err != nil {
		return ports.Summary{}, errors.Annotate(err, "invalid configuration")
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return ports.Summary{}, errors.Annotatef(err, "creating output dir %s", cfg.OutputDir)
	}

	rng := utils.NewRand(cfg.Seed)
	writer := s.newWriter(rng, cfg)

	summary := ports.Summary{
		RunID:     uuid.NewString(),
		OutputDir: cfg.OutputDir,
		Started:   time.Now(),
		Requested: cfg.FileCount,
		Units:     make([]ports.UnitReport, 0, cfg.FileCount),
	}
	s.logger.Info("starting corpus generation",
		"run_id", summary.RunID,
		"files", cfg.FileCount,
		"target_size", humanize.IBytes(uint64(cfg.TargetSize)),
		"output_dir", cfg.OutputDir,
	)
	if s.reporter != nil {
		s.reporter.Start(cfg.FileCount)
	}

	used := make(map[string]bool, cfg.FileCount)
	var runErr error
	for i := 0; i < cfg.FileCount; i++ {
		if err := ctx.Err(); err != nil {
			summary.Interrupted = true
			runErr = errors.Annotatef(err, "interrupted after %d of %d units", i, cfg.FileCount)
			break
		}

		unit := planUnit(rng, cfg, used)
		if s.reporter != nil {
			s.reporter.UnitStarted(i, cfg.FileCount, unit.Name, unit.Marker)
		}

		report := s.writeUnit(writer, cfg.OutputDir, i, unit)
		summary.Units = append(summary.Units, report)
		if report.OK() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		if s.reporter != nil {
			s.reporter.UnitDone(report)
		}
	}
	summary.Finished = time.Now()

	if s.reporter != nil {
		s.reporter.Finish(summary)
	}
	s.logSummary(summary)

	if err := s.writeManifests(cfg, summary); err != nil && runErr == nil {
		runErr = err
	}
	return summary, runErr
}

func (s *CorpusService) writeUnit(w UnitWriter, dir string, index int, unit archive.Unit) ports.UnitReport {
	report := ports.UnitReport{
		Index:     index,
		Name:      unit.Name,
		Format:    unit.Format,
		Timestamp: unit.Timestamp,
		Marker:    unit.Marker,
	}

	start := time.Now()
	res, err := w.Write(unit, filepath.Join(dir, unit.Name))
	report.Duration = time.Since(start)

	if err != nil {
		report.Err = err.Error()
		s.logger.Error("unit failed", "unit", unit.Name, "format", unit.Format, "error", err)
		return report
	}

	report.Members = res.Members
	report.Bytes = res.Bytes
	s.logger.Info("unit written",
		"unit", unit.Name,
		"format", unit.Format,
		"marker", unit.Marker,
		"members", len(res.Members),
		"bytes", humanize.IBytes(uint64(res.Bytes)),
		"took", report.Duration.Round(time.Millisecond),
	)
	return report
}

func (s *CorpusService) logSummary(summary ports.Summary) {
	attrs := []any{
		"run_id", summary.RunID,
		"requested", summary.Requested,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"interrupted", summary.Interrupted,
		"took", summary.Finished.Sub(summary.Started).Round(time.Millisecond),
	}
	if summary.Failed > 0 || summary.Interrupted {
		s.logger.Warn("corpus generation incomplete", attrs...)
		return
	}
	s.logger.Info("corpus generation finished", attrs...)
}

// writeManifests records the ground truth next to the corpus. Nothing is
// written for a run that attempted no units, so the directory stays empty.
func (s *CorpusService) writeManifests(cfg config.Config, summary ports.Summary) error {
	if cfg.Manifest == "" || len(summary.Units) == 0 || len(s.manifests) == 0 {
		return nil
	}
	base := strings.TrimSuffix(cfg.Manifest, filepath.Ext(cfg.Manifest))
	for _, m := range s.manifests {
		path := filepath.Join(cfg.OutputDir, base+m.Ext())
		if err := m.WriteManifest(path, summary); err != nil {
			return errors.Annotatef(err, "writing manifest %s", path)
		}
		s.logger.Info("manifest written", "path", path)
	}
	return nil
}

// planUnit draws the format, timestamp, name and marker of one unit.
func planUnit(r *rand.Rand, cfg config.Config, used map[string]bool) archive.Unit {
	format := utils.Pick(r, cfg.Formats)

	var ts time.Time
	var name string
	for attempt := 0; ; attempt++ {
		ts = randomTimestamp(r, cfg.StartDate.Time, cfg.EndDate.Time)
		name = fmt.Sprintf("%s_%s", utils.Pick(r, cfg.Prefixes), ts.Format(unitTimeLayout))
		if attempt >= maxNameRedraws && used[name+format.Ext()] {
			name = fmt.Sprintf("%s_%d", name, len(used))
		}
		if !used[name+format.Ext()] {
			break
		}
	}
	name += format.Ext()
	used[name] = true

	var marker string
	if r.Float64() < cfg.HitChance {
		marker = utils.Pick(r, cfg.Markers)
	}

	return archive.Unit{
		Name:       name,
		Format:     format,
		Timestamp:  ts,
		Marker:     marker,
		TargetSize: int64(cfg.TargetSize),
	}
}

// randomTimestamp returns a second-granularity time uniformly in [start, end).
func randomTimestamp(r *rand.Rand, start, end time.Time) time.Time {
	span := int64(end.Sub(start) / time.Second)
	if span < 1 {
		span = 1
	}
	return start.Add(time.Duration(r.Int64N(span)) * time.Second)
}
