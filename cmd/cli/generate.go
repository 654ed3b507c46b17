package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/hailam/chaoslog/internal/adapters/factory"
	"github.com/hailam/chaoslog/internal/adapters/manifest"
	"github.com/hailam/chaoslog/internal/adapters/progress"
	adapterutils "github.com/hailam/chaoslog/internal/adapters/utils"
	"github.com/hailam/chaoslog/internal/application"
	"github.com/hailam/chaoslog/internal/config"
	"github.com/hailam/chaoslog/internal/ports"
)

type generateOptions struct {
	configPath string
	count      int
	size       string
	outputDir  string
	hitChance  float64
	markers    []string
	formats    []string
	seed       uint64
	progress   string
	manifest   string
	xlsx       bool
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a log corpus.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			return runGenerate(cmd, cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "YAML config file")
	f.IntVarP(&opts.count, "count", "n", def.FileCount, "Number of corpus files")
	f.StringVarP(&opts.size, "size", "s", def.TargetSize.String(), "Target size per file (e.g. 500KB, 20MiB)")
	f.StringVarP(&opts.outputDir, "output", "o", def.OutputDir, "Output directory")
	f.Float64Var(&opts.hitChance, "hit", def.HitChance, "Probability that a file carries a marker")
	f.StringSliceVar(&opts.markers, "markers", def.Markers, "Marker words")
	supported := strings.Join(formatNames(factory.NewStaticEncoderFactory().Formats()), ", ")
	f.StringSliceVar(&opts.formats, "formats", formatNames(def.Formats), "Output formats ("+supported+")")
	f.Uint64Var(&opts.seed, "seed", 0, "Random seed; 0 seeds from the clock")
	f.StringVar(&opts.progress, "progress", "bar", "Progress display (bar, spinner, none)")
	f.StringVar(&opts.manifest, "manifest", def.Manifest, "Ground-truth manifest file name; empty disables it")
	f.BoolVar(&opts.xlsx, "xlsx", false, "Also write the manifest as a spreadsheet")
	return cmd
}

// config loads the optional config file and applies the flags the user set.
func (o *generateOptions) config(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("count") {
		cfg.FileCount = o.count
	}
	if f.Changed("size") {
		n, err := adapterutils.NewHumanizeSizeParser().Parse(o.size)
		if err != nil {
			return cfg, errors.Annotate(err, "--size")
		}
		cfg.TargetSize = config.ByteSize(n)
	}
	if f.Changed("output") {
		cfg.OutputDir = o.outputDir
	}
	if f.Changed("hit") {
		cfg.HitChance = o.hitChance
	}
	if f.Changed("markers") {
		cfg.Markers = o.markers
	}
	if f.Changed("formats") {
		cfg.Formats = make([]ports.Format, 0, len(o.formats))
		for _, s := range o.formats {
			cfg.Formats = append(cfg.Formats, ports.Format(s))
		}
		if err := cfg.NormalizeFormats(); err != nil {
			return cfg, errors.Annotate(err, "--formats")
		}
	}
	if f.Changed("seed") {
		cfg.Seed = o.seed
	}
	if f.Changed("manifest") {
		cfg.Manifest = o.manifest
	}
	return cfg, nil
}

func (o *generateOptions) manifestWriters(cfg config.Config) []ports.ManifestWriter {
	writers := []ports.ManifestWriter{manifest.NewJSONWriter()}
	if o.xlsx || strings.EqualFold(filepath.Ext(cfg.Manifest), ".xlsx") {
		writers = append(writers, manifest.NewXLSXWriter())
	}
	return writers
}

func runGenerate(cmd *cobra.Command, cfg config.Config, opts *generateOptions) error {
	reporter, err := progress.New(opts.progress, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	// --- Composition Root ---
	encoders := factory.NewStaticEncoderFactory()
	service := application.NewCorpusService(encoders, reporter, opts.manifestWriters(cfg)...).
		WithLogger(slog.Default())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := service.Run(ctx, cfg)
	if err != nil {
		if errors.Cause(err) == context.Canceled {
			return fmt.Errorf("interrupted: %d of %d files written to %s", summary.Succeeded, summary.Requested, summary.OutputDir)
		}
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Requested)
	}
	return nil
}

func formatNames(formats []ports.Format) []string {
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = string(f)
	}
	return out
}
