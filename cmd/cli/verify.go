package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/hailam/chaoslog/internal/adapters/manifest"
	"github.com/hailam/chaoslog/internal/application"
	"github.com/hailam/chaoslog/internal/config"
	"github.com/hailam/chaoslog/internal/ports"
)

func newVerifyCmd() *cobra.Command {
	var dir, include, manifestName, configPath string
	var extraMarkers []string
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a corpus against its ground-truth manifest.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			var summary *ports.Summary
			if manifestName != "" {
				path := filepath.Join(dir, manifestName)
				if _, err := os.Stat(path); err == nil {
					s, err := manifest.ReadJSON(path)
					if err != nil {
						return err
					}
					summary = &s
				} else if cmd.Flags().Changed("manifest") {
					return errors.Annotatef(err, "manifest %s", path)
				}
			}

			markers := cfg.Markers
			if cmd.Flags().Changed("markers") {
				markers = extraMarkers
			}
			svc, err := application.NewVerifyService(withManifestMarkers(markers, summary), include)
			if err != nil {
				return err
			}

			report, err := svc.Verify(cmd.Context(), dir, summary)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report, summary != nil)
			if !report.OK() {
				return fmt.Errorf("%d problems found", len(report.Problems))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", def.OutputDir, "Corpus directory")
	cmd.Flags().StringVar(&include, "include", "", "Only check file names matching this glob")
	cmd.Flags().StringVar(&manifestName, "manifest", def.Manifest, "Manifest file name inside the corpus directory")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file (for the marker list)")
	cmd.Flags().StringSliceVar(&extraMarkers, "markers", nil, "Marker words to look for, instead of the configured ones")
	return cmd
}

// withManifestMarkers adds the markers a manifest recorded to markers, so a
// corpus generated with its own marker list verifies without extra flags.
func withManifestMarkers(markers []string, summary *ports.Summary) []string {
	out := append([]string(nil), markers...)
	if summary == nil {
		return out
	}
	for _, u := range summary.Units {
		if u.Marker != "" && !slices.Contains(out, u.Marker) {
			out = append(out, u.Marker)
		}
	}
	return out
}

func printReport(w io.Writer, report application.VerifyReport, withManifest bool) {
	var total int64
	carriers := 0
	for _, fc := range report.Files {
		hit := ""
		for _, m := range fc.Members {
			total += m.Bytes
			if m.MarkerCount() > 0 {
				hit = m.Path
			}
		}
		if hit != "" {
			carriers++
			fmt.Fprintf(w, "HIT   %s (%s)\n", fc.Name, hit)
		}
	}
	for _, p := range report.Problems {
		fmt.Fprintf(w, "FAIL  %s\n", p)
	}

	mode := "without manifest"
	if withManifest {
		mode = "against manifest"
	}
	fmt.Fprintf(w, "checked %d files (%s uncompressed) %s, %d carry markers, %d problems\n",
		len(report.Files), humanize.IBytes(uint64(total)), mode, carriers, len(report.Problems))
}
