package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hailam/chaoslog/internal/mixer"
	"github.com/hailam/chaoslog/internal/theme"
	"github.com/hailam/chaoslog/internal/utils"
)

// sampleBatch is the number of records printed for a --mode sample.
const sampleBatch = 6

func newThemesCmd() *cobra.Command {
	var seed uint64
	var modeName string

	cmd := &cobra.Command{
		Use:   "themes [name...]",
		Short: "Print a sample record of each log theme.",
		Long: `Print one sample record of each log theme, or of the named themes.
With --mode, print a short sample of mixed content instead, the way a corpus
member in that mode (web, syslog, db, app_trace, chaos or auto) starts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rng := utils.NewRand(seed)
			vocab := theme.DefaultVocabulary()
			base := time.Now().UTC().Truncate(24 * time.Hour)
			w := cmd.OutOrStdout()

			if modeName != "" {
				mode, err := mixer.ParseMode(modeName)
				if err != nil {
					return err
				}
				c, err := mixer.New(rng, vocab, sampleBatch).Generate(mixer.Request{Size: 1, BaseDate: base, Mode: mode})
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "== %s ==\n%s", c.Mode, c.Data)
				return nil
			}

			themes := theme.All()
			if len(args) > 0 {
				themes = themes[:0:0]
				for _, a := range args {
					t, err := theme.Parse(a)
					if err != nil {
						return err
					}
					themes = append(themes, t)
				}
			}

			gen := theme.NewGenerator(rng, vocab)
			for _, t := range themes {
				fmt.Fprintf(w, "== %s ==\n%s", t, gen.Entry(t, base))
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "Random seed; 0 seeds from the clock")
	cmd.Flags().StringVar(&modeName, "mode", "", "Print a mixed-content sample in this mixing mode")
	return cmd
}
