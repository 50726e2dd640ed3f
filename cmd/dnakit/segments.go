package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gentools/dnakit/internal/genotype"
	"github.com/gentools/dnakit/internal/segments"
)

func newSegmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segments [flags] <segment-file>...",
		Short: "Count matching segments per chromosome bin",
		Long: `Read segment lists exported from 23andMe, FamilyTreeDNA, or GEDmatch and
count how many segments overlap each of N equal-width bins along every
chromosome. Clusters of segments show up as tall bars.

The CSV columns are recognized by name, so extra columns do not matter.`,
		Example: `  dnakit segments -o bins.csv --png bins.png ftdna_segments.csv gedmatch.csv
  dnakit segments --chroms 1,2,X --bins 80 --actual-max segs.csv`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSegments(args, segmentsOptions{
				output:    viper.GetString("segments.output"),
				png:       viper.GetString("segments.png"),
				title:     viper.GetString("segments.title"),
				bins:      viper.GetInt("segments.bins"),
				chroms:    viper.GetStringSlice("segments.chroms"),
				actualMax: viper.GetBool("segments.actual-max"),
			})
		},
	}
	cmd.Flags().StringP("output", "o", "segments.csv", "Output CSV file ('-' for stdout)")
	cmd.Flags().String("png", "", "Also draw the histograms to this PNG file")
	cmd.Flags().String("title", "Segment clusters", "Title of the PNG")
	cmd.Flags().Int("bins", segments.DefaultBins, "Number of bins per chromosome")
	cmd.Flags().StringSlice("chroms", nil, "Chromosomes to bin (default 1-22 and X)")
	cmd.Flags().Bool("actual-max", false, "Scale each chromosome to the largest segment end seen instead of its length")
	for _, f := range []string{"output", "png", "title", "bins", "chroms", "actual-max"} {
		viper.BindPFlag("segments."+f, cmd.Flags().Lookup(f))
	}
	return cmd
}

type segmentsOptions struct {
	output    string
	png       string
	title     string
	bins      int
	chroms    []string
	actualMax bool
}

func runSegments(paths []string, opts segmentsOptions) error {
	if opts.bins <= 0 {
		return &usageError{fmt.Errorf("--bins must be positive, got %d", opts.bins)}
	}

	var segs []segments.Segment
	for _, p := range paths {
		s, err := segments.ReadFile(p, logger)
		if err != nil {
			logger.Warn("skipping segment file", zap.String("file", p), zap.Error(err))
			continue
		}
		logger.Info("read segments", zap.String("file", p), zap.Int("segments", len(s)))
		segs = append(segs, s...)
	}
	if len(segs) == 0 {
		return errors.New("no segments read")
	}

	chroms := segments.DefaultChroms()
	if len(opts.chroms) > 0 {
		chroms = normalizeChroms(opts.chroms)
	}
	maxes := segments.GRCh37
	if opts.actualMax {
		maxes = segments.ActualMax(segs)
	}

	h := segments.NewHistogram(opts.bins, chroms, maxes)
	var counted int
	for _, s := range segs {
		if h.Add(s) {
			counted++
		}
	}

	out, closeOut, err := createOutput(opts.output)
	if err != nil {
		return err
	}
	if err := h.WriteCSV(out); err != nil {
		closeOut()
		return fmt.Errorf("write histogram: %w", err)
	}
	if err := closeOut(); err != nil {
		return err
	}

	if opts.png != "" {
		if err := h.WritePNG(opts.png, opts.title); err != nil {
			return err
		}
	}

	logger.Info("binned segments",
		zap.Int("segments", len(segs)),
		zap.Int("counted", counted),
		zap.Int("chromosomes", len(chroms)),
		zap.Int("bins", opts.bins))
	return nil
}

// normalizeChroms normalizes chromosome names and drops repeats, keeping the
// first occurrence.
func normalizeChroms(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, c := range names {
		c = genotype.NormalizeChrom(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
