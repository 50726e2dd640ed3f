package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gentools/dnakit/internal/genotype"
	"github.com/gentools/dnakit/internal/kit"
)

func newCombineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combine [flags] <kit-file>...",
		Short: "Combine raw data from several testing companies into one kit",
		Long: `Combine raw autosomal data files from one tester, downloaded from several
companies, into a single kit. Positions where the files disagree are left
out. The output can be uploaded to GEDmatch.

Input files may be .csv, .txt, .csv.gz, .txt.gz, or .zip.`,
		Example: `  dnakit combine -o combined.csv ftdna.csv.gz 23andme.zip ancestry.zip`,
		Args:    usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCombine(args, viper.GetString("combine.output"))
		},
	}
	cmd.Flags().StringP("output", "o", "combined-kit.csv", "Output file ('-' for stdout)")
	viper.BindPFlag("combine.output", cmd.Flags().Lookup("output"))
	return cmd
}

func runCombine(paths []string, output string) error {
	c := kit.NewCombiner()
	c.SetLogger(logger)
	var read int
	for _, p := range paths {
		if err := c.AddFile(p); err != nil {
			logger.Warn("skipping kit file", zap.String("file", p), zap.Error(err))
			continue
		}
		read++
	}
	if read == 0 {
		return errors.New("no kit files could be read")
	}

	combined, stats := c.Result()
	out, closeOut, err := createOutput(output)
	if err != nil {
		return err
	}
	if _, err := kit.WriteKit(out, combined); err != nil {
		closeOut()
		return fmt.Errorf("write combined kit: %w", err)
	}
	if err := closeOut(); err != nil {
		return err
	}

	logger.Info("combined kits",
		zap.Int("files", read),
		zap.Int("positions", stats.Positions),
		zap.Int("combined", stats.Combined),
		zap.Int("inconsistent", stats.Inconsistent),
		zap.Int("nocalls", stats.NoCalls),
		zap.Int("sex_conflicts", stats.SexConflicts),
		zap.Stringer("sex", stats.Sex))
	return nil
}

// trioFlags adds the parent and sex flags shared by extend and phase.
func trioFlags(cmd *cobra.Command, prefix string) {
	cmd.Flags().String("mother", "", "Mother's raw data file")
	cmd.Flags().String("father", "", "Father's raw data file")
	cmd.Flags().String("sex", "auto", "Sex of the child: male, female, or auto (guess from the kit)")
	for _, f := range []string{"mother", "father", "sex"} {
		viper.BindPFlag(prefix+"."+f, cmd.Flags().Lookup(f))
	}
}

func parseSex(s string) (genotype.Sex, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return genotype.SexUnknown, nil
	case "m", "male":
		return genotype.SexMale, nil
	case "f", "female":
		return genotype.SexFemale, nil
	}
	return genotype.SexUnknown, &usageError{fmt.Errorf("invalid sex %q: use male, female, or auto", s)}
}

func loadTrio(cmd *cobra.Command, child, prefix string) (*kit.Trio, error) {
	mother := viper.GetString(prefix + ".mother")
	father := viper.GetString(prefix + ".father")
	if mother == "" && father == "" {
		return nil, &usageError{errors.New("at least one of --mother and --father is required")}
	}
	sex, err := parseSex(viper.GetString(prefix + ".sex"))
	if err != nil {
		return nil, err
	}

	trio, err := kit.LoadTrio(cmd.Context(), child, mother, father, logger)
	if err != nil {
		return nil, err
	}
	trio.Sex = sex
	return trio, nil
}

func newExtendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extend [flags] <child-kit>",
		Short: "Fill in a child's kit from the parents' kits",
		Long: `Add positions to a child's kit that the child was not tested on but that
are determined by the parents' results, for example when both parents are
homozygous. Positions the child already has are never changed.`,
		Example: `  dnakit extend --mother mom.csv --father dad.csv -o extended.csv child.csv`,
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			trio, err := loadTrio(cmd, args[0], "extend")
			if err != nil {
				return err
			}
			return runExtend(trio, viper.GetString("extend.output"))
		},
	}
	cmd.Flags().StringP("output", "o", "extended-kit.csv", "Output file ('-' for stdout)")
	viper.BindPFlag("extend.output", cmd.Flags().Lookup("output"))
	trioFlags(cmd, "extend")
	return cmd
}

func runExtend(trio *kit.Trio, output string) error {
	extended, stats := trio.Extend()

	out, closeOut, err := createOutput(output)
	if err != nil {
		return err
	}
	if _, err := kit.WriteKit(out, extended); err != nil {
		closeOut()
		return fmt.Errorf("write extended kit: %w", err)
	}
	if err := closeOut(); err != nil {
		return err
	}

	logger.Info("extended kit",
		zap.Int("child", trio.Child.Len()),
		zap.Int("added", stats.Added),
		zap.Int("undecided", stats.Undecided),
		zap.Int("rejected", stats.Rejected),
		zap.Stringer("sex", stats.Sex))
	return nil
}

func newPhaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase [flags] <child-kit>",
		Short: "Split a child's kit into the halves inherited from each parent",
		Long: `Phase a child's kit against one or both parents. Each phased position shows
which allele came from the mother and which from the father, and the allele
each parent did not pass on. Positions that cannot be phased can be written
to separate undecided and rejected files.`,
		Example: `  dnakit phase --mother mom.csv --father dad.csv -o phased.csv \
      --undecided undecided.csv --rejected rejected.csv child.csv`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			trio, err := loadTrio(cmd, args[0], "phase")
			if err != nil {
				return err
			}
			return runPhase(trio,
				viper.GetString("phase.output"),
				viper.GetString("phase.undecided"),
				viper.GetString("phase.rejected"))
		},
	}
	cmd.Flags().StringP("output", "o", "phased-kit.csv", "Output file ('-' for stdout)")
	cmd.Flags().String("undecided", "", "Write positions that could not be phased to this file")
	cmd.Flags().String("rejected", "", "Write positions inconsistent with the parents to this file")
	for _, f := range []string{"output", "undecided", "rejected"} {
		viper.BindPFlag("phase."+f, cmd.Flags().Lookup(f))
	}
	trioFlags(cmd, "phase")
	return cmd
}

func runPhase(trio *kit.Trio, output, undecided, rejected string) error {
	res := trio.Phase()

	out, closeOut, err := createOutput(output)
	if err != nil {
		return err
	}
	if err := kit.WritePhased(out, res.Phased); err != nil {
		closeOut()
		return fmt.Errorf("write phased kit: %w", err)
	}
	if err := closeOut(); err != nil {
		return err
	}

	for _, extra := range []struct {
		path  string
		calls []kit.TrioCall
	}{
		{undecided, res.Undecided},
		{rejected, res.Rejected},
	} {
		if extra.path == "" {
			continue
		}
		if err := writeTrioFile(extra.path, extra.calls); err != nil {
			return err
		}
	}

	logger.Info("phased kit",
		zap.Int("phased", len(res.Phased)),
		zap.Int("undecided", len(res.Undecided)),
		zap.Int("rejected", len(res.Rejected)),
		zap.Int("nocalls", res.NoCalls),
		zap.String("fraction", fmt.Sprintf("%.1f%%", 100*res.Fraction())),
		zap.Stringer("sex", res.Sex))
	return nil
}

func writeTrioFile(path string, calls []kit.TrioCall) error {
	out, closeOut, err := createOutput(path)
	if err != nil {
		return err
	}
	if err := kit.WriteTrioCalls(out, calls); err != nil {
		closeOut()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return closeOut()
}
