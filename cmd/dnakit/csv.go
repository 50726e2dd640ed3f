package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gentools/dnakit/internal/csvmerge"
	"github.com/gentools/dnakit/internal/matchlist"
)

func newMergeCSVCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge-csv [flags] <input>... <output>",
		Short: "Merge CSV files that share a header, dropping duplicate rows",
		Long: `Merge CSV files with the same header into one file. Rows that differ only in
columns expected to change between downloads (the differing columns) are
the same row; the action decides which copy survives, judged by the input
files' modification times. The output file must not exist.

Actions: keep-all, keep-newest-nonblank, keep-newest-row, keep-oldest-row.`,
		Example: `  dnakit merge-csv matches-jan.csv matches-jun.csv.gz merged.csv
  dnakit merge-csv --action keep-newest-row --differing "Notes,Shared cM" a.csv b.csv out.csv`,
		Args: usageArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := csvmerge.ParsePolicy(viper.GetString("merge-csv.action"))
			if err != nil {
				return &usageError{err}
			}
			differing := viper.GetStringSlice("merge-csv.differing")
			if len(differing) == 0 {
				differing = csvmerge.DefaultDifferingColumns
			}
			return runMergeCSV(args[:len(args)-1], args[len(args)-1], policy, differing)
		},
	}
	cmd.Flags().String("action", csvmerge.KeepAll.String(), "What to keep of rows that differ only in the differing columns")
	cmd.Flags().StringSlice("differing", nil, "Columns allowed to differ between copies of a row (default: match-list columns)")
	for _, f := range []string{"action", "differing"} {
		viper.BindPFlag("merge-csv."+f, cmd.Flags().Lookup(f))
	}
	return cmd
}

func runMergeCSV(inputs []string, output string, policy csvmerge.Policy, differing []string) error {
	if _, err := os.Stat(output); err == nil {
		return &usageError{fmt.Errorf("output file %s already exists", output)}
	}

	m := csvmerge.New(policy, differing)
	m.SetLogger(logger)
	m.AddFiles(inputs)
	if err := m.WriteFile(output); err != nil {
		return err
	}

	st := m.Stats()
	logger.Info("merged csv files",
		zap.String("output", output),
		zap.Stringer("action", policy),
		zap.Int("files", st.Files),
		zap.Int("skipped", st.Skipped),
		zap.Int("rows_read", st.Read),
		zap.Int("rows_written", st.Written))
	return nil
}

func newMatchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matches [flags] <saved-page.html>...",
		Short: "Extract matches from saved AncestryDNA match-list pages",
		Long: `Read AncestryDNA match-list pages saved from a browser ("Web page,
complete" or HTML only) and write the matches as CSV. Both the plain match
list and the shared-matches comparison page are understood.

Each page is written next to it with a .csv extension unless --output is
given, in which case all pages go to one file.`,
		Example: `  dnakit matches "Ancestry DNA Matches.html"
  dnakit matches --side --groups-in-columns -o all.csv page1.html page2.html`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := matchlist.Options{
				GroupSep:        viper.GetString("matches.group-sep"),
				GroupsInColumns: viper.GetBool("matches.groups-in-columns"),
				SideView:        viper.GetBool("matches.side"),
				TreeInfo:        viper.GetBool("matches.tree"),
				CrossMatches:    viper.GetBool("matches.cross-matches"),
			}
			return runMatches(args, viper.GetString("matches.output"), opts)
		},
	}
	def := matchlist.DefaultOptions()
	cmd.Flags().StringP("output", "o", "", "Write all pages to this CSV file ('-' for stdout)")
	cmd.Flags().String("group-sep", def.GroupSep, "Separator between group names")
	cmd.Flags().Bool("groups-in-columns", def.GroupsInColumns, "One column per group instead of a joined Groups column")
	cmd.Flags().Bool("side", def.SideView, "Add the parent side column")
	cmd.Flags().Bool("tree", def.TreeInfo, "Add tree status, tree size, and ThruLines columns")
	cmd.Flags().Bool("cross-matches", def.CrossMatches, "On comparison pages, also list the second tester's matches")
	for _, f := range []string{"output", "group-sep", "groups-in-columns", "side", "tree", "cross-matches"} {
		viper.BindPFlag("matches."+f, cmd.Flags().Lookup(f))
	}
	return cmd
}

func runMatches(pages []string, output string, opts matchlist.Options) error {
	if output != "" {
		return writeMatchesCombined(pages, output, opts)
	}

	var written int
	for _, p := range pages {
		page, err := matchlist.ParseFile(p)
		if err != nil {
			logger.Warn("skipping page", zap.String("file", p), zap.Error(err))
			continue
		}
		csvPath := strings.TrimSuffix(p, filepath.Ext(p)) + ".csv"
		if err := writePage(csvPath, page, opts); err != nil {
			return err
		}
		logger.Info("wrote matches", zap.String("page", p), zap.String("csv", csvPath), zap.Int("matches", len(page.Matches)))
		written++
	}
	if written == 0 {
		return errors.New("no match-list pages could be read")
	}
	return nil
}

func writePage(path string, page *matchlist.Page, opts matchlist.Options) error {
	out, closeOut, err := createOutput(path)
	if err != nil {
		return err
	}
	if err := page.WriteCSV(out, opts); err != nil {
		closeOut()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return closeOut()
}

// writeMatchesCombined writes the matches of all pages to one file.
func writeMatchesCombined(pages []string, output string, opts matchlist.Options) error {
	var parsed []*matchlist.Page
	for _, p := range pages {
		page, err := matchlist.ParseFile(p)
		if err != nil {
			logger.Warn("skipping page", zap.String("file", p), zap.Error(err))
			continue
		}
		logger.Info("read matches", zap.String("page", p), zap.Int("matches", len(page.Matches)))
		parsed = append(parsed, page)
	}
	if len(parsed) == 0 {
		return errors.New("no match-list pages could be read")
	}

	out, closeOut, err := createOutput(output)
	if err != nil {
		return err
	}
	if err := matchlist.WriteCSVPages(out, parsed, opts); err != nil {
		closeOut()
		return fmt.Errorf("write %s: %w", output, err)
	}
	return closeOut()
}
