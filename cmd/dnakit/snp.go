package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gentools/dnakit/internal/snpdb"
)

func newSNPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snp",
		Short: "Build and query a database of Y-SNP definitions",
		Long: `Load Y-SNP definitions from VCF files (for example the YBrowse snps_hg38.vcf.gz
and snps_hg19.vcf.gz downloads) into a SQLite database, and look SNPs up by
name, position, pos.ref.alt triple, or variant id.`,
	}
	cmd.PersistentFlags().String("db", "variants.db", "SQLite database file")
	viper.BindPFlag("snp.db", cmd.PersistentFlags().Lookup("db"))

	cmd.AddCommand(newSNPCreateCmd())
	cmd.AddCommand(newSNPQueryCmd())
	return cmd
}

func newSNPCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [flags]",
		Short: "Create the database and load VCF files into it",
		Long: `Drop and re-create the SNP database, then load the hg38 and hg19 VCF files.
Only biallelic records are kept.`,
		Example: `  dnakit snp create --hg38 snps_hg38.vcf.gz --hg19 snps_hg19.vcf.gz`,
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := snpdb.Open(viper.GetString("snp.db"))
			if err != nil {
				return err
			}
			defer db.Close()
			db.SetLogger(logger)

			ctx := cmd.Context()
			if err := db.Create(ctx); err != nil {
				return err
			}
			for _, build := range snpdb.Builds {
				path := viper.GetString("snp.create." + build.Name)
				if path == "" {
					continue
				}
				if _, err := db.LoadFile(ctx, build.ID, path); err != nil {
					return err
				}
			}
			return nil
		},
	}
	for _, build := range snpdb.Builds {
		cmd.Flags().String(build.Name, "", fmt.Sprintf("VCF of %s SNP definitions (plain or gzipped)", build.Name))
		viper.BindPFlag("snp.create."+build.Name, cmd.Flags().Lookup(build.Name))
	}
	return cmd
}

func newSNPQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [flags] <snp>...",
		Short: "Look up SNPs by name, position, pos.ref.alt, or id",
		Example: `  dnakit snp query M269 L21
  dnakit snp query --build hg38 20577481 2887824.G.A`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("snp.db")
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("snp database %s not found; run 'dnakit snp create' first", path)
			}
			db, err := snpdb.Open(path)
			if err != nil {
				return err
			}
			defer db.Close()

			build := viper.GetString("snp.query.build")
			out := cmd.OutOrStdout()
			for _, snp := range args {
				hits, err := db.Query(cmd.Context(), snp, build)
				if err != nil {
					return err
				}
				if len(hits) == 0 {
					fmt.Fprintf(out, "No data on %s\n", snp)
					continue
				}
				logger.Debug("snp query", zap.String("snp", snp), zap.Int("hits", len(hits)))
				for _, h := range hits {
					fmt.Fprintln(out, h)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("build", "", "Only show variants of this build (hg38 or hg19)")
	viper.BindPFlag("snp.query.build", cmd.Flags().Lookup("build"))
	return cmd
}
