package vcf

import "strings"

// Variant is the fixed part of a VCF record.
type Variant struct {
	Chrom string // Chromosome name (e.g., "Y", "chrY")
	Pos   int64  // 1-based genomic position
	ID    string // Comma-separated names, or "."
	Ref   string // Reference (ancestral) allele
	Alt   string // Comma-separated alternate alleles
}

// Alts returns the alternate alleles.
func (v *Variant) Alts() []string {
	if v.Alt == "" || v.Alt == "." {
		return nil
	}
	return strings.Split(v.Alt, ",")
}

// IsBiallelic reports whether the record has exactly one alternate allele.
func (v *Variant) IsBiallelic() bool {
	return len(v.Alts()) == 1
}

// Names returns the SNP names in the ID column; "." entries are dropped.
func (v *Variant) Names() []string {
	var names []string
	for _, n := range strings.Split(v.ID, ",") {
		n = strings.TrimSpace(n)
		if n == "" || n == "." {
			continue
		}
		names = append(names, n)
	}
	return names
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (v *Variant) NormalizeChrom() string {
	if len(v.Chrom) > 3 && v.Chrom[:3] == "chr" {
		return v.Chrom[3:]
	}
	return v.Chrom
}
