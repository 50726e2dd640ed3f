package vcf

// VariantReader is implemented by sources of VCF records.
type VariantReader interface {
	// Next reads the next variant.
	// Returns nil, nil when there are no more variants.
	Next() (*Variant, error)

	// LineNumber returns the current line number being processed.
	LineNumber() int
}
