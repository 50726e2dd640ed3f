package signature

// Segments lists known matching-segment exports, with columns in
// chromosome, start, end order. Add new layouts here as vendors change them.
var Segments = Table{
	{Name: "23andMe", Columns: []string{"Chromosome Number", "Chromosome Start Point", "Chromosome End Point"}},
	{Name: "FTDNA1", Columns: []string{"Chromosome", "Start Location", "End Location"}},
	{Name: "FTDNA2", Columns: []string{"Chromosome", "Start Position", "End Position"}},
	{Name: "Gedmatch1", Columns: []string{"Chr", "Start", "End"}},
	{Name: "Gedmatch2", Columns: []string{"Chr", "Start Position", "End Position"}},
	{Name: "Gedmatch3", Columns: []string{"Chr", "B37 Start", "B37 End"}},
	{Name: "Gedmatch4", Columns: []string{"chr", "B37Start", "B37End"}},
	{Name: "Gedmatch5", Columns: []string{"chr", "Start", "End"}},
	{Name: "Gedmatch6", Columns: []string{" chr", " start", " end"}},
}

// Raw kit exports. Four-column layouts are rsid, chromosome, position,
// result; five-column layouts split the result into allele1, allele2.
var (
	Kits4 = Table{
		{Name: "FTDNA", Columns: []string{"RSID", "CHROMOSOME", "POSITION", "RESULT"}},
		{Name: "23andMe", Columns: []string{"rsid", "chromosome", "position", "genotype"}},
		{Name: "LivingDNA", Columns: []string{"rsid", "chromosome", "position", "result"}},
	}
	Kits5 = Table{
		{Name: "AncestryDNA", Columns: []string{"rsid", "chromosome", "position", "allele1", "allele2"}},
	}
)

// FTDNAMatches is a FamilyTreeDNA match-list export.
var FTDNAMatches = Table{
	{Name: "FTDNA matches", Columns: []string{"Full Name", "Shared DNA", "Y-DNA Haplogroup", "mtDNA Haplogroup"}},
}

// KitOwners maps kit numbers to the names and haplogroups their owners
// appear under in match lists.
var KitOwners = Table{
	{Name: "kit owners", Columns: []string{"kit", "name", "y-haplo", "mt-haplo"}},
}
