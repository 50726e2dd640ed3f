package kit

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/gentools/dnakit/internal/genotype"
)

// KitHeader is the header of a combined or extended kit file. Files in this
// layout can be uploaded to GEDmatch.
var KitHeader = []string{"RSID", "CHROMOSOME", "POSITION", "RESULT"}

// PhaseHeader is the header of a phased-output file.
var PhaseHeader = []string{
	"chr", "pos", "rsid", "child", "mother", "father",
	"mother allele", "father allele",
	"uninherited mother", "uninherited father",
}

// TrioHeader is the header of the undecided and rejected files.
var TrioHeader = []string{"chr", "pos", "rsid", "child", "mother", "father"}

// WriteKit writes a kit in output order, leaving out no-calls. It returns
// the number of no-calls skipped.
func WriteKit(w io.Writer, k *Kit) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(KitHeader); err != nil {
		return 0, err
	}
	var nocalls int
	for _, c := range k.Calls() {
		if genotype.IsNoCall(c.Result) {
			nocalls++
			continue
		}
		if err := cw.Write([]string{c.RSID, c.Chrom, strconv.FormatInt(c.Pos, 10), c.Result}); err != nil {
			return nocalls, err
		}
	}
	cw.Flush()
	return nocalls, cw.Error()
}

// WritePhased writes phased calls.
func WritePhased(w io.Writer, calls []PhasedCall) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(PhaseHeader); err != nil {
		return err
	}
	for _, c := range calls {
		if err := cw.Write([]string{
			c.Key.Chrom, strconv.FormatInt(c.Key.Pos, 10), c.RSID,
			c.Child, c.Mother, c.Father,
			c.Maternal, c.Paternal,
			c.UninheritedMaternal, c.UninheritedPaternal,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTrioCalls writes positions that could not be phased.
func WriteTrioCalls(w io.Writer, calls []TrioCall) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TrioHeader); err != nil {
		return err
	}
	for _, c := range calls {
		if err := cw.Write([]string{
			c.Key.Chrom, strconv.FormatInt(c.Key.Pos, 10), c.RSID,
			c.Child, c.Mother, c.Father,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
