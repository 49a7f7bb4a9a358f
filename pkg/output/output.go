package output

import (
	"fmt"
	"io"
	"os"

	"github.com/jwalton/go-supportscolor"

	"github.com/vertti/composecert/pkg/check"
)

var (
	green = "\033[32m"
	red   = "\033[31m"
	dim   = "\033[2m"
	reset = "\033[0m"
)

func init() {
	if !supportscolor.Stdout().SupportsColor {
		green, red, dim, reset = "", "", "", ""
	}
}

// Printer writes one line per check outcome.
type Printer struct {
	w       io.Writer
	passed  int
	printed int
}

// NewPrinter returns a printer writing to w, or to stdout when w is nil.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{w: w}
}

// PrintResult outputs a check result with colored status.
func (p *Printer) PrintResult(r check.Result) {
	p.printed++
	if r.OK() {
		p.passed++
		fmt.Fprintf(p.w, "%s = %sPassed%s\n", r.Name, green, reset)
		return
	}
	if diag := r.Diagnostic(); diag != "" {
		fmt.Fprintf(p.w, "%s = %sFailed%s %s|%s %s\n", r.Name, red, reset, dim, reset, diag)
		return
	}
	fmt.Fprintf(p.w, "%s = %sFailed%s\n", r.Name, red, reset)
}

// PrintSummary outputs how many of total checks passed. Checks that never
// ran (a halted run) count against the total.
func (p *Printer) PrintSummary(total int) {
	if total < p.printed {
		total = p.printed
	}
	color := green
	if p.passed != total || total == 0 {
		color = red
	}
	fmt.Fprintf(p.w, "%s%d/%d checks passed%s\n", color, p.passed, total, reset)
}
