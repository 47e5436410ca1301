package analytics

import (
	"bytes"
	"context"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var enIN = message.NewPrinter(language.MustParse("en-IN"))

// ExportSummary renders the period KPIs as a plain-text report with Indian
// digit grouping. The ledger itself only ever outputs exact decimals; the
// grouping is presentation, applied here and nowhere deeper.
func (s *Service) ExportSummary(ctx context.Context, from, to time.Time) ([]byte, error) {
	kpis, err := s.KPIs(ctx, from, to)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.StatusBreakdown(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enIN.Fprintf(&buf, "Billing summary %s to %s\n\n", from.Format("02 Jan 2006"), to.Format("02 Jan 2006"))
	enIN.Fprintf(&buf, "Total billed:      %v\n", groupedAmount(kpis.TotalBilled.StringFixed(2)))
	enIN.Fprintf(&buf, "Paid in period:    %v\n", groupedAmount(kpis.PaidInPeriod.StringFixed(2)))
	enIN.Fprintf(&buf, "Outstanding:       %v\n", groupedAmount(kpis.TotalOutstanding.StringFixed(2)))
	enIN.Fprintf(&buf, "Open complaints:   %d\n\n", kpis.OpenComplaints)

	enIN.Fprintf(&buf, "By payment status\n")
	for _, slice := range breakdown {
		enIN.Fprintf(&buf, "  %-16s %4d bills  balance %v\n", slice.Status, slice.Count, groupedAmount(slice.Balance.StringFixed(2)))
	}
	return buf.Bytes(), nil
}

// groupedAmount reformats a fixed-point decimal string through the en-IN
// printer so lakhs/crores grouping applies to the integer part.
func groupedAmount(fixed string) string {
	intPart := fixed
	frac := ""
	if i := bytes.IndexByte([]byte(fixed), '.'); i >= 0 {
		intPart, frac = fixed[:i], fixed[i:]
	}
	var n int64
	neg := false
	for i := 0; i < len(intPart); i++ {
		c := intPart[i]
		if c == '-' && i == 0 {
			neg = true
			continue
		}
		if c < '0' || c > '9' {
			return fixed
		}
		n = n*10 + int64(c-'0')
	}
	if neg {
		n = -n
	}
	return enIN.Sprintf("%v", n) + frac
}
