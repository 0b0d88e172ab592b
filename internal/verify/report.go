package verify

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteText renders the window report.
func WriteText(w io.Writer, r Report) error {
	bw := bufio.NewWriter(w)

	for _, dc := range r.Days {
		fmt.Fprintf(bw, "Day %s: %d apps\n", dc.Day, dc.Count)
		if r.DetailDay != nil && dc.Day == *r.DetailDay {
			for _, d := range r.Details {
				fmt.Fprintf(bw, "  - %s pet=%s client=%s status=%s\n",
					d.ID, orDash(d.PetID), orDash(d.ClientID), orDash(d.Status))
			}
		}
	}
	fmt.Fprintf(bw, "Total in window: %d\n", r.Total)

	if len(r.Unparseable) > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "Unparseable:")
		for _, u := range r.Unparseable {
			fmt.Fprintf(bw, "  - %s date=%q\n", u.ID, u.Date)
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "Warnings:")
		for _, d := range r.Warnings {
			fmt.Fprintf(bw, "  Day %s: parsed %d, substring %d\n", d.Day, d.Parsed, d.Substring)
			for _, rec := range d.Records {
				fmt.Fprintf(bw, "    - %s date=%q parsed=%s literal=%s\n", rec.ID, rec.Date, rec.Parsed, rec.Literal)
			}
		}
	}

	return bw.Flush()
}

// Text returns the rendered report as a string.
func Text(r Report) string {
	var sb strings.Builder
	_ = WriteText(&sb, r)
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
