package reconcile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/roach88/apptrecon/internal/appointment"
)

// WriteReport renders the human checkpoint shown before any deletion.
// It has no side effects beyond writing to w.
func WriteReport(w io.Writer, p Plan) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Total appointments: %d\n", p.Total)
	for _, g := range p.Groups {
		fmt.Fprintln(bw)
		fmt.Fprintf(bw, "Duplicate Group found for key: %s\n", g.Key)
		s := g.Survivor()
		fmt.Fprintf(bw, "  Keeping ID: %s (Created: %s)\n", s.ID, createdLabel(s))
		for _, c := range g.Candidates() {
			fmt.Fprintf(bw, "  Deleting ID: %s (Created: %s)\n", c.ID, createdLabel(c))
		}
	}
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "Found %d groups with duplicates\n", len(p.Groups))
	fmt.Fprintf(bw, "Total records to delete: %d\n", len(p.ToDelete))

	return bw.Flush()
}

// Report returns the rendered report as a string.
func Report(p Plan) string {
	var sb strings.Builder
	_ = WriteReport(&sb, p)
	return sb.String()
}

func createdLabel(r appointment.Record) string {
	if r.CreatedAt == "" {
		return "unknown"
	}
	return r.CreatedAt
}

// RecordRef is the JSON shape of a record inside a plan view.
type RecordRef struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

// GroupView is the JSON shape of a duplicate group.
type GroupView struct {
	Key        string      `json:"key"`
	Survivor   RecordRef   `json:"survivor"`
	Candidates []RecordRef `json:"candidates"`
}

// View is the machine-readable form of a plan, used for --format json and
// for plan files handed to reviewers.
type View struct {
	Table                string      `json:"table"`
	TotalAppointments    int         `json:"total_appointments"`
	FetchedAt            time.Time   `json:"fetched_at"`
	KeyPolicy            string      `json:"key_policy"`
	GroupsWithDuplicates int         `json:"groups_with_duplicates"`
	TotalToDelete        int         `json:"total_to_delete"`
	Groups               []GroupView `json:"groups"`
	Survivors            []string    `json:"survivors"`
	ToDelete             []string    `json:"to_delete"`
	Fingerprint          string      `json:"fingerprint"`
}

// NewView converts a plan to its JSON view.
func NewView(p Plan) View {
	v := View{
		Table:                p.Table,
		TotalAppointments:    p.Total,
		FetchedAt:            p.FetchedAt,
		KeyPolicy:            string(p.KeyPolicy),
		GroupsWithDuplicates: len(p.Groups),
		TotalToDelete:        len(p.ToDelete),
		Groups:               make([]GroupView, 0, len(p.Groups)),
		Survivors:            p.Survivors,
		ToDelete:             p.ToDelete,
		Fingerprint:          p.Fingerprint,
	}
	for _, g := range p.Groups {
		gv := GroupView{
			Key:        string(g.Key),
			Survivor:   ref(g.Survivor()),
			Candidates: make([]RecordRef, 0, len(g.Records)-1),
		}
		for _, c := range g.Candidates() {
			gv.Candidates = append(gv.Candidates, ref(c))
		}
		v.Groups = append(v.Groups, gv)
	}
	return v
}

func ref(r appointment.Record) RecordRef {
	return RecordRef{ID: r.ID, CreatedAt: r.CreatedAt}
}
