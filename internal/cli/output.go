package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mcoot/guestdesk/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Operator:
		o.printOperator(v)
	case response.AuthResponse:
		o.printAuth(v)
	case response.Event:
		o.printEvent(v)
	case []response.Event:
		for _, e := range v {
			o.printf("%s  %s  %s\n", e.ID, e.Date, e.Name)
		}
	case response.Guest:
		o.printGuestLine("", v)
	case []response.Guest:
		for _, g := range v {
			o.printGuestLine("", g)
		}
	case []response.GuestNode:
		o.printTree(v)
	case response.GroupResult:
		o.printGroupResult(v)
	case response.Eligibility:
		o.printEligibility(v)
	case response.Health:
		o.printf("Status: %s\n", v.Status)
		o.printf("Storage: %s\n", v.Storage)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printOperator(op response.Operator) {
	o.printf("Operator: %s (%s)\n", op.DisplayName, op.ID)
}

func (o *Output) printAuth(a response.AuthResponse) {
	o.printOperator(a.Operator)
	o.printf("Token: %s\n", a.SessionToken)
	o.printf("Expires: %s\n", a.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printEvent(e response.Event) {
	o.printf("Event: %s (%s)\n", e.Name, e.ID)
	o.printf("Date: %s\n", e.Date)
}

func (o *Output) printGuestLine(indent string, g response.Guest) {
	o.printf("%s%s  %-20s %-18s %s", indent, g.ID, g.DisplayName, g.Category, g.AttendanceState)
	if g.DateOfBirth != nil {
		o.printf("  born %s", g.DateOfBirth)
	}
	if g.IsAtypical {
		o.printf("  [atypical]")
	}
	if g.RegisteredOnSite {
		o.printf("  [on-site]")
	}
	o.printf("\n")
}

func (o *Output) printTree(nodes []response.GuestNode) {
	for _, n := range nodes {
		o.printGuestLine("", n.Guest)
		for _, d := range n.Dependents {
			o.printGuestLine("  └ ", d)
		}
	}
}

func (o *Output) printGroupResult(r response.GroupResult) {
	o.printf("Applied: %d of %d\n", r.Applied, len(r.Members))
	for _, m := range r.Members {
		marker := " "
		if m.IsResponsible {
			marker = "*"
		}
		o.printf("%s %-20s %-16s %s\n", marker, m.DisplayName, m.Outcome, m.State)
	}
}

func (o *Output) printEligibility(e response.Eligibility) {
	o.printf("Event date: %s (companion required under %d)\n", e.EventDate, e.Threshold)
	for _, c := range e.Children {
		needs := "no"
		if c.RequiresCompanion {
			needs = "yes"
		}
		o.printf("  %d. %s, age %d, companion required: %s\n", c.Index+1, c.Name, c.Age, needs)
	}
}
