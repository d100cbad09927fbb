package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/hlop3z/schemasync/internal/schema"
)

// RenderDiff renders the operations of d in execution order, each followed by
// its SQL, then the comparer warnings.
func RenderDiff(d *schema.Diff) string {
	if !d.HasChanges() {
		var b strings.Builder
		b.WriteString(FormatSuccess("database schema is up to date"))
		renderWarnings(&b, d)
		return b.String()
	}

	var b strings.Builder
	b.WriteString(Section(
		fmt.Sprintf("Plan: %s", FormatCount(len(d.Operations), "operation", "operations")),
		"",
	))

	for i, op := range d.Operations {
		fmt.Fprintf(&b, "%3d. %s %s\n", i+1, Highlight(padRight(op.Kind().String(), 13)), op.Description())
		for _, stmt := range op.SQL() {
			b.WriteString(Indent(SQL(stmt), 6))
			b.WriteString(Dim(";"))
			b.WriteString("\n")
		}
	}

	renderWarnings(&b, d)
	return b.String()
}

func renderWarnings(b *strings.Builder, d *schema.Diff) {
	if d == nil {
		return
	}
	for _, w := range d.Warnings {
		b.WriteString(FormatWarning(w))
	}
}

// RenderValidation renders a validation result; info lines are shown only
// when verbose is set.
func RenderValidation(v *schema.ValidationResult, verbose bool) string {
	var b strings.Builder

	for _, e := range v.Errors {
		b.WriteString(Error("error"))
		b.WriteString(": ")
		b.WriteString(e)
		b.WriteString("\n")
	}
	for _, w := range v.Warnings {
		b.WriteString(FormatWarning(w))
	}
	if verbose {
		for _, i := range v.Info {
			b.WriteString(FormatNote(i))
		}
	}

	if v.IsValid() {
		b.WriteString(FormatSuccess(fmt.Sprintf("schema is valid (%s)",
			FormatCount(len(v.Warnings), "warning", "warnings"))))
	} else {
		b.WriteString(FormatHelp(fmt.Sprintf("fix the %s above before migrating",
			FormatCount(len(v.Errors), "error", "errors"))))
	}
	return b.String()
}

// RenderResult renders a migration result.
func RenderResult(r *schema.MigrationResult) string {
	var b strings.Builder

	badge := RenderAppliedBadge()
	switch {
	case !r.Success:
		badge = RenderErrorBadge()
	case r.DryRun:
		badge = RenderDryRunBadge()
	}

	fmt.Fprintf(&b, "%s %s in %s\n", badge,
		FormatCount(len(r.SQLExecuted), "statement", "statements"),
		r.Duration.Round(time.Millisecond))

	if r.DryRun && len(r.SQLExecuted) > 0 {
		b.WriteString("\n")
		for _, stmt := range r.SQLExecuted {
			b.WriteString(SQL(stmt))
			b.WriteString(";\n")
		}
		b.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		l := NewList()
		for _, w := range r.Warnings {
			l.AddWarning(w)
		}
		b.WriteString(l.String())
	}

	if len(r.Errors) > 0 {
		content := strings.Join(r.Errors, "\n\n")
		b.WriteString(RenderErrorPanel("migration failed; no changes were applied", content))
		b.WriteString("\n")
	}

	return b.String()
}
