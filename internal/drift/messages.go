package drift

import (
	"fmt"
	"strings"
)

// FormatResult formats a drift result for terminal output.
func FormatResult(result *Result) string {
	if result == nil {
		return "No drift detection result available."
	}
	if !result.HasDrift {
		return FormatNoDrift(result)
	}
	return FormatDrift(result)
}

// FormatNoDrift formats a result without differences.
func FormatNoDrift(result *Result) string {
	var b strings.Builder

	b.WriteString("Schema check passed\n\n")
	fmt.Fprintf(&b, "  Tables:       %d\n", result.ExpectedSchema.Len())
	fmt.Fprintf(&b, "  Schema hash:  %s\n", truncateHash(result.ExpectedHash))
	b.WriteString("\n  Database schema matches the expected schema.\n")

	return b.String()
}

// FormatDrift formats a result with differences.
func FormatDrift(result *Result) string {
	var b strings.Builder

	b.WriteString("Schema drift detected\n\n")
	fmt.Fprintf(&b, "  Expected hash: %s\n", truncateHash(result.ExpectedHash))
	fmt.Fprintf(&b, "  Actual hash:   %s\n", truncateHash(result.ActualHash))
	b.WriteString("\n")

	comp := result.Comparison

	if len(comp.MissingTables) > 0 {
		b.WriteString("  Missing tables (expected but not in database):\n")
		for _, name := range comp.MissingTables {
			fmt.Fprintf(&b, "    - %s\n", name)
		}
		b.WriteString("\n")
	}

	if len(comp.ExtraTables) > 0 {
		b.WriteString("  Extra tables (in database only):\n")
		for _, name := range comp.ExtraTables {
			fmt.Fprintf(&b, "    + %s\n", name)
		}
		b.WriteString("\n")
	}

	if len(comp.TableDiffs) > 0 {
		b.WriteString("  Modified tables:\n")
		for _, name := range modifiedNames(comp) {
			fmt.Fprintf(&b, "\n    %s:\n", name)
			formatTableDiff(&b, comp.TableDiffs[name], "      ")
		}
	}

	b.WriteString("\nFix:\n")
	b.WriteString("  Preview the converging operations, then apply them:\n")
	b.WriteString("    schemasync diff\n")
	b.WriteString("    schemasync migrate\n")
	b.WriteString("  Removed columns and changed definitions are never altered automatically.\n")

	return b.String()
}

func formatTableDiff(b *strings.Builder, diff *TableDiff, indent string) {
	section := func(title, mark string, names []string) {
		if len(names) == 0 {
			return
		}
		fmt.Fprintf(b, "%s%s:\n", indent, title)
		for _, n := range names {
			fmt.Fprintf(b, "%s  %s %s\n", indent, mark, n)
		}
	}

	section("Columns missing from DB", "-", diff.MissingColumns)
	section("Columns only in DB", "+", diff.ExtraColumns)
	section("Columns with different definitions", "~", diff.ModifiedColumns)
	section("Indexes missing from DB", "-", diff.MissingIndexes)
	section("Indexes only in DB", "+", diff.ExtraIndexes)
	section("Indexes with different definitions", "~", diff.ModifiedIndexes)
	section("Foreign keys missing from DB", "-", diff.MissingFKs)
	section("Foreign keys only in DB", "+", diff.ExtraFKs)
	section("Foreign keys with different definitions", "~", diff.ModifiedFKs)
}

// FormatSummary formats a one-line summary.
func FormatSummary(summary *Summary) string {
	if summary == nil {
		return "No summary available."
	}

	total := summary.MissingTables + summary.ExtraTables + summary.ModifiedTables
	if total == 0 {
		return fmt.Sprintf("No drift detected. %d tables in sync.", summary.Tables)
	}

	var parts []string
	if summary.MissingTables > 0 {
		parts = append(parts, fmt.Sprintf("%d missing", summary.MissingTables))
	}
	if summary.ExtraTables > 0 {
		parts = append(parts, fmt.Sprintf("%d extra", summary.ExtraTables))
	}
	if summary.ModifiedTables > 0 {
		parts = append(parts, fmt.Sprintf("%d modified", summary.ModifiedTables))
	}
	return fmt.Sprintf("Drift detected: %s", strings.Join(parts, ", "))
}

// FormatQuickStatus formats a status line.
func FormatQuickStatus(hasDrift bool, expectedHash, actualHash string) string {
	if !hasDrift {
		return fmt.Sprintf("OK  %s", truncateHash(expectedHash))
	}
	return fmt.Sprintf("DRIFT  expected: %s  actual: %s",
		truncateHash(expectedHash), truncateHash(actualHash))
}

// truncateHash returns the first 12 characters of a hash for display.
func truncateHash(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12]
}
