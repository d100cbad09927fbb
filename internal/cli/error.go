package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hlop3z/schemasync/internal/alerr"
)

// FormatError formats an error for display in Cargo/rustc style:
//
//	error[E3001]: statement failed; migration rolled back
//	   |
//	   | sql: INSERT ...
//	   | table: Users
//	help: ...
//	   |
//	cause: no such table: Missing
//
// Errors that are not *alerr.Error print as a single line.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	var ae *alerr.Error
	if errors.As(err, &ae) {
		return formatCodedError(ae)
	}
	return formatGenericError(err)
}

func formatCodedError(err *alerr.Error) string {
	var b strings.Builder

	b.WriteString(Error("error"))
	b.WriteString("[")
	b.WriteString(Code(string(err.GetCode())))
	b.WriteString("]: ")
	b.WriteString(err.GetMessage())
	b.WriteString("\n")

	ctx := err.GetContext()
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		if k != "helps" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if len(keys) > 0 {
		b.WriteString("   ")
		b.WriteString(Pipe())
		b.WriteString("\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "   %s %s: %v\n", Pipe(), k, ctx[k])
		}
	}

	for _, help := range err.Helps() {
		b.WriteString(Help("help"))
		b.WriteString(": ")
		b.WriteString(help)
		b.WriteString("\n")
	}

	if cause := err.GetCause(); cause != nil {
		b.WriteString("   ")
		b.WriteString(Pipe())
		b.WriteString("\n")
		b.WriteString(Note("cause"))
		b.WriteString(": ")
		b.WriteString(cause.Error())
		b.WriteString("\n")
	}

	return b.String()
}

func formatGenericError(err error) string {
	return Error("error") + ": " + err.Error() + "\n"
}

// FormatWarning formats a warning message.
func FormatWarning(msg string) string {
	return Warning("warning") + ": " + msg + "\n"
}

// FormatNote formats a note message.
func FormatNote(msg string) string {
	return Note("note") + ": " + msg + "\n"
}

// FormatHelp formats a help message.
func FormatHelp(msg string) string {
	return Help("help") + ": " + msg + "\n"
}

// FormatSuccess formats a success message.
func FormatSuccess(msg string) string {
	return Success("success") + ": " + msg + "\n"
}
