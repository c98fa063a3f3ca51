package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	diagnosticTemplateConstant      = "%s %v\n"
	diagnosticLabelConstant         = "error:"
	diagnosticColorTemplateConstant = "\x1b[1;31m%s\x1b[0m"
	disableColorEnvironmentConstant = "NO_COLOR"
)

type fileDescriptorWriter interface {
	Fd() uintptr
}

// ReportError writes failure to writer, highlighting the label when writer is a color terminal.
func ReportError(writer io.Writer, failure error) {
	if failure == nil {
		return
	}
	label := diagnosticLabelConstant
	if colorSupported(writer) {
		label = fmt.Sprintf(diagnosticColorTemplateConstant, label)
	}
	fmt.Fprintf(writer, diagnosticTemplateConstant, label, failure)
}

func colorSupported(writer io.Writer) bool {
	if _, disabled := os.LookupEnv(disableColorEnvironmentConstant); disabled {
		return false
	}
	descriptorWriter, hasDescriptor := writer.(fileDescriptorWriter)
	if !hasDescriptor {
		return false
	}
	descriptor := descriptorWriter.Fd()
	return isatty.IsTerminal(descriptor) || isatty.IsCygwinTerminal(descriptor)
}
