package service

import (
	"fmt"
	"io"
	"strings"

	"github.com/ludo-technologies/irscn/domain"
)

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct{}

// NewOutputFormatter creates a new output formatter service
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{}
}

// Format formats the response according to the specified format. The
// msgpack rendering is binary data carried in a string.
func (f *OutputFormatterImpl) Format(response *domain.InspectResponse, format domain.OutputFormat) (string, error) {
	switch format {
	case domain.OutputFormatText, "":
		return f.formatText(response), nil
	case domain.OutputFormatJSON:
		return EncodeJSON(response)
	case domain.OutputFormatYAML:
		return EncodeYAML(response)
	case domain.OutputFormatMsgpack:
		data, err := EncodeMsgpack(response)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", domain.NewUnsupportedFormatError(string(format))
	}
}

// Write writes the formatted output to the writer
func (f *OutputFormatterImpl) Write(response *domain.InspectResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatMsgpack:
		return WriteMsgpack(writer, response)
	}

	output, err := f.Format(response, format)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(writer, output); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}
	return nil
}

// formatText renders each body for the response's mode followed by a
// summary section
func (f *OutputFormatterImpl) formatText(response *domain.InspectResponse) string {
	var builder strings.Builder
	utils := NewFormatUtils()

	for i := range response.Bodies {
		r := &response.Bodies[i]
		if r.Failed() {
			fmt.Fprintf(&builder, "%s: error: %s\n\n", r.File, r.Error)
			continue
		}

		switch response.Mode {
		case domain.ModeTraps:
			fmt.Fprintf(&builder, "%s\n", r.Signature)
			if len(r.Traps) == 0 {
				builder.WriteString("  (no traps)\n")
			}
			for _, line := range r.Traps {
				builder.WriteString(utils.Indent(line, SectionPadding))
			}

		case domain.ModeOrder:
			fmt.Fprintf(&builder, "%s (%s)\n", r.Signature, response.Direction)
			for _, e := range r.Order {
				fmt.Fprintf(&builder, "  block %d  preds %v  %s\n", e.Block, e.Predecessors, e.Head)
			}

		case domain.ModeCheck:
			if len(r.Violations) == 0 {
				fmt.Fprintf(&builder, "%s: ok\n", r.Signature)
				continue
			}
			fmt.Fprintf(&builder, "%s: %d violations\n", r.Signature, len(r.Violations))
			for _, v := range r.Violations {
				builder.WriteString(utils.Indent(v, SectionPadding))
			}

		default:
			fmt.Fprintf(&builder, "// %s\n// %s\n", r.File, r.Signature)
			builder.WriteString(r.Text)
		}
		builder.WriteString("\n")
	}

	builder.WriteString(utils.FormatSectionHeader("Summary"))
	s := response.Summary
	builder.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Files", s.FilesProcessed))
	if s.FailedFiles > 0 {
		builder.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Failed", s.FailedFiles))
	}
	builder.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Blocks", s.TotalBlocks))
	builder.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Statements", s.TotalStmts))
	builder.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Phis", s.TotalPhis))
	builder.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Max complexity", s.MaxComplexity))
	if response.Mode == domain.ModeCheck {
		builder.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Violations", s.TotalViolations))
	}
	if len(response.Interceptors) > 0 {
		builder.WriteString(utils.FormatLabelWithIndent(SectionPadding, "Interceptors", strings.Join(response.Interceptors, ", ")))
	}

	return builder.String()
}
