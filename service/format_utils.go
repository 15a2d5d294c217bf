package service

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/ludo-technologies/irscn/domain"
	"github.com/ludo-technologies/irscn/internal/body"
	"github.com/ludo-technologies/irscn/internal/graph"
)

// EncodeJSON returns an indented JSON string for the given value.
func EncodeJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", domain.NewOutputError("failed to marshal JSON", err)
	}
	return string(data), nil
}

// WriteJSON writes indented JSON for the given value to the writer.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return domain.NewOutputError("failed to encode JSON", err)
	}
	return nil
}

// EncodeYAML returns a YAML string for the given value.
func EncodeYAML(v interface{}) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", domain.NewOutputError("failed to marshal YAML", err)
	}
	return string(data), nil
}

// WriteYAML writes YAML for the given value to the writer.
func WriteYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return domain.NewOutputError("failed to encode YAML", err)
	}
	return nil
}

// EncodeMsgpack returns the MessagePack encoding of v. Struct fields use
// their msgpack tags.
func EncodeMsgpack(v interface{}) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, domain.NewOutputError("failed to marshal msgpack", err)
	}
	return data, nil
}

// WriteMsgpack writes the MessagePack encoding of v to the writer.
func WriteMsgpack(w io.Writer, v interface{}) error {
	if err := msgpack.NewEncoder(w).Encode(v); err != nil {
		return domain.NewOutputError("failed to encode msgpack", err)
	}
	return nil
}

// DecodeMsgpack reads a MessagePack document written by WriteMsgpack
func DecodeMsgpack(r io.Reader, v interface{}) error {
	if err := msgpack.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("failed to decode msgpack: %w", err)
	}
	return nil
}

// BodySnapshot describes the blocks of b in layout order
func BodySnapshot(b *body.Body) []domain.BlockInfo {
	if b == nil || b.Graph == nil {
		return nil
	}
	blocks := b.Graph.Blocks()
	infos := make([]domain.BlockInfo, 0, len(blocks))
	for _, blk := range blocks {
		info := domain.BlockInfo{
			ID:           int(blk.ID),
			Stmts:        make([]string, 0, blk.Len()),
			Successors:   blockIDs(blk.Successors()),
			Predecessors: blockIDs(blk.Predecessors()),
		}
		for _, st := range blk.Stmts() {
			info.Stmts = append(info.Stmts, st.String())
		}
		for _, e := range blk.ExceptionalSuccessors() {
			info.Handlers = append(info.Handlers, domain.HandlerEdge{
				Exception: string(e.Type),
				Handler:   int(e.Handler),
			})
		}
		infos = append(infos, info)
	}
	return infos
}

func blockIDs(ids []graph.BlockID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

// FileExtension returns the report file extension for a format
func FileExtension(format domain.OutputFormat) string {
	switch format {
	case domain.OutputFormatJSON:
		return "json"
	case domain.OutputFormatYAML:
		return "yaml"
	case domain.OutputFormatMsgpack:
		return "msgpack"
	default:
		return "txt"
	}
}

// ReportPath names a timestamped report file inside dir
func ReportPath(dir string, format domain.OutputFormat) string {
	timestamp := time.Now().Format("20060102_150405")
	return filepath.Join(dir, fmt.Sprintf("irscn_%s.%s", timestamp, FileExtension(format)))
}

// Standard formatting constants
const (
	HeaderWidth    = 40
	LabelWidth     = 25
	SectionPadding = 2
	ItemPadding    = 4
)

// FormatUtils provides shared text formatting utilities
type FormatUtils struct{}

// NewFormatUtils creates a new format utilities instance
func NewFormatUtils() *FormatUtils {
	return &FormatUtils{}
}

// FormatMainHeader creates a standardized main header
func (f *FormatUtils) FormatMainHeader(title string) string {
	var builder strings.Builder
	builder.WriteString(title + "\n")
	builder.WriteString(strings.Repeat("=", HeaderWidth) + "\n\n")
	return builder.String()
}

// FormatSectionHeader creates a standardized section header
func (f *FormatUtils) FormatSectionHeader(title string) string {
	var builder strings.Builder
	builder.WriteString(strings.ToUpper(title) + "\n")
	builder.WriteString(strings.Repeat("-", len(title)) + "\n")
	return builder.String()
}

// FormatLabelWithIndent creates a formatted label with specific indentation
func (f *FormatUtils) FormatLabelWithIndent(indent int, label string, value interface{}) string {
	return fmt.Sprintf("%s%s: %v\n", strings.Repeat(" ", indent), label, value)
}

// Indent prefixes every non-empty line of text
func (f *FormatUtils) Indent(text string, indent int) string {
	pad := strings.Repeat(" ", indent)
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
