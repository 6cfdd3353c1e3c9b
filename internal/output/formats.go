package output

// Output formats understood by the writer registry.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatYAML  = "yaml"
)

// RecordHeader is the comment line that opens a text record stream.
const RecordHeader = "# fidelity, overhang_1..overhang_N[, site_1..site_N]"
