package domain

// ConnectorType identifies the source connector that produced a job.
type ConnectorType string

const (
	// ConnectorFilesystem is the local drop-directory connector.
	ConnectorFilesystem ConnectorType = "filesystem"
	// ConnectorUpload is a direct upload through the enqueue API.
	ConnectorUpload ConnectorType = "upload"
	// ConnectorMailbox is a mail poller (external collaborator).
	ConnectorMailbox ConnectorType = "mailbox"
	// ConnectorChatExport is a chat history export (external collaborator).
	ConnectorChatExport ConnectorType = "chat-export"
	// ConnectorAPI is a generic API poller (external collaborator).
	ConnectorAPI ConnectorType = "api"
)

// SourceFormat is the closed set of supported source formats. Format
// adapters are resolved by detected content type, not open registration.
type SourceFormat string

const (
	// FormatPlaintext is plain UTF-8 text.
	FormatPlaintext SourceFormat = "plaintext"
	// FormatMarkdown is Markdown with heading structure.
	FormatMarkdown SourceFormat = "markdown"
	// FormatChatJSON is a JSON chat export.
	FormatChatJSON SourceFormat = "chat-json"
	// FormatImage is a scanned page or photo requiring OCR.
	FormatImage SourceFormat = "image"
	// FormatPDF is a PDF handled by an external extraction collaborator.
	FormatPDF SourceFormat = "pdf"
	// FormatSpreadsheet is CSV/XLSX handled by an external collaborator.
	FormatSpreadsheet SourceFormat = "spreadsheet"
	// FormatUnknown is content whose type could not be detected.
	FormatUnknown SourceFormat = "unknown"
)

// DetectFormat maps a file extension (without dot, lower-case) to a
// SourceFormat. Unrecognised extensions fall through to content sniffing
// in the adapter registry.
func DetectFormat(ext string) SourceFormat {
	switch ext {
	case "txt", "text", "log":
		return FormatPlaintext
	case "md", "markdown":
		return FormatMarkdown
	case "json":
		return FormatChatJSON
	case "png", "jpg", "jpeg", "tiff", "tif", "bmp":
		return FormatImage
	case "pdf":
		return FormatPDF
	case "csv", "xlsx", "xls":
		return FormatSpreadsheet
	default:
		return FormatUnknown
	}
}
