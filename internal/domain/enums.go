package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// NotAvailable is the display value for a missing or invalid field.
const NotAvailable = "N/A"

// MissingPolicy selects how a missing field is rendered.
type MissingPolicy string

const (
	// MissingSentinel renders missing fields as "N/A".
	MissingSentinel MissingPolicy = "sentinel"
	// MissingBlank renders missing fields as an empty cell.
	MissingBlank MissingPolicy = "blank"
)

// Marker returns the display string for a missing value under the policy.
func (p MissingPolicy) Marker() string {
	if p == MissingBlank {
		return ""
	}
	return NotAvailable
}

// NameMode selects how line breaks inside a supplier name are displayed.
type NameMode string

const (
	// NameCollapse joins name lines with a separator for single-line cells.
	NameCollapse NameMode = "collapse"
	// NamePreserve keeps name lines for wrapped multi-line cells.
	NamePreserve NameMode = "preserve"
)

// Stage identifies a step of the extraction pipeline.
type Stage string

const (
	StageIntake   Stage = "intake"
	StageOCR      Stage = "ocr"
	StageParse    Stage = "parse"
	StageValidate Stage = "validate"
	StagePersist  Stage = "persist"
)

// BatchStatus represents the outcome of a batch run.
type BatchStatus string

const (
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusEmpty     BatchStatus = "empty"
	BatchStatusFailed    BatchStatus = "failed"
)

// ArtifactFormat identifies a stored rendering of a report.
type ArtifactFormat string

const (
	ArtifactXLSX ArtifactFormat = "xlsx"
	ArtifactCSV  ArtifactFormat = "csv"
)
