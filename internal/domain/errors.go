package domain

import "errors"

var (
	ErrNotFound             = errors.New("resource not found")
	ErrNoFiles              = errors.New("no files uploaded")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrNothingExtracted     = errors.New("no GST data could be extracted from the files")
	ErrReportNotFound       = errors.New("report not found")
	ErrInvalidDownloadToken = errors.New("download token is invalid or expired")
	ErrArtifactWrite        = errors.New("failed to write report artifact")
	ErrMissingCredential    = errors.New("extractor credential is not configured")
	ErrUnknownFormat        = errors.New("unknown artifact format")
)
