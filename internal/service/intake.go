package service

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"finsync/internal/domain"
)

// UploadedFile is one document of an upload batch.
type UploadedFile struct {
	Name string
	Size int64
	Body io.Reader
}

// stageFiles validates every file and copies it into dir. The whole batch is
// rejected when any file has a disallowed type or size.
func stageFiles(dir string, files []UploadedFile, maxBytes int64) ([]domain.SourceDocument, error) {
	docs := make([]domain.SourceDocument, 0, len(files))
	for i, file := range files {
		doc, err := stageFile(dir, i, file, maxBytes)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func stageFile(dir string, pos int, file UploadedFile, maxBytes int64) (domain.SourceDocument, error) {
	name := filepath.Base(file.Name)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return domain.SourceDocument{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, name)
	}
	if maxBytes > 0 && file.Size > maxBytes {
		return domain.SourceDocument{}, fmt.Errorf("%w: %s", domain.ErrFileTooLarge, name)
	}

	// Read first 512 bytes for magic-byte content type detection
	head := make([]byte, 512)
	n, err := io.ReadFull(file.Body, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return domain.SourceDocument{}, fmt.Errorf("reading %s: %w", name, err)
	}
	head = head[:n]
	detected := http.DetectContentType(head)
	if _, valid := domain.AllowedContentTypes[detected]; !valid {
		log.Printf("service.stageFile: %s sniffed as %s, rejecting", name, detected)
		return domain.SourceDocument{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, name)
	}

	path := filepath.Join(dir, fmt.Sprintf("%03d.%s", pos, ext))
	out, err := os.Create(path)
	if err != nil {
		return domain.SourceDocument{}, fmt.Errorf("staging %s: %w", name, err)
	}
	written, err := io.Copy(out, io.MultiReader(bytes.NewReader(head), file.Body))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return domain.SourceDocument{}, fmt.Errorf("staging %s: %w", name, err)
	}
	if maxBytes > 0 && written > maxBytes {
		return domain.SourceDocument{}, fmt.Errorf("%w: %s", domain.ErrFileTooLarge, name)
	}

	return domain.SourceDocument{
		Name:        name,
		Path:        path,
		ContentType: domain.AllowedFileTypes[fileType],
	}, nil
}
