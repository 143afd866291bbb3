package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/username/tadawulboard/src/logger"
)

// ErrValidationFailed tags every selection or content rejection so handlers
// can map it to a 400.
var ErrValidationFailed = errors.New("validation failed")

// AllowedClientContentTypes is a map for quick lookup of allowed
// client-declared MIME types for report uploads.
var AllowedClientContentTypes = map[string]bool{
	"application/pdf":          true,
	"application/x-pdf":        true,
	"application/octet-stream": true, // generic fallback; magic bytes decide
}

// ValidateClientContentType checks the Content-Type the client declared for
// an uploaded file.
func ValidateClientContentType(contentType string) error {
	normalized := strings.ToLower(strings.Split(contentType, ";")[0])
	if !AllowedClientContentTypes[strings.TrimSpace(normalized)] {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("%w: client-declared file type '%s' is not allowed for PDF upload", ErrValidationFailed, contentType)
	}
	return nil
}

var pdfMagic = []byte("%PDF-")

// ValidatePDFContent checks the actual file content signature. The read
// pointer is reset so the uploader can still send the full file.
func ValidatePDFContent(file io.ReadSeeker) error {
	if file == nil {
		return fmt.Errorf("%w: file is nil", ErrValidationFailed)
	}

	buffer := make([]byte, len(pdfMagic))
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("failed to read file for content checking: %w", err)
	}

	// IMPORTANT: Reset the file read pointer to the beginning so the upload can send the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if !bytes.HasPrefix(buffer[:n], pdfMagic) {
		logger.L.Warn("File content does not carry a PDF signature")
		return fmt.Errorf("%w: file content is not a PDF document", ErrValidationFailed)
	}
	return nil
}

// SelectionError reports which filenames sank an upload selection. The
// whole selection is rejected; there is no partial acceptance at this
// stage.
type SelectionError struct {
	Duplicates []string
	WrongType  []string
}

func (e *SelectionError) Error() string {
	var parts []string
	if len(e.Duplicates) > 0 {
		parts = append(parts, "duplicate filenames: "+strings.Join(e.Duplicates, ", "))
	}
	if len(e.WrongType) > 0 {
		parts = append(parts, "not PDF documents: "+strings.Join(e.WrongType, ", "))
	}
	return "selection rejected: " + strings.Join(parts, "; ")
}

func (e *SelectionError) Unwrap() error { return ErrValidationFailed }

// SelectedFile is one file of a pending upload selection, before any bytes
// are sent anywhere.
type SelectedFile struct {
	Filename    string
	ContentType string
}

// ValidateSelection applies the all-or-nothing selection checks: no
// filename may collide with an already-known one or repeat within the
// selection, and every declared type must be a PDF type. On any offense the
// entire selection is rejected and the offending names are reported.
func ValidateSelection(existing map[string]bool, selection []SelectedFile) error {
	seen := make(map[string]bool, len(selection))
	var selErr SelectionError
	for _, f := range selection {
		if existing[f.Filename] || seen[f.Filename] {
			selErr.Duplicates = append(selErr.Duplicates, f.Filename)
		}
		seen[f.Filename] = true
		if err := ValidateClientContentType(f.ContentType); err != nil {
			selErr.WrongType = append(selErr.WrongType, f.Filename)
		}
	}
	if len(selErr.Duplicates) > 0 || len(selErr.WrongType) > 0 {
		return &selErr
	}
	return nil
}
