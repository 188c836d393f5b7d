package validation

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/username/escrowaudit/backend/src/logger"
)

// AllowedClientContentTypes is a map for quick lookup of allowed client-declared MIME types.
var AllowedClientContentTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true, // .xlsx
	"application/vnd.ms-excel": true, // older clients declare this for any Excel file
	"application/octet-stream": true, // some browsers fall back to this for binary uploads
	"text/csv":                 false, // CSV explicitly disallowed: the ledger layout needs a real workbook
	"text/plain":               false,
}

// xlsxMagicBytes is the zip local-file-header signature; every .xlsx file
// is a zip archive and starts with it.
var xlsxMagicBytes = []byte{0x50, 0x4B, 0x03, 0x04}

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	normalized := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if allowed, exists := AllowedClientContentTypes[normalized]; !exists || !allowed {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("client-declared file type '%s' is not allowed for workbook upload", contentType)
	}
	return nil
}

// ValidateFileContentByMagicBytes checks the actual file content signature
// (magic bytes) to ensure it is a zip-based workbook and not a mislabelled
// text file or executable.
func ValidateFileContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, len(xlsxMagicBytes))
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// IMPORTANT: Reset the file read pointer to the beginning so the actual parser can read the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if n == 0 {
		return "", fmt.Errorf("file is empty")
	}

	if n < len(xlsxMagicBytes) || !bytes.Equal(buffer[:len(xlsxMagicBytes)], xlsxMagicBytes) {
		logger.L.Warn("File rejected: missing xlsx (zip) signature")
		return "", fmt.Errorf("file does not appear to be a valid .xlsx workbook")
	}

	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
}
