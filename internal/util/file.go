package util

import (
	"errors"
	"io"
	"net/http"
	"strings"
)

// ValidateMimeType sniffs the real content type from the first 512 bytes
// instead of trusting the client-supplied header. allowedTypes entries are
// either full MIME types or prefixes such as "image/".
func ValidateMimeType(reader io.Reader, allowedTypes []string) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	mimeType := http.DetectContentType(buffer[:n])

	for _, allowed := range allowedTypes {
		if strings.HasSuffix(allowed, "/") {
			if strings.HasPrefix(mimeType, allowed) {
				return mimeType, nil
			}
		} else if mimeType == allowed {
			return mimeType, nil
		}
	}

	return mimeType, errors.New("unsupported file type: " + mimeType)
}
