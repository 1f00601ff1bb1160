package util

import (
	"mime"
	"path"
	"strings"
)

// FilenameFromContentDisposition extracts the filename parameter of a Content-Disposition header value, without
// any directory part.
func FilenameFromContentDisposition(header string) (string, error) {
	if header == "" {
		return "", ErrNoFilename
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return "", err
	}
	filename := path.Base(strings.ReplaceAll(params["filename"], "\\", "/"))
	if filename == "" || strings.ReplaceAll(filename, ".", "") == "" || filename == "/" {
		return "", ErrNoFilename
	}
	return filename, nil
}

// MimeTypeFromContentType returns the media type of a Content-Type header value, without parameters.
func MimeTypeFromContentType(header string) string {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return mediaType
}
