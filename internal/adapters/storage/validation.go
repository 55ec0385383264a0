package storage

import (
	"fmt"
	"mime"
	"strings"
)

// AllowedImageTypes maps accepted image MIME types to their file extension.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
	"image/heic": ".heic",
}

// NormalizeContentType lowercases and strips parameters like charset.
func NormalizeContentType(contentType string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	return strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
}

// IsImageContentType checks if the content type is an image.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(NormalizeContentType(contentType), "image/")
}

// ValidateImageContentType accepts only the known image types.
func ValidateImageContentType(contentType string) error {
	if _, ok := AllowedImageTypes[NormalizeContentType(contentType)]; !ok {
		return fmt.Errorf("content type %q is not an allowed image type", contentType)
	}
	return nil
}

// ValidateFileSize checks that size is positive and at most maxBytes.
func ValidateFileSize(sizeBytes, maxBytes int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("file size must be greater than 0")
	}
	if sizeBytes > maxBytes {
		return fmt.Errorf("file size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, maxBytes)
	}
	return nil
}

// ExtensionFor returns the extension for an image type, falling back to the subtype.
func ExtensionFor(contentType string) string {
	normalized := NormalizeContentType(contentType)
	if ext, ok := AllowedImageTypes[normalized]; ok {
		return ext
	}
	if _, subtype, found := strings.Cut(normalized, "/"); found && subtype != "" {
		return "." + subtype
	}
	return ".bin"
}
