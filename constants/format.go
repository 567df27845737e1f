package constants

import (
	"bytes"
	"strings"
)

const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// AllowedExtensions holds the attachment extensions the webhook accepts.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether the (possibly dotted) extension is accepted.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

var pdfMagic = []byte("%PDF-")

// SniffFormat classifies raw document bytes. Downloaded attachments carry no
// trustworthy extension, so the content decides: a PDF header means PDF,
// anything else is handed to the image path.
func SniffFormat(data []byte) string {
	if bytes.HasPrefix(data, pdfMagic) {
		return PDF
	}
	return IMAGE
}
