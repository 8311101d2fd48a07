// Package sniff classifies image bytes by magic-number prefix. The caller-declared
// content type is never trusted for anything served inline; these checks are.
package sniff

import "bytes"

// Format is an image format name as used in icon URLs ("png", "jpg", ...).
type Format string

// Supported formats. FormatUnknown is the no-match result, not an error.
const (
	FormatPNG     Format = "png"
	FormatJPG     Format = "jpg"
	FormatJPEG    Format = "jpeg"
	FormatGIF     Format = "gif"
	FormatWEBP    Format = "webp"
	FormatUnknown Format = ""
)

// minSniffLen is the number of leading bytes a buffer must have before any
// classification is attempted.
const minSniffLen = 4

// signature pairs a format with its magic-number prefix. The table is scanned in
// order; jpg and jpeg carry byte-identical prefixes, so JPEG data may be reported
// under either label. That ambiguity is inherent to magic-number matching and is
// preserved on purpose.
type signature struct {
	format Format
	prefix []byte
}

var signatures = []signature{
	{FormatPNG, []byte{0x89, 0x50, 0x4E, 0x47}},
	{FormatJPG, []byte{0xFF, 0xD8, 0xFF}},
	{FormatJPEG, []byte{0xFF, 0xD8, 0xFF}},
	{FormatGIF, []byte{0x47, 0x49, 0x46, 0x38}},
	{FormatWEBP, []byte{0x52, 0x49, 0x46, 0x46}},
}

// Detect returns the image format whose magic-number prefix matches the start of
// data, or FormatUnknown when the buffer is shorter than four bytes or matches no
// known prefix.
func Detect(data []byte) Format {
	if len(data) < minSniffLen {
		return FormatUnknown
	}
	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig.prefix) {
			return sig.format
		}
	}
	return FormatUnknown
}

// IsSupported reports whether ext names one of the supported image formats.
func IsSupported(ext string) bool {
	switch Format(ext) {
	case FormatPNG, FormatJPG, FormatJPEG, FormatGIF, FormatWEBP:
		return true
	}
	return false
}

// MIMEType returns the MIME type for a supported format, or
// "application/octet-stream" for FormatUnknown.
func (f Format) MIMEType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPG, FormatJPEG:
		return "image/jpeg"
	case FormatGIF:
		return "image/gif"
	case FormatWEBP:
		return "image/webp"
	}
	return "application/octet-stream"
}
