// Package mediatype maps declared MIME types to download behaviour: the canonical
// file extension and whether a browser should render the bytes in place or be
// forced to download them.
package mediatype

import (
	"fmt"
	"mime"
	"strings"
)

// Disposition values for the Content-Disposition header.
const (
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)

// preferredExtensions overrides the mime database where it is ambiguous or
// picks an unhelpful alias (e.g. "jpe" for image/jpeg).
var preferredExtensions = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"video/mp4":       "mp4",
	"video/webm":      "webm",
	"video/ogg":       "ogg",
	"audio/ogg":       "ogg",
	"application/pdf": "pdf",
	"text/plain":      "txt",
}

// inlineExtensions lists the extensions a browser renders in place. Everything
// else is served as an attachment so the user downloads it instead of the
// browser trying to interpret it.
var inlineExtensions = map[string]struct{}{
	// images
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"webp": {},
	// video
	"mp4":  {},
	"webm": {},
	"ogg":  {},
}

// Extension returns the canonical extension (no leading dot) for a declared MIME
// type. Unknown or empty types fall back to "txt".
func Extension(mimeType string) string {
	mt := mimeType
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mt = parsed
	}
	if ext, ok := preferredExtensions[strings.ToLower(mt)]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mt); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return "txt"
}

// Disposition returns "inline" when the extension is a renderable image or video
// format and "attachment" otherwise.
func Disposition(ext string) string {
	if _, ok := inlineExtensions[strings.ToLower(ext)]; ok {
		return DispositionInline
	}
	return DispositionAttachment
}

// ContentDisposition builds the full Content-Disposition header value for the
// declared MIME type. The filename comes from the request path, so callers
// control the name the browser saves under.
func ContentDisposition(mimeType, filename string) string {
	return fmt.Sprintf("%s; filename=%q", Disposition(Extension(mimeType)), filename)
}
