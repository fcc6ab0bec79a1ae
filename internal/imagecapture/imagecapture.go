/*
Package imagecapture turns uploaded image files into base64 data URIs and
parses data URIs back into raw bytes for the inference boundary.
*/
package imagecapture

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

const (
	dataPrefix   = "data:"
	base64Marker = ";base64,"
)

var (
	// ErrNotImage is returned when the selected file is not an image.
	ErrNotImage = errors.New("invalid file type, please select an image (e.g. PNG, JPG)")

	// ErrEmptyFile is returned for zero-length uploads.
	ErrEmptyFile = errors.New("the selected file is empty")

	// ErrTooLarge is returned when an upload exceeds the configured size.
	ErrTooLarge = errors.New("the selected image is too large")

	// ErrInvalidDataURI is returned when a string is not a base64 data URI.
	ErrInvalidDataURI = errors.New("photo must be a data URI of the form data:<mimetype>;base64,<data>")
)

// Image is a decoded data URI.
type Image struct {
	MimeType string
	Data     []byte
}

// DataURI encodes the image back into data URI form.
func (i Image) DataURI() string {
	return dataPrefix + i.MimeType + base64Marker + base64.StdEncoding.EncodeToString(i.Data)
}

// FromFile reads a multipart upload and returns it as a data URI.
// maxBytes <= 0 disables the size check.
func FromFile(fh *multipart.FileHeader, maxBytes int64) (string, error) {
	if fh == nil {
		return "", ErrEmptyFile
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return "", ErrTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to read the image file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read the image file: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", ErrTooLarge
	}

	return FromBytes(data, fh.Header.Get("Content-Type"))
}

// FromBytes validates that data is an image and encodes it as a data URI.
// declaredType is the client supplied content type; when it is missing or
// generic the type is sniffed from the content.
func FromBytes(data []byte, declaredType string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}

	mimeType := normalizeType(declaredType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = normalizeType(http.DetectContentType(data))
	}
	if !(Image{MimeType: mimeType}).IsImage() {
		return "", ErrNotImage
	}

	return Image{MimeType: mimeType, Data: data}.DataURI(), nil
}

// Parse decodes a data URI. The MIME type must be present and the payload
// must be non-empty standard base64.
func Parse(uri string) (Image, error) {
	if !strings.HasPrefix(uri, dataPrefix) {
		return Image{}, ErrInvalidDataURI
	}
	rest := uri[len(dataPrefix):]

	idx := strings.Index(rest, base64Marker)
	if idx <= 0 {
		return Image{}, ErrInvalidDataURI
	}
	mimeType := normalizeType(rest[:idx])
	if mimeType == "" || !strings.Contains(mimeType, "/") {
		return Image{}, ErrInvalidDataURI
	}

	payload := rest[idx+len(base64Marker):]
	if payload == "" {
		return Image{}, ErrInvalidDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}

	return Image{MimeType: mimeType, Data: data}, nil
}

// ParseImage is Parse restricted to image/* payloads.
func ParseImage(uri string) (Image, error) {
	img, err := Parse(uri)
	if err != nil {
		return Image{}, err
	}
	if !img.IsImage() {
		return Image{}, ErrNotImage
	}
	return img, nil
}

// IsImage reports whether the MIME type is an image type.
func (i Image) IsImage() bool {
	return strings.HasPrefix(i.MimeType, "image/")
}

// normalizeType strips parameters and lowercases a content type.
func normalizeType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(contentType)
	}
	return mediaType
}
