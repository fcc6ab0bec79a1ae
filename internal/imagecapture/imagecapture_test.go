package imagecapture

import (
	"bytes"
	"encoding/base64"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func fileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File["image"][0]
}

func TestFromFile_Image(t *testing.T) {
	fh := fileHeader(t, "rice.png", "image/png", pngHeader)

	uri, err := FromFile(fh, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	img, err := Parse(uri)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, img.Data)
}

func TestFromFile_RejectsNonImage(t *testing.T) {
	fh := fileHeader(t, "notes.txt", "text/plain", []byte("hello"))

	_, err := FromFile(fh, 0)
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestFromFile_TooLarge(t *testing.T) {
	fh := fileHeader(t, "rice.png", "image/png", pngHeader)

	_, err := FromFile(fh, 4)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFromBytes_SniffsGenericType(t *testing.T) {
	uri, err := FromBytes(pngHeader, "application/octet-stream")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	_, err = FromBytes([]byte("plain text body"), "")
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = FromBytes(nil, "image/png")
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParse(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))

	img, err := Parse("data:image/jpeg;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MimeType)
	assert.Equal(t, []byte("jpeg-bytes"), img.Data)

	bad := []string{
		"",
		"image/jpeg;base64," + payload,
		"data:;base64," + payload,
		"data:image/jpeg," + payload,
		"data:image/jpeg;base64,",
		"data:image/jpeg;base64,###",
		"data:jpeg;base64," + payload,
	}
	for _, uri := range bad {
		_, err := Parse(uri)
		assert.ErrorIs(t, err, ErrInvalidDataURI, "uri %q", uri)
	}
}

func TestParseImage(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("hello"))

	img, err := ParseImage("data:IMAGE/PNG;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MimeType)

	_, err = ParseImage("data:text/plain;base64," + payload)
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = ParseImage("data:image/png;base64,")
	assert.ErrorIs(t, err, ErrInvalidDataURI)
}
