package media

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kastel/media-proxy/internal/icon"
	"github.com/kastel/media-proxy/internal/upstream"
)

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// newGateway assembles a router over httptest collaborators. Pass nil for any
// collaborator a test does not exercise; store servers are created per test
// since their URLs travel through the backend's presigned responses.
func newGateway(t *testing.T, backend, convert http.Handler, verbose bool) *chi.Mux {
	t.Helper()

	backendURL, convertURL := "http://backend.invalid", "http://convert.invalid"
	if backend != nil {
		srv := httptest.NewServer(backend)
		t.Cleanup(srv.Close)
		backendURL = srv.URL
	}
	if convert != nil {
		srv := httptest.NewServer(convert)
		t.Cleanup(srv.Close)
		convertURL = srv.URL
	}

	h := NewHandler(
		upstream.NewBackend(backendURL, "sekrit"),
		upstream.NewStore(),
		icon.NewResizer(icon.ImagingCodec{}),
		icon.NewConverter(convertURL),
		verbose,
	)
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func multipartBody(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "upload.bin")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func presignJSON(url, mimeType string) []byte {
	op := upstream.PresignedOperation{URL: url, Type: mimeType}
	b, _ := json.Marshal(op)
	return b
}

func renderPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 10, G: 120, B: 240, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadIconHappyPath(t *testing.T) {
	payload := append(append([]byte{}, pngMagic...), []byte("icon bytes")...)
	sum := sha256.Sum256(payload)
	wantHash := hex.EncodeToString(sum[:])

	var stored []byte
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		var err error
		stored, err = io.ReadAll(r.Body)
		require.NoError(t, err)
	}))
	defer store.Close()

	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/icon/42/%s/init", wantHash), r.URL.Path)
		assert.Equal(t, "K", r.URL.Query().Get("k"))
		assert.Equal(t, "E", r.URL.Query().Get("ex"))
		assert.Equal(t, "S", r.URL.Query().Get("s"))
		assert.Equal(t, "png", r.URL.Query().Get("type"))
		w.Write(presignJSON(store.URL+"/obj", ""))
	})

	router := newGateway(t, backend, nil, true)

	body, contentType := multipartBody(t, "file", payload)
	req := httptest.NewRequest(http.MethodPut, "/u/42?k=K&ex=E&s=S", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp iconUploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, wantHash, resp.Hash)
	assert.Equal(t, payload, stored)
}

func TestUploadIconHashIsDeterministic(t *testing.T) {
	payload := append(append([]byte{}, pngMagic...), []byte("same bytes")...)

	var initPaths []string
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer store.Close()
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		initPaths = append(initPaths, r.URL.Path)
		w.Write(presignJSON(store.URL+"/obj", ""))
	})

	router := newGateway(t, backend, nil, true)

	hashes := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		body, contentType := multipartBody(t, "file", payload)
		req := httptest.NewRequest(http.MethodPut, "/u/42?k=K&ex=E&s=S", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp iconUploadResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		hashes = append(hashes, resp.Hash)
	}

	assert.Equal(t, hashes[0], hashes[1])
	assert.Equal(t, initPaths[0], initPaths[1])
}

func TestUploadIconUnsniffableNeverReachesBackend(t *testing.T) {
	var backendCalls atomic.Int32
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backendCalls.Add(1)
	})

	router := newGateway(t, backend, nil, true)

	body, contentType := multipartBody(t, "file", []byte("definitely not an image"))
	req := httptest.NewRequest(http.MethodPut, "/u/42?k=K&ex=E&s=S", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, int32(0), backendCalls.Load())
}

func TestUploadFileHappyPath(t *testing.T) {
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
	}))
	defer store.Close()

	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/guild/7/init", r.URL.Path)
		w.Write(presignJSON(store.URL+"/obj", ""))
	})

	router := newGateway(t, backend, nil, true)

	body, contentType := multipartBody(t, "file", []byte("any bytes at all"))
	req := httptest.NewRequest(http.MethodPut, "/g/7?k=K&ex=E&s=S", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestUploadValidationFailsFast(t *testing.T) {
	var backendCalls atomic.Int32
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backendCalls.Add(1)
	})
	router := newGateway(t, backend, nil, true)

	t.Run("missing grant", func(t *testing.T) {
		body, contentType := multipartBody(t, "file", []byte("x"))
		req := httptest.NewRequest(http.MethodPut, "/g/7?k=K", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/g/7?k=K&ex=E&s=S", bytes.NewReader([]byte("x")))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing file field", func(t *testing.T) {
		body, contentType := multipartBody(t, "attachment", []byte("x"))
		req := httptest.NewRequest(http.MethodPut, "/g/7?k=K&ex=E&s=S", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	assert.Equal(t, int32(0), backendCalls.Load())
}

func TestUpstreamFailureDisclosure(t *testing.T) {
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("X"))
	})

	send := func(router *chi.Mux) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, "file", []byte("x"))
		req := httptest.NewRequest(http.MethodPut, "/g/7?k=K&ex=E&s=S", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("staging relays verbatim", func(t *testing.T) {
		rec := send(newGateway(t, backend, nil, true))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "X", rec.Body.String())
	})

	t.Run("production collapses to 500", func(t *testing.T) {
		rec := send(newGateway(t, backend, nil, false))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "X")
	})
}

func TestFetchFileAttachmentDisposition(t *testing.T) {
	pdf := []byte("%PDF-1.7 pretend document")
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pdf)
	}))
	defer store.Close()

	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/guild/7/report.pdf", r.URL.Path)
		assert.Equal(t, "sekrit", r.Header.Get("Authorization"))
		w.Write(presignJSON(store.URL+"/obj", "application/pdf"))
	})

	router := newGateway(t, backend, nil, true)

	req := httptest.NewRequest(http.MethodGet, "/7/report.pdf", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pdf, rec.Body.Bytes())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="report.pdf"`, rec.Header().Get("Content-Disposition"))
}

func TestFetchFileImageServedInline(t *testing.T) {
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngMagic)
	}))
	defer store.Close()

	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(presignJSON(store.URL+"/obj", "image/png"))
	})

	router := newGateway(t, backend, nil, true)

	req := httptest.NewRequest(http.MethodGet, "/7/cat.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `inline; filename="cat.png"`, rec.Header().Get("Content-Disposition"))
}

func TestFetchIconResizeOutputsPNG(t *testing.T) {
	source := renderPNG(t, 200, 200)
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(source)
	}))
	defer store.Close()

	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/icon/42/deadbeef", r.URL.Path)
		w.Write(presignJSON(store.URL+"/obj", "image/png"))
	})

	router := newGateway(t, backend, nil, true)

	// Output is PNG even though webp was requested, because a resize was asked for.
	req := httptest.NewRequest(http.MethodGet, "/icon/42/deadbeef.webp?width=50&height=50", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestFetchIconFormatMatchServesRawBytes(t *testing.T) {
	source := renderPNG(t, 16, 16)
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(source)
	}))
	defer store.Close()

	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(presignJSON(store.URL+"/obj", "image/png"))
	})

	var convertCalls atomic.Int32
	convert := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		convertCalls.Add(1)
	})

	router := newGateway(t, backend, convert, true)

	req := httptest.NewRequest(http.MethodGet, "/icon/42/deadbeef.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, source, rec.Body.Bytes())
	assert.Equal(t, int32(0), convertCalls.Load())
}

func TestFetchIconFormatMismatchDelegatesToConvert(t *testing.T) {
	source := renderPNG(t, 16, 16)
	webpBytes := []byte("RIFF\x10\x00\x00\x00WEBPVP8 ")

	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(source)
	}))
	defer store.Close()

	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(presignJSON(store.URL+"/obj", "image/png"))
	})

	convert := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			File string `json:"File"`
			To   string `json:"To"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "webp", req.To)
		decoded, err := base64.StdEncoding.DecodeString(req.File)
		require.NoError(t, err)
		assert.Equal(t, source, decoded)

		json.NewEncoder(w).Encode(map[string]string{
			"File": base64.StdEncoding.EncodeToString(webpBytes),
		})
	})

	router := newGateway(t, backend, convert, true)

	req := httptest.NewRequest(http.MethodGet, "/icon/42/deadbeef.webp", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))
	assert.Equal(t, webpBytes, rec.Body.Bytes())
}

func TestFetchIconValidation(t *testing.T) {
	var backendCalls atomic.Int32
	backend := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backendCalls.Add(1)
	})
	router := newGateway(t, backend, nil, true)

	for name, target := range map[string]string{
		"size with width and height": "/icon/42/h.png?size=64&width=50&height=50",
		"size with width only":       "/icon/42/h.png?size=64&width=50",
		"width without height":       "/icon/42/h.png?width=50",
		"height without width":       "/icon/42/h.png?height=50",
		"non-numeric size":           "/icon/42/h.png?size=big",
		"unsupported format":         "/icon/42/h.tiff",
		"no extension":               "/icon/42/h",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, target, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	assert.Equal(t, int32(0), backendCalls.Load())
}

func TestMethodNotAllowed(t *testing.T) {
	router := newGateway(t, nil, nil, true)

	req := httptest.NewRequest(http.MethodPost, "/7/report.pdf", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
