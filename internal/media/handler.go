// Package media implements the gateway's four request flows: file upload, icon
// upload, file fetch and icon fetch. Every value it touches lives for a single
// request; the gateway keeps no cache or durable state.
package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kastel/media-proxy/internal/icon"
	"github.com/kastel/media-proxy/internal/mediatype"
	"github.com/kastel/media-proxy/internal/response"
	"github.com/kastel/media-proxy/internal/sniff"
	"github.com/kastel/media-proxy/internal/upstream"
)

// maxUploadMemory bounds how much of a multipart body is held in memory before
// spilling to disk.
const maxUploadMemory = 32 << 20

// Handler holds the gateway's HTTP handlers and their collaborators.
type Handler struct {
	backend   *upstream.Backend
	store     *upstream.Store
	resizer   *icon.Resizer
	converter *icon.Converter

	// verbose relays upstream failure bodies verbatim; production turns it off.
	verbose bool
}

// NewHandler wires the gateway handlers.
func NewHandler(backend *upstream.Backend, store *upstream.Store, resizer *icon.Resizer, converter *icon.Converter, verbose bool) *Handler {
	return &Handler{
		backend:   backend,
		store:     store,
		resizer:   resizer,
		converter: converter,
		verbose:   verbose,
	}
}

type iconUploadResponse struct {
	Hash string `json:"Hash"`
}

// grantFromQuery pulls the opaque access parameters off the request URL.
func grantFromQuery(r *http.Request) upstream.Grant {
	q := r.URL.Query()
	return upstream.Grant{
		Key:       q.Get("k"),
		Expiry:    q.Get("ex"),
		Signature: q.Get("s"),
	}
}

// readFormFile parses the multipart body and returns the bytes of its "file"
// field. Both hashing and sniffing need the full payload, so it is read whole.
func readFormFile(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("missing file field: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read file field: %w", err)
	}
	return data, nil
}

// validateUpload runs the fast-fail checks shared by both upload flows and
// returns the file bytes. It writes the error response itself on failure.
func (h *Handler) validateUpload(w http.ResponseWriter, r *http.Request) (string, upstream.Grant, []byte, bool) {
	id := chi.URLParam(r, "id")
	grant := grantFromQuery(r)
	if id == "" || !grant.Valid() {
		response.BadRequest(w, "Bad Request (NK)")
		return "", upstream.Grant{}, nil, false
	}

	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		response.BadRequest(w, "Bad Request (CT)")
		return "", upstream.Grant{}, nil, false
	}

	data, err := readFormFile(r)
	if err != nil {
		response.BadRequest(w, "Bad Request (NF)")
		return "", upstream.Grant{}, nil, false
	}

	return id, grant, data, true
}

// UploadFile godoc
//
//	@Summary		Upload a file
//	@Description	Streams a multipart file into storage via a backend-issued presigned URL.
//	@Tags			files
//	@Accept			multipart/form-data
//	@Param			id	path		string	true	"Guild ID"
//	@Param			k	query		string	true	"Grant key"
//	@Param			ex	query		string	true	"Grant expiry"
//	@Param			s	query		string	true	"Grant signature"
//	@Param			file	formData	file	true	"File contents"
//	@Success		201
//	@Failure		400	{string}	string
//	@Failure		500	{string}	string
//	@Router			/g/{id} [put]
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	id, grant, data, ok := h.validateUpload(w, r)
	if !ok {
		return
	}

	op, err := h.backend.InitFileUpload(r.Context(), id, grant)
	if err != nil {
		response.UpstreamFailure(w, err, h.verbose)
		return
	}

	if err := h.store.Put(r.Context(), op.URL, data); err != nil {
		response.UpstreamFailure(w, err, h.verbose)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// UploadIcon godoc
//
//	@Summary		Upload an icon
//	@Description	Hashes and sniffs the uploaded image, then stores it content-addressed.
//	@Tags			icons
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id	path		string	true	"Owner ID"
//	@Param			k	query		string	true	"Grant key"
//	@Param			ex	query		string	true	"Grant expiry"
//	@Param			s	query		string	true	"Grant signature"
//	@Param			file	formData	file	true	"Image contents"
//	@Success		201	{object}	iconUploadResponse
//	@Failure		400	{string}	string
//	@Failure		415	{string}	string
//	@Failure		500	{string}	string
//	@Router			/u/{id} [put]
func (h *Handler) UploadIcon(w http.ResponseWriter, r *http.Request) {
	id, grant, data, ok := h.validateUpload(w, r)
	if !ok {
		return
	}

	// Hash and sniff before any backend call: non-image bytes never reach the
	// icon namespace, and identical bytes always land on the same object.
	format := sniff.Detect(data)
	if format == sniff.FormatUnknown {
		response.UnsupportedMediaType(w, "Unsupported Media Type")
		return
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	op, err := h.backend.InitIconUpload(r.Context(), id, hash, grant, string(format))
	if err != nil {
		response.UpstreamFailure(w, err, h.verbose)
		return
	}

	if err := h.store.Put(r.Context(), op.URL, data); err != nil {
		response.UpstreamFailure(w, err, h.verbose)
		return
	}

	response.JSON(w, http.StatusCreated, iconUploadResponse{Hash: hash})
}

// FetchFile godoc
//
//	@Summary		Fetch a file
//	@Description	Resolves the file via the backend and streams it from storage.
//	@Tags			files
//	@Param			id			path	string	true	"Guild ID"
//	@Param			filename	path	string	true	"Stored filename"
//	@Success		200	{file}		file
//	@Failure		500	{string}	string
//	@Router			/{id}/{filename} [get]
func (h *Handler) FetchFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	filename := chi.URLParam(r, "filename")

	op, err := h.backend.FetchFile(r.Context(), id, filename)
	if err != nil {
		response.UpstreamFailure(w, err, h.verbose)
		return
	}

	data, err := h.store.Get(r.Context(), op.URL)
	if err != nil {
		response.UpstreamFailure(w, err, h.verbose)
		return
	}

	// The download filename comes from the request path, not storage metadata.
	w.Header().Set("Content-Type", op.Type)
	w.Header().Set("Content-Disposition", mediatype.ContentDisposition(op.Type, filename))
	_, _ = w.Write(data)
}

// iconVariant is a validated fetch-icon request.
type iconVariant struct {
	hash   string
	format string
	resize bool
	width  int
	height int
}

// parseIconVariant validates the {hash}.{format} path segment and the size /
// width+height query parameters. size and the width/height pair are mutually
// exclusive; width and height come together or not at all.
func parseIconVariant(r *http.Request) (iconVariant, error) {
	file := chi.URLParam(r, "file")
	ext := path.Ext(file)
	v := iconVariant{
		hash:   strings.TrimSuffix(file, ext),
		format: strings.TrimPrefix(ext, "."),
	}
	if v.hash == "" || !sniff.IsSupported(v.format) {
		return v, fmt.Errorf("unsupported icon format %q", v.format)
	}

	q := r.URL.Query()
	sizeStr, widthStr, heightStr := q.Get("size"), q.Get("width"), q.Get("height")

	if sizeStr != "" && (widthStr != "" || heightStr != "") {
		return v, fmt.Errorf("size and width/height are mutually exclusive")
	}
	if (widthStr != "") != (heightStr != "") {
		return v, fmt.Errorf("width and height must be given together")
	}

	switch {
	case sizeStr != "":
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return v, fmt.Errorf("invalid size: %w", err)
		}
		v.resize = true
		v.width, v.height = size, size
	case widthStr != "":
		width, err := strconv.Atoi(widthStr)
		if err != nil {
			return v, fmt.Errorf("invalid width: %w", err)
		}
		height, err := strconv.Atoi(heightStr)
		if err != nil {
			return v, fmt.Errorf("invalid height: %w", err)
		}
		v.resize = true
		v.width, v.height = width, height
	}

	return v, nil
}

// FetchIcon godoc
//
//	@Summary		Fetch an icon
//	@Description	Resolves the icon via the backend, then resizes or transcodes it as requested.
//	@Tags			icons
//	@Param			id		path	string	true	"Owner ID"
//	@Param			file	path	string	true	"Content hash with extension, e.g. abc.png"
//	@Param			size	query	int		false	"Square output size (exclusive with width/height)"
//	@Param			width	query	int		false	"Output width (requires height)"
//	@Param			height	query	int		false	"Output height (requires width)"
//	@Success		200	{file}		file
//	@Failure		400	{string}	string
//	@Failure		500	{string}	string
//	@Router			/icon/{id}/{file} [get]
func (h *Handler) FetchIcon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	variant, err := parseIconVariant(r)
	if err != nil {
		response.BadRequest(w, "Bad Request (IV)")
		return
	}

	op, err := h.backend.FetchIcon(r.Context(), id, variant.hash)
	if err != nil {
		response.UpstreamFailure(w, err, h.verbose)
		return
	}

	data, err := h.store.Get(r.Context(), op.URL)
	if err != nil {
		response.UpstreamFailure(w, err, h.verbose)
		return
	}

	// The fetched bytes are sniffed; the backend-declared type is not trusted
	// for anything served inline.
	source := sniff.Detect(data)

	switch {
	case variant.resize:
		resized, err := h.resizer.Resize(data, variant.width, variant.height)
		if err != nil {
			response.InternalError(w)
			return
		}
		h.serveIcon(w, resized, "image/png", variant)
	case source == sniff.Format(variant.format):
		h.serveIcon(w, data, source.MIMEType(), variant)
	default:
		converted, err := h.converter.Convert(r.Context(), data, variant.format)
		if err != nil {
			response.InternalError(w)
			return
		}
		// Re-sniff so the response type reflects what actually came back.
		h.serveIcon(w, converted, sniff.Detect(converted).MIMEType(), variant)
	}
}

func (h *Handler) serveIcon(w http.ResponseWriter, data []byte, mimeType string, v iconVariant) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("%s; filename=%q", mediatype.DispositionInline, v.hash+"."+v.format))
	_, _ = w.Write(data)
}
