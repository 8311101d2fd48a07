// Package devbackend is an in-process implementation of the media backend
// contract, intended for running the gateway standalone against MinIO or any
// S3-compatible store. It validates grants, assigns object names and mints
// presigned URLs; it has no cache layer and therefore never answers 209.
package devbackend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"github.com/kastel/media-proxy/internal/response"
)

// presignLifetime is how long a minted URL stays valid.
const presignLifetime = 15 * time.Minute

// Server implements the backend's four routes over a MinIO bucket.
type Server struct {
	client    *minio.Client
	bucket    string
	apiSecret string
	grants    *GrantVerifier
}

// New creates the MinIO client, ensures the bucket exists, and returns a
// ready-to-serve backend.
func New(endpoint, accessKey, secretKey, bucket string, useSSL bool, apiSecret string, grants *GrantVerifier) (*Server, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx := context.Background()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
		log.Info().Str("bucket", bucket).Msg("created bucket")
	}

	return &Server{
		client:    client,
		bucket:    bucket,
		apiSecret: apiSecret,
		grants:    grants,
	}, nil
}

// Routes registers the backend contract under r, behind shared-secret auth.
func (s *Server) Routes(r chi.Router) {
	r.Use(s.requireSecret)
	r.Get("/guild/{id}/init", s.InitFileUpload)
	r.Get("/guild/{id}/{filename}", s.FetchFile)
	r.Get("/icon/{id}/{hash}/init", s.InitIconUpload)
	r.Get("/icon/{id}/{hash}", s.FetchIcon)
}

// requireSecret rejects calls that do not carry the shared secret the gateway
// authenticates with.
func (s *Server) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != s.apiSecret {
			response.Text(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkGrant verifies the grant query parameters, writing the failure itself.
func (s *Server) checkGrant(w http.ResponseWriter, r *http.Request) bool {
	q := r.URL.Query()
	if err := s.grants.Verify(q.Get("k"), q.Get("ex"), q.Get("s")); err != nil {
		response.Text(w, http.StatusForbidden, err.Error())
		return false
	}
	return true
}

type presignResponse struct {
	URL  string `json:"Url"`
	Type string `json:"Type,omitempty"`
}

// InitFileUpload authorizes a file upload and answers with a presigned PUT URL
// for a freshly assigned object name under the guild prefix.
func (s *Server) InitFileUpload(w http.ResponseWriter, r *http.Request) {
	if !s.checkGrant(w, r) {
		return
	}

	key := fmt.Sprintf("%s/%s", chi.URLParam(r, "id"), uuid.NewString())
	u, err := s.client.PresignedPutObject(r.Context(), s.bucket, key, presignLifetime)
	if err != nil {
		response.Text(w, http.StatusInternalServerError, fmt.Sprintf("presign put: %v", err))
		return
	}

	response.JSON(w, http.StatusOK, presignResponse{URL: u.String()})
}

// FetchFile resolves a stored file to a presigned GET URL plus its content type.
func (s *Server) FetchFile(w http.ResponseWriter, r *http.Request) {
	key := fmt.Sprintf("%s/%s", chi.URLParam(r, "id"), chi.URLParam(r, "filename"))
	s.presignGet(w, r, key)
}

// InitIconUpload authorizes an icon upload under its content-addressed key.
func (s *Server) InitIconUpload(w http.ResponseWriter, r *http.Request) {
	if !s.checkGrant(w, r) {
		return
	}
	if r.URL.Query().Get("type") == "" {
		response.Text(w, http.StatusBadRequest, "missing type")
		return
	}

	key := iconKey(chi.URLParam(r, "id"), chi.URLParam(r, "hash"))
	u, err := s.client.PresignedPutObject(r.Context(), s.bucket, key, presignLifetime)
	if err != nil {
		response.Text(w, http.StatusInternalServerError, fmt.Sprintf("presign put: %v", err))
		return
	}

	response.JSON(w, http.StatusOK, presignResponse{URL: u.String()})
}

// FetchIcon resolves a stored icon to a presigned GET URL.
func (s *Server) FetchIcon(w http.ResponseWriter, r *http.Request) {
	s.presignGet(w, r, iconKey(chi.URLParam(r, "id"), chi.URLParam(r, "hash")))
}

func (s *Server) presignGet(w http.ResponseWriter, r *http.Request, key string) {
	stat, err := s.client.StatObject(r.Context(), s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			response.Text(w, http.StatusNotFound, "object not found")
			return
		}
		response.Text(w, http.StatusInternalServerError, fmt.Sprintf("stat object: %v", err))
		return
	}

	u, err := s.client.PresignedGetObject(r.Context(), s.bucket, key, presignLifetime, url.Values{})
	if err != nil {
		response.Text(w, http.StatusInternalServerError, fmt.Sprintf("presign get: %v", err))
		return
	}

	response.JSON(w, http.StatusOK, presignResponse{URL: u.String(), Type: stat.ContentType})
}

func iconKey(id, hash string) string {
	return fmt.Sprintf("icons/%s/%s", id, hash)
}
