package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gramgyan/backend/services"
)

const (
	multipartMemory   = 8 << 20
	multipartOverhead = 1 << 20
)

// formFile parses a multipart request and returns the named part. The body
// is capped at maxBytes plus room for the multipart framing.
func formFile(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (multipart.File, *multipart.FileHeader, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, services.NewValidationError("upload is too large")
		}
		return nil, nil, services.NewValidationError("expected a multipart/form-data body")
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, services.NewValidationError(field + " is required")
	}
	return file, header, nil
}

// contentType returns the part's declared type or fallback.
func contentType(header *multipart.FileHeader, fallback string) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return fallback
}

func queryOr(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}
