package shared

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
)

const multipartMemory = 8 << 20

// Upload is one file taken from a multipart form.
type Upload struct {
	File        multipart.File
	FileName    string
	ContentType string
	Size        int64
}

// FormFile reads the named part. When the client sent no content type the
// first bytes are sniffed.
func FormFile(w http.ResponseWriter, r *http.Request, field string) (Upload, bool) {
	reqID := middleware.GetRequestID(r.Context())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "file too large", reqID)
			return Upload{}, false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_upload", "expected a multipart form", reqID)
		return Upload{}, false
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_upload", "missing file field "+field, reqID)
		return Upload{}, false
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		buf := make([]byte, 512)
		n, _ := io.ReadFull(file, buf)
		contentType = http.DetectContentType(buf[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			_ = file.Close()
			api.Fail(w, http.StatusBadRequest, "invalid_upload", "unreadable file", reqID)
			return Upload{}, false
		}
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	return Upload{File: file, FileName: header.Filename, ContentType: contentType, Size: header.Size}, true
}
