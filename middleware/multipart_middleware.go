package middleware

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/upb/thesis-workflow/internal/upload"
	"github.com/upb/thesis-workflow/utils"
	"go.uber.org/zap"
)

// formOverhead is the body allowance on top of the file limit for fields and part headers
const formOverhead = 2 << 20

// MultipartIngest parses multipart/form-data bodies before handlers run
type MultipartIngest struct {
	maxFileSize int64
	logger      *zap.Logger
}

// NewMultipartIngest creates a new MultipartIngest
func NewMultipartIngest(maxFileSize int64, logger *zap.Logger) *MultipartIngest {
	return &MultipartIngest{
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Handler parses the body into an envelope. Requests that already carry an
// envelope, or whose content type is not multipart/form-data, pass through
// untouched. On success the fields are merged into r.Form and r.PostForm and
// the envelope is available through GetUploadFromContext.
func (m *MultipartIngest) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if GetUploadFromContext(ctx) != nil {
			next.ServeHTTP(w, r)
			return
		}
		boundary, ok := upload.Boundary(r.Header.Get("Content-Type"))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		requestID := GetRequestIDFromContext(ctx)
		body := http.MaxBytesReader(w, r.Body, m.maxFileSize+formOverhead)

		parser := upload.NewParser(m.maxFileSize)
		env, err := parser.Parse(ctx, body, boundary)
		if err != nil {
			m.logger.Warn("multipart ingest failed",
				zap.String("request_id", requestID),
				zap.String("state", parser.State().String()),
				zap.Error(err))

			var maxErr *http.MaxBytesError
			if errors.Is(err, upload.ErrFileTooLarge) || errors.As(err, &maxErr) {
				_ = utils.WritePayloadTooLarge(w, "Uploaded file is too large")
				return
			}
			_ = utils.WriteBadRequest(w, "Malformed multipart body", nil)
			return
		}

		fields := make(url.Values, len(env.Fields))
		for k, v := range env.Fields {
			fields.Set(k, v)
		}
		form := make(url.Values)
		for k, v := range r.URL.Query() {
			form[k] = append(form[k], v...)
		}
		for k, v := range fields {
			form[k] = append(v, form[k]...)
		}

		r = r.WithContext(WithUpload(ctx, env))
		r.PostForm = fields
		r.Form = form
		r.Body = http.NoBody

		fileName := ""
		if env.File != nil {
			fileName = env.File.OriginalName
		}
		m.logger.Debug("multipart body ingested",
			zap.String("request_id", requestID),
			zap.Int("fields", len(env.Fields)),
			zap.String("file", fileName))

		next.ServeHTTP(w, r)
	})
}
