package services

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"outfit-studio/internal/application/usecases"
	"outfit-studio/internal/domain/valueobjects"
)

const (
	DefaultMaxUploadBytes int64 = 10 << 20
	uploadFieldName             = "image"
)

var (
	ErrMissingFile     = errors.New("image file is required")
	ErrFileTooLarge    = errors.New("image file is too large")
	ErrUnsupportedType = errors.New("only PNG, JPEG and WEBP images are supported")
)

type UploadService struct {
	maxBytes int64
}

func NewUploadService(maxBytes int64) *UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadService{maxBytes: maxBytes}
}

// ParseFromRequest reads the "image" field of a multipart form. A file of an
// unsupported type is still returned alongside ErrUnsupportedType.
func (s *UploadService) ParseFromRequest(w http.ResponseWriter, r *http.Request) (*usecases.UploadInput, error) {
	// multipartのオーバーヘッド分だけ余裕を持たせる
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes+(1<<20))

	if err := r.ParseMultipartForm(s.maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, ErrFileTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, ErrMissingFile
		}
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}

	file, header, err := r.FormFile(uploadFieldName)
	if err != nil {
		return nil, ErrMissingFile
	}
	defer file.Close()

	if header.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, ErrMissingFile
	}

	input := &usecases.UploadInput{
		Data:     data,
		MimeType: s.detectMimeType(header.Header.Get("Content-Type"), header.Filename, data),
		FileName: filepath.Base(header.Filename),
	}
	if !valueobjects.IsSupportedMimeType(input.MimeType) {
		return input, fmt.Errorf("%w: %s", ErrUnsupportedType, input.MimeType)
	}

	return input, nil
}

// 宣言されたContent-Type → 拡張子 → 中身の順で判定
func (s *UploadService) detectMimeType(declared, fileName string, data []byte) string {
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != "application/octet-stream" {
		return strings.ToLower(mediaType)
	}

	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); byExt != "" {
		if mediaType, _, err := mime.ParseMediaType(byExt); err == nil {
			return mediaType
		}
	}

	return http.DetectContentType(data)
}
