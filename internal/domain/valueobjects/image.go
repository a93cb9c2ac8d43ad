package valueobjects

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"
)

type ImageFormat string

const (
	JPEG ImageFormat = "jpeg"
	PNG  ImageFormat = "png"
	WEBP ImageFormat = "webp"
)

var ErrUnsupportedImage = errors.New("unsupported image format")

// アップロードで受け付けるMIMEタイプ
var supportedMimeTypes = map[string]ImageFormat{
	"image/png":  PNG,
	"image/jpeg": JPEG,
	"image/jpg":  JPEG,
	"image/webp": WEBP,
}

type ImageData struct {
	data     []byte
	mimeType string
	format   ImageFormat
}

// NewImageData validates uploaded bytes by decoding the image header.
// A declared mimeType outside PNG/JPEG/WEBP is rejected; an empty one is
// inferred from the detected format.
func NewImageData(data []byte, mimeType string) (*ImageData, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image data cannot be empty")
	}

	if mimeType != "" && !IsSupportedMimeType(mimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, mimeType)
	}

	format, err := detectFormat(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	return &ImageData{
		data:     data,
		mimeType: format.MimeType(),
		format:   format,
	}, nil
}

// RestoreImageData wraps bytes that were produced by the model or loaded back
// from a session store. No decoding is attempted.
func RestoreImageData(data []byte, mimeType string) (*ImageData, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image data cannot be empty")
	}

	if mimeType == "" {
		return nil, fmt.Errorf("image mime type is required")
	}

	return &ImageData{
		data:     data,
		mimeType: mimeType,
		format:   formatFromMimeType(mimeType),
	}, nil
}

func IsSupportedMimeType(mimeType string) bool {
	_, ok := supportedMimeTypes[normalizeMimeType(mimeType)]
	return ok
}

func (i *ImageData) Data() []byte {
	return i.data
}

func (i *ImageData) MimeType() string {
	return i.mimeType
}

func (i *ImageData) Format() ImageFormat {
	return i.format
}

// Extension is the file extension used when the image is saved locally.
func (i *ImageData) Extension() string {
	if i.format != "" {
		if i.format == JPEG {
			return "jpg"
		}
		return string(i.format)
	}

	_, sub, ok := strings.Cut(i.mimeType, "/")
	if !ok || sub == "" {
		return "bin"
	}
	return sub
}

func (i *ImageData) ToBase64() string {
	return base64.StdEncoding.EncodeToString(i.data)
}

func (i *ImageData) ToDataURI() string {
	return "data:" + i.mimeType + ";base64," + i.ToBase64()
}

func (f ImageFormat) MimeType() string {
	return "image/" + string(f)
}

func detectFormat(data []byte) (ImageFormat, error) {
	reader := bytes.NewReader(data)
	_, format, err := image.DecodeConfig(reader)
	if err != nil {
		return "", err
	}

	switch format {
	case "jpeg":
		return JPEG, nil
	case "png":
		return PNG, nil
	case "webp":
		return WEBP, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatFromMimeType(mimeType string) ImageFormat {
	return supportedMimeTypes[normalizeMimeType(mimeType)]
}

func normalizeMimeType(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(mimeType))
}
