package validator

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/minutes-generator/internal/docx/docxtest"
	"github.com/feichai0017/minutes-generator/pkg/logger"
)

func TestValidateAcceptsPNG(t *testing.T) {
	v := NewUploadValidator(logger.NewTestLogger(), nil)
	data := docxtest.PNG(t, 64, 32)

	result, err := v.Validate(bytes.NewReader(data), "Logo.PNG", int64(len(data)))
	require.NoError(t, err)
	assert.True(t, result.IsValid, result.Error())
	assert.Equal(t, ".png", result.FileInfo.Extension)
	assert.Equal(t, "image/png", result.FileInfo.MimeType)
	assert.Equal(t, 64, result.FileInfo.Width)
	assert.Equal(t, 32, result.FileInfo.Height)
	assert.Len(t, result.FileInfo.Hash, 64)
}

func TestValidateRejectsNonImage(t *testing.T) {
	tl := logger.NewTestLogger()
	v := NewUploadValidator(tl, nil)
	body := "just some text pretending to be a logo"

	result, err := v.Validate(strings.NewReader(body), "logo.png", int64(len(body)))
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "INVALID_MIME_TYPE", result.Errors[0].Code)
	assert.True(t, tl.Contains("WARN", "Upload rejected"))
}

func TestValidateRejectsExtension(t *testing.T) {
	v := NewUploadValidator(logger.NewTestLogger(), nil)
	data := docxtest.PNG(t, 8, 8)

	result, err := v.Validate(bytes.NewReader(data), "logo.exe", int64(len(data)))
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, "INVALID_FILE_TYPE", result.Errors[0].Code)
}

func TestValidateRejectsLargeFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFileSize = 10
	v := NewUploadValidator(logger.NewTestLogger(), cfg)
	data := docxtest.PNG(t, 8, 8)

	result, err := v.Validate(bytes.NewReader(data), "logo.png", int64(len(data)))
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, "FILE_TOO_LARGE", result.Errors[0].Code)
}

func TestValidateRejectsDimensions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDimension = 50
	v := NewUploadValidator(logger.NewTestLogger(), cfg)
	data := docxtest.PNG(t, 100, 10)

	result, err := v.Validate(bytes.NewReader(data), "logo.png", int64(len(data)))
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, "INVALID_DIMENSIONS", result.Errors[0].Code)
	assert.Contains(t, result.Error(), "100x10")
}

// withDeclaredSize rewrites the IHDR width and height of a PNG without
// touching its pixel data.
func withDeclaredSize(data []byte, w, h uint32) []byte {
	out := append([]byte(nil), data...)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestValidateRejectsHugeDeclaredDimensions(t *testing.T) {
	v := NewUploadValidator(logger.NewTestLogger(), nil)
	data := withDeclaredSize(docxtest.PNG(t, 8, 8), 30000, 30000)

	result, err := v.Validate(bytes.NewReader(data), "logo.png", int64(len(data)))
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "INVALID_DIMENSIONS", result.Errors[0].Code)
	assert.Contains(t, result.Error(), "30000x30000")
}
