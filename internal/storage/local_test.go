package storage

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"assetmarket/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileHeader round-trips content through a multipart form to get a real header
func fileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestLocalSave(t *testing.T) {
	dir := t.TempDir()
	s := NewLocal(filepath.Join(dir, "nested"), "/uploads/")

	url, err := s.Save(fileHeader(t, "my kit (v2).zip", "application/zip", []byte("PK archive")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, "-my_kit_v2_.zip"), url)

	stored, err := os.ReadFile(filepath.Join(s.BasePath(), strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "PK archive", string(stored))

	_, err = s.Save(fileHeader(t, "preview.png", "image/png", []byte{0x89, 'P', 'N', 'G'}))
	assert.NoError(t, err)
}

func TestLocalSave_RejectsOtherTypes(t *testing.T) {
	s := NewLocal(t.TempDir(), "/uploads")
	_, err := s.Save(fileHeader(t, "run.sh", "text/x-shellscript", []byte("#!/bin/sh")))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestLocalSave_StripsDirectories(t *testing.T) {
	s := NewLocal(t.TempDir(), "/uploads")
	url, err := s.Save(fileHeader(t, "../../etc/passwd.png", "image/png", []byte("x")))
	require.NoError(t, err)
	assert.NotContains(t, strings.TrimPrefix(url, "/uploads/"), "/")
}
