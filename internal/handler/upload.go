package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

type uploadFile struct {
	io.Reader
	io.Closer
}

// openUpload returns the multipart "file" field and its sniffed content type.
func openUpload(c echo.Context) (io.ReadCloser, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", errors.New("file is required")
	}
	if fh.Size > maxUploadBytes {
		return nil, "", errors.New("file is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", errors.New("cannot read file")
	}
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, "", errors.New("cannot read file")
	}
	contentType := http.DetectContentType(head[:n])
	return uploadFile{Reader: io.LimitReader(f, maxUploadBytes), Closer: f}, contentType, nil
}
