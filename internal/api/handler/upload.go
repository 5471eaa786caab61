package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediahub/account-service/internal/core/domain"
	"github.com/mediahub/account-service/internal/core/ports"
)

// readUpload reads the named multipart file into memory, capped at limit bytes.
// A missing file yields (nil, nil).
func readUpload(c echo.Context, field string, limit int64) (*ports.AssetUpload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, domain.Wrap(domain.ErrInvalidInput, err, fmt.Sprintf("could not read %s", field))
	}
	if fh.Size > limit {
		return nil, domain.Errorf(domain.ErrInvalidInput, "%s exceeds the %d byte limit", field, limit)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, domain.Wrap(domain.ErrInvalidInput, err, fmt.Sprintf("could not read %s", field))
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, domain.Wrap(domain.ErrInvalidInput, err, fmt.Sprintf("could not read %s", field))
	}
	if int64(len(data)) > limit {
		return nil, domain.Errorf(domain.ErrInvalidInput, "%s exceeds the %d byte limit", field, limit)
	}

	return &ports.AssetUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}
