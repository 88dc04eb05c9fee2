package prediction

import (
	"net/http"

	"GranoFino/pkg/response"
)

var (
	ErrInvalidImage     = response.NewError(http.StatusBadRequest, "El archivo no es una imagen válida")
	ErrMissingFile      = response.NewError(http.StatusUnprocessableEntity, "field required: file")
	ErrFileTooLarge     = response.NewError(http.StatusRequestEntityTooLarge, "file too large")
	ErrModelUnavailable = response.NewError(http.StatusServiceUnavailable, "model backend unavailable")
)
