package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// JSONResponse writes data as a flat JSON body.
func JSONResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, data)
}

// SuccessResponse writes a 200 response.
func SuccessResponse(c echo.Context, data interface{}) error {
	return JSONResponse(c, http.StatusOK, data)
}

// ValidationErrorResponse writes a 422 response listing every failed constraint.
func ValidationErrorResponse(c echo.Context, errs []ValidationError) error {
	return JSONResponse(c, http.StatusUnprocessableEntity, DetailResponse{Detail: errs})
}

// InternalServerErrorResponse writes internal server error.
func InternalServerErrorResponse(c echo.Context) error {
	return JSONResponse(c, http.StatusInternalServerError, DetailResponse{Detail: "internal server error"})
}

// AppErrorResponse writes application error response. Only the public message is exposed.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return JSONResponse(c, appErr.Status, DetailResponse{Detail: appErr.Message})
	}
	return InternalServerErrorResponse(c)
}
