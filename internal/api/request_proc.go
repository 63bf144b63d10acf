package api

import (
	"github.com/kennymark/bossman/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func ProcessRequest[T any](e echo.Context, req *T, steps ...func(echo.Context, *T) error) error {
	for _, step := range steps {
		if err := step(e, req); err != nil {
			return err
		}
	}
	return nil
}

// decodeRequest binds and validates the request body into req.
func decodeRequest[T any](e echo.Context, req *T) *service.Error {
	err := ProcessRequest(e, req,
		func(c echo.Context, r *T) error { return c.Bind(r) },
		func(c echo.Context, r *T) error { return c.Validate(r) },
	)
	if err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, errors.Wrap(err, "invalid request body").Error())
	}
	return nil
}
