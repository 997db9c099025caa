package handler

import (
	stdErrors "errors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/dubbing-service/errors"
	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/dubbing-service/internal/usecase/errors"
)

// ToAppError maps domain and usecase errors onto client-facing AppErrors
func ToAppError(c echo.Context, err error) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	var transition *entities.InvalidTransitionError
	if stdErrors.As(err, &transition) {
		e := errors.ErrJobInvalidTransition(c.Param("id"), string(transition.From), string(transition.To))
		if transition.Reason != "" {
			e = e.WithDetail("reason", transition.Reason)
		}
		return e
	}

	var validation validator.ValidationErrors
	if stdErrors.As(err, &validation) {
		e := errors.ErrInvalidArgument("Validation failed")
		for _, fe := range validation {
			e = e.WithDetail(fe.Field(), fe.Tag())
		}
		return e
	}

	var httpErr *echo.HTTPError
	if stdErrors.As(err, &httpErr) {
		e := errors.ErrInvalidPayload()
		e.Raw = err
		return e
	}

	switch {
	case stdErrors.Is(err, entities.ErrJobNotFound):
		return errors.ErrJobNotFound(c.Param("id"))
	case stdErrors.Is(err, entities.ErrVideoNotFound):
		return errors.ErrVideoNotFound(c.Param("id"))
	case stdErrors.Is(err, entities.ErrSpeakerNotFound):
		e := errors.ErrSpeakerNotFound(c.Param("speakerId"))
		e.Raw = err
		return e
	case stdErrors.Is(err, entities.ErrUnauthorized):
		return errors.ErrPermissionDenied("resource belongs to another user")
	case stdErrors.Is(err, entities.ErrStaleJobState):
		return errors.ErrJobStaleState(c.Param("id"))
	case stdErrors.Is(err, usecaseErrors.ErrAlreadyRunning):
		return errors.ErrJobAlreadyRunning(c.Param("id"))
	case stdErrors.Is(err, usecaseErrors.ErrNotRunning):
		return errors.ErrJobNotRunning(c.Param("id"))
	case stdErrors.Is(err, usecaseErrors.ErrShuttingDown):
		return errors.ErrUnavailable("Service is shutting down, retry later")
	case stdErrors.Is(err, entities.ErrJobNotEditable):
		return errors.ErrJobNotEditable(c.Param("id"))
	case stdErrors.Is(err, entities.ErrDuplicateSpeakerLabel):
		e := errors.ErrSpeakerLabelTaken("")
		e.Raw = err
		return e
	case stdErrors.Is(err, entities.ErrValidation),
		stdErrors.Is(err, entities.ErrUnsupportedLanguage),
		stdErrors.Is(err, usecaseErrors.ErrInvalidInput):
		e := errors.ErrInvalidArgument("Invalid request")
		e.Raw = err
		return e
	}
	return errors.ErrInternal(err)
}
