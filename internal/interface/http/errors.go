package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/go-ddd-ecommerce/internal/application"
	"github.com/oksasatya/go-ddd-ecommerce/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-ecommerce/internal/domain/repository"
	"github.com/oksasatya/go-ddd-ecommerce/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/helpers"
	"github.com/oksasatya/go-ddd-ecommerce/pkg/response"
)

// clientErrors are reported to the caller with their own message.
var clientErrors = []error{
	entity.ErrInvalidPrice,
	entity.ErrInvalidProductID,
	entity.ErrItemNotInCart,
	entity.ErrInvalidEmail,
	entity.ErrNameRequired,
	entity.ErrProductNameRequired,
	entity.ErrProductCategoryRequired,
	app.ErrUserNotFound,
	app.ErrProductNotFound,
	app.ErrActorNotFound,
	app.ErrEmailTaken,
	app.ErrPasswordTooShort,
	app.ErrPasswordTooLong,
	app.ErrInvalidResetToken,
	repo.ErrVersionConflict,
}

func isClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func requestMeta(c *gin.Context) app.RequestMeta {
	return app.RequestMeta{IP: middleware.ClientIP(c), UserAgent: c.GetHeader("User-Agent")}
}

// fail answers an error: 401 for a denied actor, 400 with the message for
// known failures, 500 for anything else after logging it.
func fail(c *gin.Context, logger *logrus.Logger, err error, msg string) {
	failAs(c, logger, err, msg, http.StatusInternalServerError)
}

// failAs is fail with fallback as the status for unrecognized errors.
func failAs(c *gin.Context, logger *logrus.Logger, err error, msg string, fallback int) {
	switch {
	case errors.Is(err, app.ErrUnauthorized):
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
	case isClientError(err):
		response.Error[any](c, http.StatusBadRequest, err.Error(), nil)
	default:
		if logger != nil {
			helpers.LogError(logger, msg, err, logrus.Fields{
				"request_id": c.GetString("request_id"),
				"path":       c.FullPath(),
			})
		}
		response.Error[any](c, fallback, msg, nil)
	}
}
