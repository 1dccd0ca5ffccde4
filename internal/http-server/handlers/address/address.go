package address

import (
	"context"
	"errors"
	"fmt"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"swagportal/entity"
	"swagportal/internal/places"
	"swagportal/lib/api/request"
	"swagportal/lib/api/response"
	"swagportal/lib/sl"
)

type Core interface {
	ValidateAddress(ctx context.Context, placeId string) (*entity.AddressCheck, error)
}

func Validate(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.address")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req entity.PlaceRequest
		if err := request.Bind(r, &req); err != nil {
			logger.Debug("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Fail(string(entity.AbortInvalidInput), fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(slog.String("place_id", req.PlaceId))

		check, err := handler.ValidateAddress(r.Context(), req.PlaceId)
		if errors.Is(err, places.ErrInvalidPlace) {
			logger.Debug("place not resolved", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Fail("InvalidPlace", "Address not found"))
			return
		}
		if err != nil {
			logger.Error("validate address", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Address validation not available"))
			return
		}

		render.JSON(w, r, response.Ok(check))
	}
}
