package order

import (
	"context"
	"errors"
	"fmt"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"swagportal/entity"
	"swagportal/lib/api/cont"
	"swagportal/lib/api/request"
	"swagportal/lib/api/response"
	"swagportal/lib/sl"
)

type Core interface {
	PlaceOrder(ctx context.Context, userId string, req *entity.OrderRequest) (*entity.Confirmation, error)
}

func Place(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.order")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("order service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Order service not available"))
			return
		}

		user := cont.GetUser(r.Context())
		if user == nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Fail(string(entity.AbortUnauthorized), "Not authorized"))
			return
		}
		logger = logger.With(slog.String("user_id", user.Id))

		var req entity.OrderRequest
		if err := request.Bind(r, &req); err != nil {
			logger.Debug("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Fail(string(entity.AbortInvalidInput), fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		conf, err := handler.PlaceOrder(r.Context(), user.Id, &req)
		if err != nil {
			var pe *entity.PlacementError
			if !errors.As(err, &pe) {
				logger.Error("place order", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("Please retry"))
				return
			}
			render.Status(r, StatusOf(pe.Kind))
			render.JSON(w, r, response.Fail(pe.Code(), pe.Message()))
			return
		}

		render.JSON(w, r, response.Ok(conf))
	}
}

// StatusOf maps an abort kind to its HTTP status
func StatusOf(kind entity.AbortKind) int {
	switch kind {
	case entity.AbortInvalidInput, entity.AbortUnauthorized, entity.AbortOutOfStock:
		return http.StatusBadRequest
	case entity.AbortConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
