package inventory

import (
	"context"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"swagportal/entity"
	"swagportal/lib/api/response"
	"swagportal/lib/sl"
)

type Core interface {
	Inventory(ctx context.Context) (*entity.Inventory, error)
}

func Get(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.inventory")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		inv, err := handler.Inventory(r.Context())
		if err != nil {
			logger.Error("get inventory", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Inventory not available"))
			return
		}

		render.JSON(w, r, response.Ok(inv))
	}
}
