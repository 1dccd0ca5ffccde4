package access

import (
	"context"
	"fmt"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"swagportal/entity"
	"swagportal/lib/api/request"
	"swagportal/lib/api/response"
	"swagportal/lib/sl"
)

type Core interface {
	CheckEmail(ctx context.Context, email string) (entity.Eligibility, error)
}

// Check answers whether an email may sign in; the verdict itself is data,
// so an ineligible address is still a 200
func Check(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.access")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var check entity.EmailCheck
		if err := request.Bind(r, &check); err != nil {
			logger.Debug("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Fail(string(entity.AbortInvalidInput), fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(sl.Email(check.Email))

		eligibility, err := handler.CheckEmail(r.Context(), check.Email)
		if err != nil {
			logger.Error("check email", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Please retry"))
			return
		}
		logger.With(
			slog.Bool("authorized", eligibility.Eligible),
			slog.String("reason", string(eligibility.Reason)),
		).Debug("email checked")

		// the user record is for internal use only
		eligibility.User = nil
		render.JSON(w, r, response.Ok(eligibility))
	}
}
