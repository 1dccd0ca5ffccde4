package invite

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"strings"
	"swagportal/entity"
	"swagportal/impl/core"
	"swagportal/lib/api/request"
	"swagportal/lib/api/response"
	"swagportal/lib/sl"
)

type Core interface {
	Invite(ctx context.Context, invite *entity.Invite) (*entity.User, error)
}

type created struct {
	UserId string `json:"user_id"`
}

// Create provisions a user from the invitation form webhook. The caller
// authenticates with the shared webhook secret as a bearer token.
func Create(log *slog.Logger, handler Core, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.invite")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if !authorized(r, secret) {
			logger.Warn("webhook secret mismatch")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		var inv entity.Invite
		if err := request.Bind(r, &inv); err != nil {
			logger.Debug("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Fail(string(entity.AbortInvalidInput), fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(sl.Email(inv.Email))

		user, err := handler.Invite(r.Context(), &inv)
		switch {
		case errors.Is(err, core.ErrNotAllowed):
			logger.Warn("invite rejected", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Fail(string(entity.ReasonNotAllowed), "Email domain not allowed"))
			return
		case errors.Is(err, core.ErrUserExists):
			logger.Info("user already invited")
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Fail("UserExists", "User already exists"))
			return
		case err != nil:
			logger.Error("invite user", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Please retry"))
			return
		}

		render.JSON(w, r, response.Ok(created{UserId: user.Id}))
	}
}

func authorized(r *http.Request, secret string) bool {
	if secret == "" {
		return false
	}
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(secret)) == 1
}
