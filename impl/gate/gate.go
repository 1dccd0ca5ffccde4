package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"swagportal/entity"
	"swagportal/internal/database"
	"swagportal/lib/sl"
)

type Users interface {
	UserByID(ctx context.Context, id string) (*entity.User, error)
	UserByEmail(ctx context.Context, email string) (*entity.User, error)
}

// Gate decides whether a user may redeem. It never writes.
type Gate struct {
	users   Users
	domains []string
	emails  map[string]struct{}
	log     *slog.Logger
}

func New(users Users, domains, emails []string, log *slog.Logger) *Gate {
	g := &Gate{
		users:  users,
		emails: make(map[string]struct{}, len(emails)),
		log:    log.With(sl.Module("gate")),
	}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if !strings.HasPrefix(d, "@") {
			d = "@" + d
		}
		g.domains = append(g.domains, d)
	}
	for _, e := range emails {
		if e = entity.NormalizeEmail(e); e != "" {
			g.emails[e] = struct{}{}
		}
	}
	return g
}

// CheckEligibility returns database.ErrNotFound when the user does not exist
func (g *Gate) CheckEligibility(ctx context.Context, userId string) (entity.Eligibility, error) {
	user, err := g.users.UserByID(ctx, userId)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return entity.Ineligible(entity.ReasonUserNotFound), err
		}
		return entity.Eligibility{}, fmt.Errorf("load user: %w", err)
	}
	return entity.EligibilityOf(user), nil
}

// AllowedEmail reports whether the address is in the allow-list. An empty
// allow-list admits nobody.
func (g *Gate) AllowedEmail(email string) bool {
	email = entity.NormalizeEmail(email)
	if email == "" {
		return false
	}
	if _, ok := g.emails[email]; ok {
		return true
	}
	for _, d := range g.domains {
		if strings.HasSuffix(email, d) {
			return true
		}
	}
	return false
}

// CheckEmail is the login-time check: allow-list first, then the stored user
func (g *Gate) CheckEmail(ctx context.Context, email string) (entity.Eligibility, error) {
	if !g.AllowedEmail(email) {
		g.log.Debug("email not allowed", sl.Email(email))
		return entity.Ineligible(entity.ReasonNotAllowed), nil
	}
	user, err := g.users.UserByEmail(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return entity.Ineligible(entity.ReasonUserNotFound), nil
	}
	if err != nil {
		return entity.Eligibility{}, fmt.Errorf("load user by email: %w", err)
	}
	return entity.EligibilityOf(user), nil
}
