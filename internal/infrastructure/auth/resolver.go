package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/apperr"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// ErrNoCredentials is wrapped by a resolver that found nothing it understands in the request
var ErrNoCredentials = errors.New("no credentials supplied")

func noCredentials() error {
	return apperr.Wrap(apperr.KindUnauthenticated, ErrNoCredentials, "authentication required")
}

// JWTResolver authenticates bearer tokens against the users table
type JWTResolver struct {
	tokens *TokenService
	users  port.UserRepository
}

func NewJWTResolver(tokens *TokenService, users port.UserRepository) *JWTResolver {
	return &JWTResolver{tokens: tokens, users: users}
}

func (r *JWTResolver) ResolveActor(ctx context.Context) (entity.Actor, error) {
	raw := CredentialsFrom(ctx).BearerToken
	if raw == "" {
		return entity.Actor{}, noCredentials()
	}

	claims, err := r.tokens.Validate(raw)
	if err != nil {
		return entity.Actor{}, err
	}

	user, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return entity.Actor{}, fmt.Errorf("load token user %d: %w", claims.UserID, err)
	}
	// a role change since issue invalidates the token
	if user == nil || string(user.Role) != claims.Role {
		return entity.Actor{}, apperr.Unauthenticated("token subject is no longer valid")
	}
	return entity.ActorFromUser(user), nil
}

// DefaultDevUsers maps a role header to the seeded user that represents it
var DefaultDevUsers = map[entity.Role]int64{
	entity.RoleEmployee: 1,
	entity.RoleManager:  5,
	entity.RoleFinance:  7,
}

// DevHeaderResolver trusts X-Dev-User-Id / X-Dev-User-Role. For local use only.
type DevHeaderResolver struct {
	users port.UserRepository
}

func NewDevHeaderResolver(users port.UserRepository) *DevHeaderResolver {
	return &DevHeaderResolver{users: users}
}

func (r *DevHeaderResolver) ResolveActor(ctx context.Context) (entity.Actor, error) {
	creds := CredentialsFrom(ctx)

	var id int64
	switch {
	case creds.DevUserID != "":
		parsed, err := strconv.ParseInt(creds.DevUserID, 10, 64)
		if err != nil || parsed <= 0 {
			return entity.Actor{}, apperr.Unauthenticated("invalid dev user id %q", creds.DevUserID)
		}
		id = parsed
	case creds.DevRole != "":
		role := entity.Role(strings.ToUpper(strings.TrimSpace(creds.DevRole)))
		defaultID, ok := DefaultDevUsers[role]
		if !ok {
			return entity.Actor{}, apperr.Unauthenticated("unknown dev role %q", creds.DevRole)
		}
		id = defaultID
	default:
		return entity.Actor{}, noCredentials()
	}

	user, err := r.users.GetByID(ctx, id)
	if err != nil {
		return entity.Actor{}, fmt.Errorf("load dev user %d: %w", id, err)
	}
	if user == nil {
		return entity.Actor{}, apperr.Unauthenticated("unknown user %d", id)
	}
	return entity.ActorFromUser(user), nil
}

// ChainResolver tries each resolver in order until one recognizes the request
type ChainResolver []port.ActorResolver

func (c ChainResolver) ResolveActor(ctx context.Context) (entity.Actor, error) {
	for _, r := range c {
		actor, err := r.ResolveActor(ctx)
		if errors.Is(err, ErrNoCredentials) {
			continue
		}
		return actor, err
	}
	return entity.Actor{}, noCredentials()
}
