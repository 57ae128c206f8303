package catalog

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/uchsash/medistore/internal/roles"
	pkgerrors "github.com/uchsash/medistore/pkg/errors"
)

type SessionUser struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  roles.Role `json:"role"`
}

// Session is the caller's signed-in identity as reported by the auth service.
type Session struct {
	User SessionUser `json:"user"`
}

type rawSessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  any    `json:"role"`
}

// Session resolves the session carried by the context cookie. A null body
// means there is no session.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	raw, err := c.send(ctx, http.MethodGet, c.sessionURL, nil, "Session is missing")
	if err != nil {
		return nil, err
	}

	var body *struct {
		User *rawSessionUser `json:"user"`
		Role any             `json:"role"`
		Data *struct {
			User *rawSessionUser `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode session")
	}
	if body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Session is missing")
	}

	var user rawSessionUser
	var role any
	if body.User != nil {
		user = *body.User
		role = body.User.Role
	}
	if role == nil {
		role = body.Role
	}
	if body.Data != nil && body.Data.User != nil {
		if body.User == nil {
			user = *body.Data.User
		}
		if role == nil {
			role = body.Data.User.Role
		}
	}

	return &Session{User: SessionUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  roles.Normalize(role),
	}}, nil
}
