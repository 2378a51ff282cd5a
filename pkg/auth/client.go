package auth

import (
	"github.com/rallypoint/rallypoint/internal/config"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// Client is the part of the auth server the service talks to.
type Client interface {
	Token(req types.TokenRequest) (*types.TokenResponse, error)
	Signup(req types.SignupRequest) (*types.SignupResponse, error)
	Recover(req types.RecoverRequest) error
	GetUser(accessToken string) (*types.UserResponse, error)
	Logout(accessToken string) error
}

// GoTrueClient talks to a Supabase GoTrue server.
type GoTrueClient struct {
	client gotrue.Client
}

func NewGoTrueClient(cfg config.Supabase) *GoTrueClient {
	client := gotrue.New(cfg.ProjectRef, cfg.ApiKey)
	if cfg.Url != "" {
		client = client.WithCustomGoTrueURL(cfg.Url)
	}
	return &GoTrueClient{client: client}
}

func (c *GoTrueClient) Token(req types.TokenRequest) (*types.TokenResponse, error) {
	return c.client.Token(req)
}

func (c *GoTrueClient) Signup(req types.SignupRequest) (*types.SignupResponse, error) {
	return c.client.Signup(req)
}

func (c *GoTrueClient) Recover(req types.RecoverRequest) error {
	return c.client.Recover(req)
}

func (c *GoTrueClient) GetUser(accessToken string) (*types.UserResponse, error) {
	return c.client.WithToken(accessToken).GetUser()
}

func (c *GoTrueClient) Logout(accessToken string) error {
	return c.client.WithToken(accessToken).Logout()
}
