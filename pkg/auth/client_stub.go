package auth

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

type stubAccount struct {
	user     types.User
	password string
}

// ClientStub is an in-memory auth server. Its errors are shaped like the ones GoTrue returns.
type ClientStub struct {
	mu       sync.Mutex
	accounts map[string]*stubAccount
	access   map[string]string
	refresh  map[string]string
	issued   int
	// AutoConfirm makes Signup return a session as well as the user.
	AutoConfirm bool
	Recovered   []string
	LoggedOut   []string
}

func NewClientStub() *ClientStub {
	return &ClientStub{
		accounts: make(map[string]*stubAccount),
		access:   make(map[string]string),
		refresh:  make(map[string]string),
	}
}

// AddUser registers an account that can sign in with password.
func (c *ClientStub) AddUser(id uuid.UUID, email string, password string, fullName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[email] = &stubAccount{
		user: types.User{
			ID:           id,
			Email:        email,
			UserMetadata: map[string]interface{}{"full_name": fullName},
		},
		password: password,
	}
}

// IssueToken returns a valid access token for email without going through sign in.
func (c *ClientStub) IssueToken(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.newSessionLocked(email).AccessToken
}

func (c *ClientStub) Token(req types.TokenRequest) (*types.TokenResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch req.GrantType {
	case "password":
		account, ok := c.accounts[req.Email]
		if !ok || account.password != req.Password {
			return nil, fmt.Errorf("response status code 400: %s",
				`{"error":"invalid_grant","error_description":"Invalid login credentials"}`)
		}
		return &types.TokenResponse{Session: c.newSessionLocked(req.Email)}, nil
	case "refresh_token":
		email, ok := c.refresh[req.RefreshToken]
		if !ok {
			return nil, fmt.Errorf("response status code 400: %s",
				`{"error":"invalid_grant","error_description":"Invalid Refresh Token: Refresh Token Not Found"}`)
		}
		delete(c.refresh, req.RefreshToken)
		return &types.TokenResponse{Session: c.newSessionLocked(email)}, nil
	default:
		return nil, fmt.Errorf("response status code 400: unsupported grant type %q", req.GrantType)
	}
}

func (c *ClientStub) Signup(req types.SignupRequest) (*types.SignupResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.accounts[req.Email]; ok {
		return nil, fmt.Errorf("response status code 422: %s", `{"msg":"User already registered"}`)
	}
	account := &stubAccount{
		user: types.User{
			ID:           uuid.New(),
			Email:        req.Email,
			UserMetadata: req.Data,
		},
		password: req.Password,
	}
	c.accounts[req.Email] = account

	response := &types.SignupResponse{User: account.user}
	if c.AutoConfirm {
		response.Session = c.newSessionLocked(req.Email)
	}
	return response, nil
}

func (c *ClientStub) Recover(req types.RecoverRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Recovered = append(c.Recovered, req.Email)
	return nil
}

func (c *ClientStub) GetUser(accessToken string) (*types.UserResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	email, ok := c.access[accessToken]
	if !ok {
		return nil, fmt.Errorf("response status code 401: %s", `{"msg":"invalid JWT: unable to parse or verify signature"}`)
	}
	return &types.UserResponse{User: c.accounts[email].user}, nil
}

func (c *ClientStub) Logout(accessToken string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.access[accessToken]; !ok {
		return fmt.Errorf("response status code 401: %s", `{"msg":"invalid JWT"}`)
	}
	delete(c.access, accessToken)
	c.LoggedOut = append(c.LoggedOut, accessToken)
	return nil
}

// Expire invalidates an access token, as if it had run out.
func (c *ClientStub) Expire(accessToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.access, accessToken)
}

func (c *ClientStub) newSessionLocked(email string) types.Session {
	c.issued++
	access := fmt.Sprintf("access-%d", c.issued)
	refresh := fmt.Sprintf("refresh-%d", c.issued)
	c.access[access] = email
	c.refresh[refresh] = email
	return types.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    3600,
		User:         c.accounts[email].user,
	}
}
