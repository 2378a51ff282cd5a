package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/rallypoint/rallypoint/pkg/backend"
	"github.com/rallypoint/rallypoint/pkg/profile"
	"github.com/rallypoint/rallypoint/pkg/user"
	log "github.com/sirupsen/logrus"
	"github.com/supabase-community/gotrue-go/types"
)

// Session is a pair of tokens issued by the auth server.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func (s Session) IsZero() bool {
	return s.AccessToken == ""
}

type Registration struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// FullName joins the trimmed first and last name.
func (r Registration) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}

// ProfileCreator stores the profile of a newly registered user.
type ProfileCreator interface {
	CreateProfile(ctx context.Context, p profile.Profile) (profile.Profile, error)
}

type Service interface {
	SignIn(ctx context.Context, email string, password string) (Session, user.User, error)
	SignUp(ctx context.Context, registration Registration) (Session, user.User, error)
	RecoverPassword(ctx context.Context, email string) error
	SignOut(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (Session, user.User, error)
	UserFromToken(ctx context.Context, accessToken string) (user.User, error)
}

type ServiceImpl struct {
	client   Client
	profiles ProfileCreator
}

func NewService(client Client, profiles ProfileCreator) *ServiceImpl {
	return &ServiceImpl{client: client, profiles: profiles}
}

func (s *ServiceImpl) SignIn(ctx context.Context, email string, password string) (Session, user.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, user.User{}, backend.NewFailure(backend.KindValidation, "Email and password are required")
	}
	response, err := s.client.Token(types.TokenRequest{
		GrantType: "password",
		Email:     email,
		Password:  password,
	})
	if err != nil {
		log.Debugf("sign in failed for %s: %v", email, err)
		return Session{}, user.User{}, authFailure(err, backend.KindUnauthenticated, "Invalid email or password")
	}
	return sessionOf(response.Session), userOf(response.User), nil
}

func (s *ServiceImpl) SignUp(ctx context.Context, registration Registration) (Session, user.User, error) {
	email := strings.TrimSpace(registration.Email)
	switch {
	case email == "":
		return Session{}, user.User{}, backend.NewFailure(backend.KindValidation, "Email is required")
	case registration.Password == "":
		return Session{}, user.User{}, backend.NewFailure(backend.KindValidation, "Password is required")
	case registration.Password != registration.ConfirmPassword:
		return Session{}, user.User{}, backend.NewFailure(backend.KindValidation, "Passwords do not match")
	}

	fullName := registration.FullName()
	response, err := s.client.Signup(types.SignupRequest{
		Email:    email,
		Password: registration.Password,
		Data:     map[string]interface{}{"full_name": fullName},
	})
	if err != nil {
		log.Debugf("sign up failed for %s: %v", email, err)
		return Session{}, user.User{}, authFailure(err, backend.KindUnknown, "Registration failed")
	}

	registered := userOf(response.User)
	_, err = s.profiles.CreateProfile(ctx, profile.Profile{Id: registered.Id, FullName: fullName})
	if err != nil {
		if failure := backend.Classify(err); failure.Kind != backend.KindConflict {
			return Session{}, user.User{}, fmt.Errorf("failed to create profile for %s: %w", registered.Id, err)
		}
		log.Debugf("profile for %s already exists", registered.Id)
	}
	return sessionOf(response.Session), registered, nil
}

func (s *ServiceImpl) RecoverPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return backend.NewFailure(backend.KindValidation, "Email is required")
	}
	if err := s.client.Recover(types.RecoverRequest{Email: email}); err != nil {
		return authFailure(err, backend.KindUnknown, "Could not send password reset email")
	}
	return nil
}

func (s *ServiceImpl) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := s.client.Logout(accessToken); err != nil {
		return authFailure(err, backend.KindUnauthenticated, "Sign out failed")
	}
	return nil
}

func (s *ServiceImpl) Refresh(ctx context.Context, refreshToken string) (Session, user.User, error) {
	if refreshToken == "" {
		return Session{}, user.User{}, user.ErrNoUser
	}
	response, err := s.client.Token(types.TokenRequest{
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
	})
	if err != nil {
		return Session{}, user.User{}, authFailure(err, backend.KindUnauthenticated, "Session expired. Please sign in again.")
	}
	return sessionOf(response.Session), userOf(response.User), nil
}

func (s *ServiceImpl) UserFromToken(ctx context.Context, accessToken string) (user.User, error) {
	if accessToken == "" {
		return user.User{}, user.ErrNoUser
	}
	response, err := s.client.GetUser(accessToken)
	if err != nil {
		return user.User{}, authFailure(err, backend.KindUnauthenticated, "Session expired. Please sign in again.")
	}
	return userOf(response.User), nil
}

// authFailure classifies an auth server error. Unrecognised errors become a failure of the
// given kind with a fixed message, so raw server responses never reach the user.
func authFailure(err error, kind backend.Kind, fallback string) *backend.Failure {
	failure := backend.Classify(err)
	if failure.Kind == backend.KindUnknown {
		return &backend.Failure{Kind: kind, Message: fallback, Code: "AUTH_ERROR"}
	}
	return failure
}

func sessionOf(s types.Session) Session {
	return Session{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken, ExpiresIn: s.ExpiresIn}
}

func userOf(u types.User) user.User {
	fullName, _ := u.UserMetadata["full_name"].(string)
	return user.User{Id: u.ID, Email: u.Email, FullName: fullName}
}
