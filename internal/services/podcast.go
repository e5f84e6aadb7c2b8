// Podcast service operations
//
// Each method sends one GraphQL document through the [Gateway] and maps the reply onto the models package.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/dailycast/internal/models"
	"github.com/desertthunder/dailycast/internal/shared"
)

const (
	loginMutation = `mutation Login($email: String!, $password: String!) {
  login(email: $email, password: $password)
}`
	signupMutation = `mutation Signup($email: String!, $password: String!) {
  signup(email: $email, password: $password)
}`
	meQuery = `query Me {
  me {
    id
    email
    preferences {
      country
      topic
    }
  }
}`
	updatePreferencesMutation = `mutation UpdatePreferences($country: String!, $topic: String!) {
  updatePreferences(country: $country, topic: $topic) {
    country
    topic
  }
}`
	podcastQuery = `query GetPodcast($date: String) {
  podcast(date: $date) {
    date
    url
  }
}`
)

// Executor runs a single [Operation]. [*Gateway] is the production implementation.
type Executor interface {
	Execute(ctx context.Context, op Operation, out any) error
}

// PodcastService is the typed client for the podcast API.
type PodcastService struct {
	exec Executor
}

// NewPodcastService creates a new service sending operations through exec.
func NewPodcastService(exec Executor) *PodcastService {
	return &PodcastService{exec: exec}
}

// Login exchanges credentials for a session token.
func (s *PodcastService) Login(ctx context.Context, email, password string) (string, error) {
	return s.credentials(ctx, "Login", loginMutation, "login", email, password)
}

// Signup creates an account and returns its first session token.
func (s *PodcastService) Signup(ctx context.Context, email, password string) (string, error) {
	return s.credentials(ctx, "Signup", signupMutation, "signup", email, password)
}

func (s *PodcastService) credentials(ctx context.Context, name, query, field, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", fmt.Errorf("%w: email and password are required", shared.ErrMissingArgument)
	}

	var data map[string]*string
	op := Operation{
		Name:      name,
		Query:     query,
		Variables: map[string]any{"email": email, "password": password},
		Anonymous: true,
	}
	if err := s.exec.Execute(ctx, op, &data); err != nil {
		return "", err
	}

	token := data[field]
	if token == nil || *token == "" {
		return "", transportError(name, 0, fmt.Errorf("%s returned no token", field))
	}
	return *token, nil
}

// Me fetches the authenticated user's identity and stored preferences.
func (s *PodcastService) Me(ctx context.Context) (*models.UserProfile, error) {
	var data struct {
		Me *models.UserProfile `json:"me"`
	}
	if err := s.exec.Execute(ctx, Operation{Name: "Me", Query: meQuery}, &data); err != nil {
		return nil, err
	}
	if data.Me == nil {
		return nil, transportError("Me", 0, fmt.Errorf("me returned no user"))
	}
	return data.Me, nil
}

// UpdatePreferences stores prefs on the server and returns the value it acknowledged.
func (s *PodcastService) UpdatePreferences(ctx context.Context, prefs models.Preferences) (models.Preferences, error) {
	var data struct {
		UpdatePreferences *models.Preferences `json:"updatePreferences"`
	}
	op := Operation{
		Name:      "UpdatePreferences",
		Query:     updatePreferencesMutation,
		Variables: map[string]any{"country": string(prefs.Country), "topic": string(prefs.Topic)},
	}
	if err := s.exec.Execute(ctx, op, &data); err != nil {
		return models.Preferences{}, err
	}
	if data.UpdatePreferences == nil {
		return models.Preferences{}, transportError(op.Name, 0, fmt.Errorf("updatePreferences returned nothing"))
	}
	return *data.UpdatePreferences, nil
}

// Podcast fetches the episode generated for date (YYYY-MM-DD). An empty date lets the server pick today.
//
// A nil result with a nil error means nothing has been generated yet.
func (s *PodcastService) Podcast(ctx context.Context, date string) (*models.PodcastResult, error) {
	var data struct {
		Podcast *models.PodcastResult `json:"podcast"`
	}

	vars := map[string]any{}
	if date != "" {
		vars["date"] = date
	}

	if err := s.exec.Execute(ctx, Operation{Name: "GetPodcast", Query: podcastQuery, Variables: vars}, &data); err != nil {
		return nil, err
	}
	return data.Podcast, nil
}
