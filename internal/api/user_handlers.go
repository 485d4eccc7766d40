package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ladleapp/ladle-server/internal/domain"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/api/v1/users",
		Summary:     "List users",
		Description: "Returns a paginated list of users",
		Tags:        []string{"Users"},
	}, s.handleListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/me",
		Summary:     "Get current user",
		Description: "Returns the authenticated user's profile",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSubscriptions",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/subscriptions",
		Summary:     "List subscriptions",
		Description: "Returns the users the current user follows, each with a short preview of their latest recipes",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSubscriptions)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}",
		Summary:     "Get user",
		Description: "Returns a user profile by ID",
		Tags:        []string{"Users"},
	}, s.handleGetUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "subscribe",
		Method:      http.MethodPost,
		Path:        "/api/v1/users/{id}/subscribe",
		Summary:     "Subscribe to user",
		Description: "Follows the given user",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSubscribe)

	huma.Register(s.api, huma.Operation{
		OperationID: "unsubscribe",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/{id}/subscribe",
		Summary:     "Unsubscribe from user",
		Description: "Unfollows the given user",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnsubscribe)
}

// === DTOs ===

// ListUsersInput contains parameters for listing users.
type ListUsersInput struct {
	Limit  int `query:"limit" minimum:"0" maximum:"100" doc:"Page size"`
	Offset int `query:"offset" minimum:"0" doc:"Page offset"`
}

// ListUsersResponse contains a page of users.
type ListUsersResponse struct {
	Users []UserResponse `json:"users" doc:"Users on this page"`
	Total int            `json:"total" doc:"Total number of users"`
}

// ListUsersOutput wraps the list users response for Huma.
type ListUsersOutput struct {
	Body ListUsersResponse
}

// GetUserInput contains parameters for getting a user.
type GetUserInput struct {
	ID string `path:"id" doc:"User ID"`
}

// SubscribeInput contains parameters for subscribing to a user.
type SubscribeInput struct {
	ID string `path:"id" doc:"User ID to follow"`
}

// ListSubscriptionsInput contains parameters for listing subscriptions.
type ListSubscriptionsInput struct {
	Limit  int `query:"limit" minimum:"0" maximum:"100" doc:"Page size"`
	Offset int `query:"offset" minimum:"0" doc:"Page offset"`
}

// RecipeSummaryResponse is a short recipe representation used in previews.
type RecipeSummaryResponse struct {
	ID          string `json:"id" doc:"Recipe ID"`
	Name        string `json:"name" doc:"Recipe name"`
	Image       string `json:"image" doc:"Image URL"`
	CookingTime int    `json:"cooking_time" doc:"Cooking time in minutes"`
}

// SubscriptionResponse contains a followed user with a recipe preview.
type SubscriptionResponse struct {
	User    UserResponse            `json:"user" doc:"Followed user"`
	Recipes []RecipeSummaryResponse `json:"recipes" doc:"Latest recipes by this user"`
}

// ListSubscriptionsResponse contains a page of subscriptions.
type ListSubscriptionsResponse struct {
	Subscriptions []SubscriptionResponse `json:"subscriptions" doc:"Followed users"`
}

// ListSubscriptionsOutput wraps the subscriptions response for Huma.
type ListSubscriptionsOutput struct {
	Body ListSubscriptionsResponse
}

// === Handlers ===

func (s *Server) handleListUsers(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error) {
	page, err := s.services.User.ListUsers(ctx, viewerID(ctx), input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	users := make([]UserResponse, len(page.Users))
	for i, u := range page.Users {
		users[i] = mapUserResponse(u)
	}

	return &ListUsersOutput{Body: ListUsersResponse{Users: users, Total: page.Total}}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, input *struct{}) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.User.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleGetUser(ctx context.Context, input *GetUserInput) (*UserOutput, error) {
	user, err := s.services.User.GetUser(ctx, input.ID, viewerID(ctx))
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleSubscribe(ctx context.Context, input *SubscribeInput) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	target, err := s.services.Social.Subscribe(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &UserOutput{Body: mapUserResponse(target)}, nil
}

func (s *Server) handleUnsubscribe(ctx context.Context, input *SubscribeInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Social.Unsubscribe(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Unsubscribed"}}, nil
}

func (s *Server) handleListSubscriptions(ctx context.Context, input *ListSubscriptionsInput) (*ListSubscriptionsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.services.Social.Subscriptions(ctx, userID, input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	resp := make([]SubscriptionResponse, len(entries))
	for i, entry := range entries {
		resp[i] = SubscriptionResponse{
			User:    mapUserResponse(entry.User),
			Recipes: mapRecipeSummaries(entry.Recipes),
		}
	}

	return &ListSubscriptionsOutput{Body: ListSubscriptionsResponse{Subscriptions: resp}}, nil
}

func mapRecipeSummaries(recipes []*domain.Recipe) []RecipeSummaryResponse {
	out := make([]RecipeSummaryResponse, len(recipes))
	for i, r := range recipes {
		out[i] = RecipeSummaryResponse{
			ID:          r.ID,
			Name:        r.Name,
			Image:       imageURL(r.Image),
			CookingTime: r.CookingTime,
		}
	}
	return out
}
