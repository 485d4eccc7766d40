package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ladleapp/ladle-server/internal/domain"
	"github.com/ladleapp/ladle-server/internal/service"
)

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes",
		Summary:     "List recipes",
		Description: "Returns recipes newest first, filtered by author, tags, name prefix, favorites, or shopping cart",
		Tags:        []string{"Recipes"},
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID: "createRecipe",
		Method:      http.MethodPost,
		Path:        "/api/v1/recipes",
		Summary:     "Create recipe",
		Description: "Creates a new recipe authored by the current user",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "downloadShoppingList",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/download_shopping_cart",
		Summary:     "Download shopping list",
		Description: "Returns the consolidated shopping list for the current user's cart as plain text",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDownloadShoppingList)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Get recipe",
		Description: "Returns a recipe by ID",
		Tags:        []string{"Recipes"},
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecipe",
		Method:      http.MethodPatch,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Update recipe",
		Description: "Replaces a recipe's fields. Only the author or an admin may update a recipe.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteRecipe",
		Method:      http.MethodDelete,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Delete recipe",
		Description: "Deletes a recipe. Only the author or an admin may delete a recipe.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "favoriteRecipe",
		Method:      http.MethodPost,
		Path:        "/api/v1/recipes/{id}/favorite",
		Summary:     "Favorite recipe",
		Description: "Adds the recipe to the current user's favorites",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFavoriteRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "unfavoriteRecipe",
		Method:      http.MethodDelete,
		Path:        "/api/v1/recipes/{id}/favorite",
		Summary:     "Unfavorite recipe",
		Description: "Removes the recipe from the current user's favorites",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnfavoriteRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "addToShoppingCart",
		Method:      http.MethodPost,
		Path:        "/api/v1/recipes/{id}/shopping_cart",
		Summary:     "Add recipe to cart",
		Description: "Adds the recipe to the current user's shopping cart",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddToShoppingCart)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFromShoppingCart",
		Method:      http.MethodDelete,
		Path:        "/api/v1/recipes/{id}/shopping_cart",
		Summary:     "Remove recipe from cart",
		Description: "Removes the recipe from the current user's shopping cart",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveFromShoppingCart)
}

// === DTOs ===

// ListRecipesInput contains filter and pagination parameters for listing recipes.
type ListRecipesInput struct {
	Author    string   `query:"author" doc:"Filter by author user ID"`
	TagSlugs  []string `query:"tags" doc:"Filter by tag slugs (recipes matching any listed tag)"`
	Name      string   `query:"name" doc:"Name prefix filter (case-insensitive)"`
	Favorited bool     `query:"is_favorited" doc:"Only recipes the current user has favorited"`
	InCart    bool     `query:"is_in_shopping_cart" doc:"Only recipes in the current user's shopping cart"`
	Limit     int      `query:"limit" minimum:"0" maximum:"100" doc:"Page size"`
	Offset    int      `query:"offset" minimum:"0" doc:"Page offset"`
}

// RecipeIngredientResponse is one quantified ingredient line of a recipe.
type RecipeIngredientResponse struct {
	IngredientID    string `json:"ingredient_id" doc:"Dictionary ingredient ID"`
	Name            string `json:"name" doc:"Ingredient name"`
	MeasurementUnit string `json:"measurement_unit" doc:"Measurement unit"`
	Amount          int    `json:"amount" doc:"Amount in measurement units"`
}

// RecipeResponse contains full recipe data in API responses.
type RecipeResponse struct {
	ID               string                     `json:"id" doc:"Recipe ID"`
	Author           UserResponse               `json:"author" doc:"Recipe author"`
	Name             string                     `json:"name" doc:"Recipe name"`
	Text             string                     `json:"text" doc:"Recipe description"`
	Image            string                     `json:"image" doc:"Image URL"`
	CookingTime      int                        `json:"cooking_time" doc:"Cooking time in minutes"`
	Tags             []TagResponse              `json:"tags" doc:"Recipe tags"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients" doc:"Quantified ingredient lines"`
	IsFavorited      bool                       `json:"is_favorited" doc:"Whether the current user favorited this recipe"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart" doc:"Whether the recipe is in the current user's cart"`
	CreatedAt        time.Time                  `json:"created_at" doc:"Creation time"`
	UpdatedAt        time.Time                  `json:"updated_at" doc:"Last update time"`
}

// RecipeOutput wraps the recipe response for Huma.
type RecipeOutput struct {
	Body RecipeResponse
}

// ListRecipesResponse contains a page of recipes.
type ListRecipesResponse struct {
	Recipes []RecipeResponse `json:"recipes" doc:"Recipes on this page"`
	Total   int              `json:"total" doc:"Total number of matching recipes"`
}

// ListRecipesOutput wraps the list recipes response for Huma.
type ListRecipesOutput struct {
	Body ListRecipesResponse
}

// IngredientAmountRequest is one ingredient line in a recipe write request.
type IngredientAmountRequest struct {
	IngredientID string `json:"ingredient_id" validate:"required" doc:"Dictionary ingredient ID"`
	Amount       int    `json:"amount" validate:"required" doc:"Amount in measurement units"`
}

// CreateRecipeRequest is the request body for creating a recipe.
type CreateRecipeRequest struct {
	Name        string                    `json:"name" validate:"required,min=1,max=200" doc:"Recipe name"`
	Text        string                    `json:"text" validate:"required" doc:"Recipe description"`
	Image       string                    `json:"image" validate:"required" doc:"Base64 data URI of the recipe image"`
	CookingTime int                       `json:"cooking_time" validate:"required" doc:"Cooking time in minutes"`
	TagIDs      []string                  `json:"tag_ids" validate:"required,min=1" doc:"Tag IDs"`
	Ingredients []IngredientAmountRequest `json:"ingredients" validate:"required,min=1" doc:"Quantified ingredient lines"`
}

// CreateRecipeInput wraps the create recipe request for Huma.
type CreateRecipeInput struct {
	Body CreateRecipeRequest
}

// UpdateRecipeRequest is the request body for updating a recipe.
type UpdateRecipeRequest struct {
	Name        string                    `json:"name" validate:"required,min=1,max=200" doc:"Recipe name"`
	Text        string                    `json:"text" validate:"required" doc:"Recipe description"`
	Image       string                    `json:"image,omitempty" doc:"Base64 data URI of a new image; omit to keep the current one"`
	CookingTime int                       `json:"cooking_time" validate:"required" doc:"Cooking time in minutes"`
	TagIDs      []string                  `json:"tag_ids" validate:"required,min=1" doc:"Tag IDs"`
	Ingredients []IngredientAmountRequest `json:"ingredients" validate:"required,min=1" doc:"Quantified ingredient lines"`
}

// UpdateRecipeInput wraps the update recipe request for Huma.
type UpdateRecipeInput struct {
	ID   string `path:"id" doc:"Recipe ID"`
	Body UpdateRecipeRequest
}

// RecipeIDInput contains a recipe ID path parameter.
type RecipeIDInput struct {
	ID string `path:"id" doc:"Recipe ID"`
}

// ShoppingListDownloadOutput is a plain text file attachment.
type ShoppingListDownloadOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*ListRecipesOutput, error) {
	page, err := s.services.Recipe.List(ctx, viewerID(ctx), domain.RecipeFilter{
		AuthorID:   input.Author,
		TagSlugs:   input.TagSlugs,
		NamePrefix: input.Name,
		Favorited:  input.Favorited,
		InCart:     input.InCart,
		Limit:      input.Limit,
		Offset:     input.Offset,
	})
	if err != nil {
		return nil, err
	}

	recipes := make([]RecipeResponse, len(page.Recipes))
	for i, r := range page.Recipes {
		recipes[i] = mapRecipeResponse(r)
	}

	return &ListRecipesOutput{Body: ListRecipesResponse{Recipes: recipes, Total: page.Total}}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Create(ctx, userID, service.CreateRecipeRequest{
		Name:        input.Body.Name,
		Text:        input.Body.Text,
		Image:       input.Body.Image,
		CookingTime: input.Body.CookingTime,
		TagIDs:      input.Body.TagIDs,
		Ingredients: mapIngredientAmounts(input.Body.Ingredients),
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *RecipeIDInput) (*RecipeOutput, error) {
	recipe, err := s.services.Recipe.Get(ctx, input.ID, viewerID(ctx))
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleUpdateRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	actor, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.Update(ctx, actor, input.ID, service.UpdateRecipeRequest{
		Name:        input.Body.Name,
		Text:        input.Body.Text,
		Image:       input.Body.Image,
		CookingTime: input.Body.CookingTime,
		TagIDs:      input.Body.TagIDs,
		Ingredients: mapIngredientAmounts(input.Body.Ingredients),
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *RecipeIDInput) (*MessageOutput, error) {
	actor, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Recipe.Delete(ctx, actor, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Recipe deleted"}}, nil
}

func (s *Server) handleFavoriteRecipe(ctx context.Context, input *RecipeIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Social.Favorite(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Recipe added to favorites"}}, nil
}

func (s *Server) handleUnfavoriteRecipe(ctx context.Context, input *RecipeIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Social.Unfavorite(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Recipe removed from favorites"}}, nil
}

func (s *Server) handleAddToShoppingCart(ctx context.Context, input *RecipeIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Social.AddToCart(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Recipe added to shopping cart"}}, nil
}

func (s *Server) handleRemoveFromShoppingCart(ctx context.Context, input *RecipeIDInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Social.RemoveFromCart(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Recipe removed from shopping cart"}}, nil
}

func (s *Server) handleDownloadShoppingList(ctx context.Context, input *struct{}) (*ShoppingListDownloadOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	text, err := s.services.ShoppingList.RenderText(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ShoppingListDownloadOutput{
		ContentType:        "text/plain; charset=utf-8",
		ContentDisposition: `attachment; filename="shopping-list.txt"`,
		Body:               []byte(text),
	}, nil
}

// === Helpers ===

func mapIngredientAmounts(lines []IngredientAmountRequest) []service.IngredientAmount {
	out := make([]service.IngredientAmount, len(lines))
	for i, line := range lines {
		out[i] = service.IngredientAmount{
			IngredientID: line.IngredientID,
			Amount:       line.Amount,
		}
	}
	return out
}

func mapRecipeResponse(r *domain.Recipe) RecipeResponse {
	tags := make([]TagResponse, len(r.Tags))
	for i := range r.Tags {
		tags[i] = mapTagResponse(&r.Tags[i])
	}

	ingredients := make([]RecipeIngredientResponse, len(r.Ingredients))
	for i, line := range r.Ingredients {
		ingredients[i] = RecipeIngredientResponse{
			IngredientID:    line.IngredientID,
			Name:            line.Name,
			MeasurementUnit: line.MeasurementUnit,
			Amount:          line.Amount,
		}
	}

	resp := RecipeResponse{
		ID:               r.ID,
		Name:             r.Name,
		Text:             r.Text,
		Image:            imageURL(r.Image),
		CookingTime:      r.CookingTime,
		Tags:             tags,
		Ingredients:      ingredients,
		IsFavorited:      r.IsFavorited,
		IsInShoppingCart: r.IsInCart,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.Author != nil {
		resp.Author = mapUserResponse(r.Author)
	}
	return resp
}

// imageURL converts a stored image filename to its public URL path.
func imageURL(filename string) string {
	if filename == "" {
		return ""
	}
	return "/media/recipes/" + filename
}
