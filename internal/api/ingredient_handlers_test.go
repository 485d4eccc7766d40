package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListIngredients_PrefixFilter(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.seedIngredient(t, "ing-1", "flour", "g")
	ts.seedIngredient(t, "ing-2", "flaxseed", "g")
	ts.seedIngredient(t, "ing-3", "sugar", "g")

	resp := ts.api.Get("/api/v1/ingredients?name=fl")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[ListIngredientsResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Ingredients, 2)
	assert.Equal(t, "flaxseed", envelope.Data.Ingredients[0].Name)
	assert.Equal(t, "flour", envelope.Data.Ingredients[1].Name)

	resp = ts.api.Get("/api/v1/ingredients")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data.Ingredients, 3)
}

func TestGetIngredient(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	ts.seedIngredient(t, "ing-1", "flour", "g")

	resp := ts.api.Get("/api/v1/ingredients/ing-1")
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[IngredientResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "flour", envelope.Data.Name)
	assert.Equal(t, "g", envelope.Data.MeasurementUnit)

	resp = ts.api.Get("/api/v1/ingredients/ing-missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
