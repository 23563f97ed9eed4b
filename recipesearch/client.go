// Package recipesearch looks up recipes and packaged foods in an external
// recipe API and adapts the results into recipe.Recipe values.
package recipesearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const defaultLimit = 10

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient doer
}

func NewClient(baseURL, apiKey string, httpClient doer) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("base URL is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}, nil
}

// RecipeSummary is one search hit. The counts say how many of the searched
// ingredients the recipe uses and how many more it needs.
type RecipeSummary struct {
	ID                    int    `json:"id"`
	Title                 string `json:"title"`
	Image                 string `json:"image,omitempty"`
	UsedIngredientCount   int    `json:"usedIngredientCount"`
	MissedIngredientCount int    `json:"missedIngredientCount"`
}

type RecipeDetails struct {
	ID                   int                   `json:"id"`
	Title                string                `json:"title"`
	Summary              string                `json:"summary"`
	ReadyInMinutes       int                   `json:"readyInMinutes"`
	PreparationMinutes   int                   `json:"preparationMinutes"`
	CookingMinutes       int                   `json:"cookingMinutes"`
	Servings             int                   `json:"servings"`
	DishTypes            []string              `json:"dishTypes"`
	Cuisines             []string              `json:"cuisines"`
	Diets                []string              `json:"diets"`
	ExtendedIngredients  []DetailIngredient    `json:"extendedIngredients"`
	AnalyzedInstructions []AnalyzedInstruction `json:"analyzedInstructions"`
}

type DetailIngredient struct {
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
	Original string  `json:"original,omitempty"`
}

type AnalyzedInstruction struct {
	Name  string `json:"name"`
	Steps []Step `json:"steps"`
}

type Step struct {
	Number      int         `json:"number"`
	Step        string      `json:"step"`
	Ingredients []NamedItem `json:"ingredients"`
	Equipment   []NamedItem `json:"equipment"`
	Length      *Length     `json:"length,omitempty"`
}

type NamedItem struct {
	Name string `json:"name"`
}

type Length struct {
	Number int    `json:"number"`
	Unit   string `json:"unit"`
}

// FoodSummary is a packaged product found by barcode.
type FoodSummary struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Brand     string    `json:"brand,omitempty"`
	UPC       string    `json:"upc,omitempty"`
	Servings  *Serving  `json:"servings,omitempty"`
	Nutrition Nutrition `json:"nutrition"`
}

type Serving struct {
	Number float64 `json:"number"`
	Size   float64 `json:"size"`
	Unit   string  `json:"unit"`
}

type Nutrition struct {
	Nutrients []Nutrient `json:"nutrients"`
}

type Nutrient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// SearchByIngredients finds recipes that use the given ingredient names.
// A limit of zero or less means the default of 10.
func (c *Client) SearchByIngredients(ctx context.Context, names []string, limit int) ([]RecipeSummary, error) {
	var cleaned []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}
	if len(cleaned) == 0 {
		return nil, errors.New("at least one ingredient name is required")
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	q := url.Values{}
	q.Set("ingredients", strings.Join(cleaned, ","))
	q.Set("number", strconv.Itoa(limit))
	q.Set("ranking", "1")

	var out []RecipeSummary
	if _, err := c.get(ctx, "/recipes/findByIngredients", q, &out); err != nil {
		return nil, err
	}
	slog.Info("RECIPE_SEARCH: Search by ingredients", "ingredients", len(cleaned), "results", len(out))
	return out, nil
}

func (c *Client) GetDetails(ctx context.Context, id int) (RecipeDetails, error) {
	var out RecipeDetails
	status, err := c.get(ctx, fmt.Sprintf("/recipes/%d/information", id), nil, &out)
	if status == http.StatusNotFound {
		return RecipeDetails{}, fmt.Errorf("recipe %d not found", id)
	}
	if err != nil {
		return RecipeDetails{}, err
	}
	return out, nil
}

// SearchByBarcode returns nil without an error when the code is unknown.
func (c *Client) SearchByBarcode(ctx context.Context, code string) (*FoodSummary, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("barcode is required")
	}

	var out FoodSummary
	status, err := c.get(ctx, "/food/products/upc/"+url.PathEscape(code), nil, &out)
	if status == http.StatusNotFound {
		slog.Info("RECIPE_SEARCH: Barcode not found", "code", code)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// get decodes a JSON response into dst and returns the HTTP status, which
// is 0 when the request never got a response.
func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) (int, error) {
	if q == nil {
		q = url.Values{}
	}
	if c.apiKey != "" {
		q.Set("apiKey", c.apiKey)
	}

	u := c.baseURL + path
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("RECIPE_SEARCH: Request failed", "path", path, "error", err)
		return 0, fmt.Errorf("failed to call recipe API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("RECIPE_SEARCH: Unexpected status", "path", path, "status", resp.StatusCode)
		return resp.StatusCode, fmt.Errorf("recipe API returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode recipe API response: %w", err)
	}
	return resp.StatusCode, nil
}
