package pantrychef

type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID,required"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=1024"`
	Temperature float32 `env:"TEMPERATURE,default=0.2"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type AgentConfig struct {
	ArtifactsPantryPath  string `env:"ARTIFACTS_PANTRY_PATH,default=artifacts/pantry.json"`
	ArtifactsRecipesPath string `env:"ARTIFACTS_RECIPES_PATH,default=artifacts/recipes.json"`
	BaseOllamaEndpoint   string `env:"BASE_OLLAMA_ENDPOINT,default=http://localhost:11434"`
	MaxIterations        int    `env:"MAX_ITERATIONS,default=5"`
	UserID               string `env:"USER_ID,default=local-user"`
	// SQLitePath switches the pantry from the JSON file to a sqlite database.
	SQLitePath      string `env:"SQLITE_PATH"`
	SlackWebhookURL string `env:"SLACK_WEBHOOK_URL"`
	SlackChannel    string `env:"SLACK_CHANNEL,default=#pantry"`
	DebugDump       bool   `env:"DEBUG_DUMP,default=false"`
}

type S3Config struct {
	Bucket     string `env:"ARTIFACTS_S3_BUCKET,required"`
	PantryKey  string `env:"ARTIFACTS_PANTRY_S3_KEY,default=pantry.json"`
	RecipesKey string `env:"ARTIFACTS_RECIPES_S3_KEY,default=recipes.json"`
}

type RecipeSearchConfig struct {
	BaseURL string `env:"RECIPE_API_BASE_URL,default=https://api.spoonacular.com"`
	APIKey  string `env:"RECIPE_API_KEY"`
}
