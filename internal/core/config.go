package core

// AppConfig exposes runtime paths and transport toggles to services.
type AppConfig interface {
	GetRuntimePath() string
	GetDatabasePath() string
	GetHistoryDir() string
	IsTelegramSelected() bool
}

// ProviderConfig selects and configures the generation backend.
type ProviderConfig interface {
	GetModel() string
	GetProvider() string
	GetAnthropicAPIKey() string
	GetOpenAIAPIKey() string
	GetOpenRouterAPIKey() string
	GetOllamaAPIKey() string
	GetOllamaBaseURL() string
	GetCustomOpenAIBaseURL() string
	GetCustomOpenAIAPIKey() string
}

// ConsultPolicy carries the tunable limits of the consultation engine.
// All values have safe defaults; zero values are replaced at load time.
type ConsultPolicy interface {
	FollowUpCeiling() int
	RetrievalCap() int
	MinPassingPassages() int
	SeverityThreshold() int
	CriticalKeywords() []string
	HighRiskKeywords() []string
	ModerateKeywords() []string
	ExhaustedPolicy() string // "summarize" or "apologize"
}
