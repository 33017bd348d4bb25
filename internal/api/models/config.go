package models

import "dnsproxy/internal/config"

// ConfigResponse wraps the live configuration. The API key is stripped
// before serialization since APIConfig.APIKey is a secret.
type ConfigResponse struct {
	Config config.Config `json:"config"`
}

// StorageDriverRequest selects the persistence driver for one or more
// storage scopes. Omitted fields leave that scope unchanged.
type StorageDriverRequest struct {
	CacheDriver string `json:"cache_driver,omitempty"`
	ListDriver  string `json:"list_driver,omitempty"`
	LogDriver   string `json:"log_driver,omitempty"`
}

func redactAPIKey(cfg config.Config) config.Config {
	cfg.API.APIKey = ""
	return cfg
}

// NewConfigResponse builds a ConfigResponse with secrets redacted.
func NewConfigResponse(cfg config.Config) ConfigResponse {
	return ConfigResponse{Config: redactAPIKey(cfg)}
}
