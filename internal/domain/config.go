package domain

// ExtensionConfig is the persisted user-facing configuration
type ExtensionConfig struct {
	APIBase    string `json:"apiBase"`
	APIKey     string `json:"apiKey"`
	AutoInject bool   `json:"autoInject"`
}

// ConfigUpdate carries a partial configuration update; nil fields are left untouched
type ConfigUpdate struct {
	APIBase    *string `json:"apiBase,omitempty"`
	APIKey     *string `json:"apiKey,omitempty"`
	AutoInject *bool   `json:"autoInject,omitempty"`
}

// Apply returns cfg with the non-nil update fields applied
func (u ConfigUpdate) Apply(cfg ExtensionConfig) ExtensionConfig {
	if u.APIBase != nil {
		cfg.APIBase = *u.APIBase
	}
	if u.APIKey != nil {
		cfg.APIKey = *u.APIKey
	}
	if u.AutoInject != nil {
		cfg.AutoInject = *u.AutoInject
	}
	return cfg
}
