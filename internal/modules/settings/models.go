package settings

import "github.com/portfoliodb/portfoliodb/internal/domain"

// KeyBaseCurrency is the settings key holding the base currency
const KeyBaseCurrency = "base_currency"

// SettingDefaults holds the default value for every known setting
var SettingDefaults = map[string]string{
	KeyBaseCurrency: string(domain.DefaultBaseCurrency),
}

// Settings is the process-wide settings document exposed over the API
type Settings struct {
	BaseCurrency string `json:"base_currency"`
}

// SettingsUpdate carries a partial settings change; nil fields are left alone
type SettingsUpdate struct {
	BaseCurrency *string `json:"base_currency"`
}
