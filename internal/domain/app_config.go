package domain

// AppConfig is the public application configuration served by the backend.
type AppConfig struct {
	Debug      bool   `json:"debug"`
	MediaURL   string `json:"mediaUrl"`
	StaticURL  string `json:"staticUrl"`
	AppVersion string `json:"appVersion"`
}

// APIAppConfig is the wire shape of GET /app/config/.
type APIAppConfig struct {
	Debug      bool   `json:"debug"`
	MediaURL   string `json:"media_url"`
	StaticURL  string `json:"static_url"`
	AppVersion string `json:"app_version"`
}

// DeserializeAppConfig renames the wire fields to the client shape.
func DeserializeAppConfig(data APIAppConfig) AppConfig {
	return AppConfig{
		Debug:      data.Debug,
		MediaURL:   data.MediaURL,
		StaticURL:  data.StaticURL,
		AppVersion: data.AppVersion,
	}
}
