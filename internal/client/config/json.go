package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/studaxis/studaxis/internal/flagx"
	"github.com/studaxis/studaxis/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can spell timeouts either as strings like "15s" or
// as integer nanoseconds. Only fields present in the file overlay the
// runtime Config.
type JsonConfig struct {
	Endpoint        *string         `json:"endpoint"`
	APIKey          *string         `json:"api_key"`
	UserID          *string         `json:"user_id"`
	DeviceID        *string         `json:"device_id"`
	BasePath        *string         `json:"base_path"`
	Subject         *string         `json:"subject"`
	ManifestTimeout *timex.Duration `json:"manifest_timeout"`
	DownloadTimeout *timex.Duration `json:"download_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file resolved
// via the -c/-config flags. No file means no overlay. Read or unmarshal
// errors panic; the caller may recover if desired.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.Endpoint != nil {
		cfg.Endpoint = *jc.Endpoint
	}
	if jc.APIKey != nil {
		cfg.APIKey = *jc.APIKey
	}
	if jc.UserID != nil {
		cfg.UserID = *jc.UserID
	}
	if jc.DeviceID != nil {
		cfg.DeviceID = *jc.DeviceID
	}
	if jc.BasePath != nil {
		cfg.BasePath = *jc.BasePath
	}
	if jc.Subject != nil {
		cfg.Subject = *jc.Subject
	}
	if jc.ManifestTimeout != nil {
		cfg.ManifestTimeout = time.Duration(jc.ManifestTimeout.Duration)
	}
	if jc.DownloadTimeout != nil {
		cfg.DownloadTimeout = time.Duration(jc.DownloadTimeout.Duration)
	}
}
