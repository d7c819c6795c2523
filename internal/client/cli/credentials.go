package cli

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/studaxis/studaxis/internal/filex"
)

const credentialsFileName = "credentials.json"

type credentials struct {
	APIKey string `json:"api_key"`
	UserID string `json:"user_id,omitempty"`
}

func saveCredentials(dataDir string, c credentials) error {
	if _, err := filex.EnsureDir(dataDir); err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dataDir, credentialsFileName), data, 0o600)
}

func loadCredentials(dataDir string) (*credentials, error) {
	data, err := os.ReadFile(filepath.Join(dataDir, credentialsFileName))
	if err != nil {
		return nil, err
	}
	var c credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
