package service

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/apperrors"
)

// fxProviderKeySetting is the settings key holding the encrypted FX provider API key.
const fxProviderKeySetting = "fx_provider_api_key"

// SettingsService stores and retrieves application settings. Secret values
// (the FX provider API key) are encrypted at rest with a fernet key supplied
// through configuration; the plaintext never touches the database.
type SettingsService struct {
	db  *sql.DB
	key *fernet.Key
}

// NewSettingsService creates a SettingsService using the given base64
// fernet key. An empty key disables secret storage; reads then fail with
// apperrors.ErrSettingNotFound.
func NewSettingsService(db *sql.DB, encodedKey string) (*SettingsService, error) {
	s := &SettingsService{db: db}

	if encodedKey != "" {
		key, err := fernet.DecodeKey(encodedKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decode settings encryption key: %w", err)
		}
		s.key = key
	}

	return s, nil
}

// SetFXProviderKey encrypts and stores the FX provider API key.
func (s *SettingsService) SetFXProviderKey(apiKey string) error {
	if s.key == nil {
		return fmt.Errorf("settings encryption key not configured")
	}

	token, err := fernet.EncryptAndSign([]byte(apiKey), s.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt FX provider key: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO setting (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, fxProviderKeySetting, string(token))
	if err != nil {
		return fmt.Errorf("failed to store FX provider key: %w", err)
	}

	return nil
}

// GetFXProviderKey retrieves and decrypts the FX provider API key.
func (s *SettingsService) GetFXProviderKey() (string, error) {
	if s.key == nil {
		return "", apperrors.ErrSettingNotFound
	}

	var token string
	err := s.db.QueryRow(`SELECT value FROM setting WHERE key = ?`, fxProviderKeySetting).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read FX provider key: %w", err)
	}

	// TTL 0: stored tokens do not expire.
	plaintext := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{s.key})
	if plaintext == nil {
		return "", fmt.Errorf("failed to decrypt FX provider key")
	}

	return string(plaintext), nil
}
