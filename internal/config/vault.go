package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"atscore/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`
	Mount     string `mapstructure:"mount"` // KV v2 mount path, "secret" when empty

	// Secret paths, relative to the mount
	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault
type VaultSecrets struct {
	// APIKeys expects a "keys" field holding comma-separated values
	APIKeys string `mapstructure:"apiKeys"`
	// EmbeddingKey expects an "api_key" field
	EmbeddingKey string `mapstructure:"embeddingKey"`
}

// secretReader reads one string field of a KV v2 secret
type secretReader interface {
	ReadString(ctx context.Context, path, key string) (string, error)
}

// VaultClient reads secrets from a Vault KV v2 engine
type VaultClient struct {
	kv     *api.KVv2
	logger *errors.Logger
}

// NewVaultClient creates a new Vault client from configuration
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	logger.Debug("Initializing Vault client",
		"address", config.Address,
		"namespace", config.Namespace,
		"token_file", config.TokenFile,
		"has_token", config.Token != "")

	apiConfig := api.DefaultConfig()
	if config.Address != "" {
		apiConfig.Address = config.Address
	}
	client, err := api.NewClient(apiConfig)
	if err != nil {
		logger.LogError(err, "Failed to create Vault client")
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		logger.LogError(err, "Vault token is required when Vault is enabled")
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		logger.LogError(err, "Failed to connect to Vault", "address", config.Address)
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	logger.Info("Successfully connected to Vault",
		"address", config.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	mount := config.Mount
	if mount == "" {
		mount = "secret"
	}
	return &VaultClient{kv: client.KVv2(mount), logger: logger}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token
	if token == "" && config.TokenFile != "" {
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// ReadString retrieves a string field from a KV v2 secret
func (vc *VaultClient) ReadString(ctx context.Context, path, key string) (string, error) {
	secret, err := vc.kv.Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("secret not found at path: %s", path)
	}

	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}

	version := 0
	if secret.VersionMetadata != nil {
		version = secret.VersionMetadata.Version
	}
	vc.logger.Debug("String secret retrieved from Vault",
		"path", path,
		"key", key,
		"version", version,
		"masked_value", maskSecret(str))
	return str, nil
}

func maskSecret(s string) string {
	switch {
	case len(s) > 8:
		return s[:4] + "****" + s[len(s)-4:]
	case s != "":
		return "****"
	}
	return ""
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(ctx context.Context, config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	logger.Info("Loading secrets from Vault",
		"api_keys_path", config.Vault.Secrets.APIKeys,
		"embedding_key_path", config.Vault.Secrets.EmbeddingKey)

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	return applySecrets(ctx, client, config, logger)
}

func applySecrets(ctx context.Context, r secretReader, config *Config, logger *errors.Logger) error {
	secrets := config.Vault.Secrets

	if secrets.APIKeys != "" {
		raw, err := r.ReadString(ctx, secrets.APIKeys, "keys")
		if err != nil {
			logger.LogError(err, "Failed to load API keys from Vault", "path", secrets.APIKeys)
			return fmt.Errorf("failed to load API keys from vault: %w", err)
		}
		if keys := splitKeys(raw); len(keys) > 0 {
			config.Server.APIKeys = keys
			logger.Info("API keys loaded from Vault", "count", len(keys))
		} else {
			logger.Warn("No API keys found in Vault", "path", secrets.APIKeys)
		}
	}

	if secrets.EmbeddingKey != "" {
		key, err := r.ReadString(ctx, secrets.EmbeddingKey, "api_key")
		if err != nil {
			logger.LogError(err, "Failed to load embedding API key from Vault", "path", secrets.EmbeddingKey)
			return fmt.Errorf("failed to load embedding API key from vault: %w", err)
		}
		if key != "" {
			config.Embedding.APIKey = key
			if config.Embedding.Provider == "" {
				config.Embedding.Provider = "gemini"
			}
			logger.Info("Embedding API key loaded from Vault")
		} else {
			logger.Warn("Empty embedding API key found in Vault", "path", secrets.EmbeddingKey)
		}
	}

	return nil
}
