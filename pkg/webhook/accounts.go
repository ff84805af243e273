package webhook

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/NicolasHaas/pixndrive/pkg/crypto"
	"github.com/NicolasHaas/pixndrive/pkg/model"
)

// AccountYAML is one account in the accounts file.
type AccountYAML struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Phone    string `yaml:"phone,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// AccountsConfig is the top-level YAML for the accounts file.
type AccountsConfig struct {
	Accounts []AccountYAML `yaml:"accounts"`
}

// Account is a loaded account; the password is kept only as a hash.
type Account struct {
	Profile      model.UserProfile
	PasswordHash string
}

// LoadAccountsFromYAML reads an accounts file.
func LoadAccountsFromYAML(path string) ([]AccountYAML, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI config
	if err != nil {
		return nil, fmt.Errorf("read accounts config: %w", err)
	}
	return ParseAccountsYAML(data)
}

// ParseAccountsYAML parses accounts YAML and validates every entry.
func ParseAccountsYAML(data []byte) ([]AccountYAML, error) {
	var cfg AccountsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse accounts config: %w", err)
	}

	seen := make(map[string]bool, len(cfg.Accounts))
	for i, a := range cfg.Accounts {
		if err := model.ValidateCredentials(a.Email, a.Password); err != nil {
			return nil, fmt.Errorf("accounts[%d]: %w", i, err)
		}
		key := strings.ToLower(strings.TrimSpace(a.Email))
		if seen[key] {
			return nil, fmt.Errorf("accounts[%d]: duplicate email %q", i, a.Email)
		}
		seen[key] = true
	}
	slog.Info("loaded accounts from YAML", "count", len(cfg.Accounts))
	return cfg.Accounts, nil
}

// ExportAccountsYAML writes accounts back out without passwords.
func ExportAccountsYAML(accounts []Account) ([]byte, error) {
	out := AccountsConfig{}
	for _, a := range accounts {
		out.Accounts = append(out.Accounts, AccountYAML{
			Email: a.Profile.Email,
			Name:  a.Profile.Name,
			Phone: a.Profile.Phone,
		})
	}
	return yaml.Marshal(&out)
}

// HashAccounts turns file entries into accounts, hashing every password and
// assigning ids in file order ("1", "2", ...).
func HashAccounts(entries []AccountYAML) ([]Account, error) {
	out := make([]Account, 0, len(entries))
	for i, e := range entries {
		hash, err := crypto.EncodePassword(e.Password)
		if err != nil {
			return nil, fmt.Errorf("accounts[%d]: %w", i, err)
		}
		out = append(out, Account{
			Profile: model.UserProfile{
				ID:    strconv.Itoa(i + 1),
				Name:  e.Name,
				Email: strings.TrimSpace(e.Email),
				Phone: e.Phone,
			},
			PasswordHash: hash,
		})
	}
	return out, nil
}
