package webhook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NicolasHaas/pixndrive/pkg/crypto"
	"github.com/NicolasHaas/pixndrive/pkg/model"
)

func TestParseAccountsYAML(t *testing.T) {
	tcases := map[string]struct {
		yaml    string
		wantLen int
		wantErr error
	}{
		"valid": {
			yaml:    "accounts:\n  - {email: a@example.com, name: A, password: pw}\n  - {email: b@example.com, name: B, password: pw}\n",
			wantLen: 2,
		},
		"empty": {
			yaml: "accounts: []\n",
		},
		"bad email": {
			yaml:    "accounts:\n  - {email: nope, name: A, password: pw}\n",
			wantErr: model.ErrEmailInvalid,
		},
		"missing password": {
			yaml:    "accounts:\n  - {email: a@example.com, name: A}\n",
			wantErr: model.ErrPasswordEmpty,
		},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseAccountsYAML([]byte(tc.yaml))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tc.wantLen)
		})
	}
}

func TestParseAccountsYAMLRejectsDuplicates(t *testing.T) {
	_, err := ParseAccountsYAML([]byte("accounts:\n  - {email: a@example.com, password: x}\n  - {email: A@Example.com, password: y}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	_, err = ParseAccountsYAML([]byte("accounts: [unclosed"))
	assert.Error(t, err)
}

func TestLoadHashExportAccounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("accounts:\n  - email: a@example.com\n    name: A\n    phone: \"123\"\n    password: secret\n"), 0o600))

	entries, err := LoadAccountsFromYAML(path)
	require.NoError(t, err)
	accounts, err := HashAccounts(entries)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, model.UserProfile{ID: "1", Name: "A", Email: "a@example.com", Phone: "123"}, accounts[0].Profile)

	ok, err := crypto.VerifyPassword(accounts[0].PasswordHash, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	out, err := ExportAccountsYAML(accounts)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret")
	assert.NotContains(t, string(out), "password")

	back, err := ParseAccountsYAML(out)
	assert.ErrorIs(t, err, model.ErrPasswordEmpty, "exported file carries no passwords")
	assert.Nil(t, back)

	_, err = LoadAccountsFromYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewRejectsDuplicateAccounts(t *testing.T) {
	acct := Account{Profile: model.UserProfile{ID: "1", Email: "a@example.com"}}
	_, err := New(DefaultConfig(), []Account{acct, acct})
	assert.Error(t, err)
}

func TestNewRejectsEmptyAccountsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("accounts: []\n"), 0o600))

	entries, err := LoadAccountsFromYAML(path)
	require.NoError(t, err)
	accounts, err := HashAccounts(entries)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.AccountsFile = path
	_, err = New(cfg, accounts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defines no accounts")

	// Without a file, no accounts still means open mode.
	srv, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	assert.True(t, srv.cfg.Open)
}
