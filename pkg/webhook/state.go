package webhook

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/NicolasHaas/pixndrive/pkg/crypto"
	"github.com/NicolasHaas/pixndrive/pkg/model"
)

var (
	errBadCredentials = errors.New("invalid credentials")
	errUnknownAccount = errors.New("unknown account")
)

// state is the stub's in-memory bookkeeping. Keys are lower-cased emails.
type state struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	tokens   map[string]string // token hash -> account key
	files    map[string][]model.FileRecord
}

func newState(accounts []Account) (*state, error) {
	st := &state{
		accounts: make(map[string]*Account, len(accounts)),
		tokens:   make(map[string]string),
		files:    make(map[string][]model.FileRecord),
	}
	for i := range accounts {
		a := accounts[i]
		key := accountKey(a.Profile.Email)
		if _, dup := st.accounts[key]; dup {
			return nil, fmt.Errorf("webhook: duplicate account %q", a.Profile.Email)
		}
		st.accounts[key] = &a
	}
	return st, nil
}

func accountKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// authenticate checks credentials. In open mode unknown emails get an
// account created on the spot; known accounts still need their password.
func (st *state) authenticate(email, password string, open bool) (model.UserProfile, error) {
	key := accountKey(email)

	st.mu.RLock()
	acct, ok := st.accounts[key]
	st.mu.RUnlock()

	if ok {
		if acct.PasswordHash == "" {
			return acct.Profile, nil
		}
		match, err := crypto.VerifyPassword(acct.PasswordHash, password)
		if err != nil {
			return model.UserProfile{}, err
		}
		if !match {
			return model.UserProfile{}, errBadCredentials
		}
		return acct.Profile, nil
	}
	if !open {
		return model.UserProfile{}, errUnknownAccount
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if acct, ok := st.accounts[key]; ok {
		return acct.Profile, nil
	}
	name, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	acct = &Account{Profile: model.UserProfile{
		ID:    uuid.NewString(),
		Name:  name,
		Email: strings.TrimSpace(email),
	}}
	st.accounts[key] = acct
	return acct.Profile, nil
}

// issueToken mints a token for an account and remembers only its hash.
func (st *state) issueToken(email string) (string, error) {
	token, err := crypto.GenerateToken()
	if err != nil {
		return "", err
	}
	st.mu.Lock()
	st.tokens[crypto.HashToken(token)] = accountKey(email)
	st.mu.Unlock()
	return token, nil
}

// lookupToken returns the account key for a raw token.
func (st *state) lookupToken(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	key, ok := st.tokens[crypto.HashToken(token)]
	return key, ok
}

func (st *state) addFile(key string, rec model.FileRecord) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.files[key] = append([]model.FileRecord{rec}, st.files[key]...)
}

func (st *state) listFiles(key string) []model.FileRecord {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]model.FileRecord, len(st.files[key]))
	copy(out, st.files[key])
	return out
}

func (st *state) getFile(key, id string) (model.FileRecord, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, f := range st.files[key] {
		if f.ID == id {
			return f, true
		}
	}
	return model.FileRecord{}, false
}

func (st *state) fileCount() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	n := 0
	for _, files := range st.files {
		n += len(files)
	}
	return n
}

func (st *state) accountCount() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.accounts)
}
