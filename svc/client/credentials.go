package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// CredentialStore manages credentials persisted by drivers between restarts.
type CredentialStore interface {
	Exists(ctx context.Context, tenant string) (bool, error)
	Save(ctx context.Context, tenant string, data []byte) error
	Load(ctx context.Context, tenant string) ([]byte, error)
	Delete(ctx context.Context, tenant string) error
}

const credentialFile = "credentials"

// LocalCredentialStore keeps each tenant's credentials in <root>/session-<tenant>.
type LocalCredentialStore struct {
	fs   afero.Fs
	root string
}

// NewLocalCredentialStore creates a store rooted at root. A nil fs selects
// the operating system filesystem.
func NewLocalCredentialStore(fs afero.Fs, root string) *LocalCredentialStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &LocalCredentialStore{fs: fs, root: root}
}

// Dir returns the directory holding tenant's credentials.
func (s *LocalCredentialStore) Dir(tenant string) string {
	return filepath.Join(s.root, "session-"+tenant)
}

func (s *LocalCredentialStore) Exists(_ context.Context, tenant string) (bool, error) {
	ok, err := afero.Exists(s.fs, filepath.Join(s.Dir(tenant), credentialFile))
	if err != nil {
		return false, errors.Join(ErrCredentialStorage, err)
	}
	return ok, nil
}

func (s *LocalCredentialStore) Save(_ context.Context, tenant string, data []byte) error {
	dir := s.Dir(tenant)
	if err := s.fs.MkdirAll(dir, 0o700); err != nil {
		return errors.Join(ErrCredentialStorage, err)
	}
	if err := afero.WriteFile(s.fs, filepath.Join(dir, credentialFile), data, 0o600); err != nil {
		return errors.Join(ErrCredentialStorage, err)
	}
	return nil
}

func (s *LocalCredentialStore) Load(_ context.Context, tenant string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, filepath.Join(s.Dir(tenant), credentialFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoCredentials
		}
		return nil, errors.Join(ErrCredentialStorage, err)
	}
	return data, nil
}

// Delete removes the tenant's credential directory. Deleting absent
// credentials is not an error.
func (s *LocalCredentialStore) Delete(_ context.Context, tenant string) error {
	if err := s.fs.RemoveAll(s.Dir(tenant)); err != nil {
		return errors.Join(ErrCredentialStorage, err)
	}
	return nil
}
