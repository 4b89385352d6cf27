package cache

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// AuthFunc picks the credentials used to fetch a source. Returning nil means
// anonymous access.
type AuthFunc func(source string) transport.AuthMethod

// EnvironmentAuth returns an AuthFunc that uses SSH keys from ~/.ssh for SSH
// sources and a token from GITHUB_TOKEN, GITLAB_TOKEN or GIT_TOKEN for HTTP(S)
// sources.
func EnvironmentAuth(getenv func(string) string) AuthFunc {
	if getenv == nil {
		getenv = os.Getenv
	}
	return func(source string) transport.AuthMethod {
		switch {
		case isSSH(source):
			return sshAuth()
		case strings.HasPrefix(source, "https://"), strings.HasPrefix(source, "http://"):
			return tokenAuth(getenv)
		default:
			return nil
		}
	}
}

func isSSH(source string) bool {
	if strings.HasPrefix(source, "ssh://") {
		return true
	}
	// scp-like syntax: user@host:path
	at := strings.Index(source, "@")
	colon := strings.Index(source, ":")
	return at > 0 && colon > at && !strings.Contains(source, "://")
}

func sshAuth() transport.AuthMethod {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	for _, name := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		keyPath := filepath.Join(home, ".ssh", name)
		if _, err := os.Stat(keyPath); err != nil {
			continue
		}
		if auth, err := ssh.NewPublicKeysFromFile("git", keyPath, ""); err == nil {
			return auth
		}
	}
	return nil
}

func tokenAuth(getenv func(string) string) transport.AuthMethod {
	tokens := []struct {
		env  string
		user string
	}{
		{"GITHUB_TOKEN", "x-access-token"},
		{"GITLAB_TOKEN", "gitlab-ci-token"},
		{"GIT_TOKEN", "git"},
	}
	for _, tok := range tokens {
		if v := getenv(tok.env); v != "" {
			return &http.BasicAuth{Username: tok.user, Password: v}
		}
	}
	return nil
}
