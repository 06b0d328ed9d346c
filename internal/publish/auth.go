package publish

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/confpress/confpress/internal/config"
)

// buildAuthMethod converts publish auth config into a go-git transport
// auth method. Nil with no error means anonymous access.
func buildAuthMethod(auth *config.AuthConfig) (transport.AuthMethod, error) {
	if auth.IsZero() {
		return nil, nil
	}
	switch auth.Type {
	case config.AuthTypeToken:
		token := auth.Token
		if token == "" {
			token = os.Getenv(config.EnvForgeToken)
		}
		if token == "" {
			return nil, fmt.Errorf("token auth configured but no token set (%s)", config.EnvForgeToken)
		}
		// Forges accept tokens over HTTP basic with any non-empty user.
		return &http.BasicAuth{Username: "token", Password: token}, nil
	case config.AuthTypeBasic:
		if auth.Username == "" {
			return nil, fmt.Errorf("basic auth configured but username is empty")
		}
		return &http.BasicAuth{Username: auth.Username, Password: auth.Password}, nil
	case config.AuthTypeSSH:
		keyPath := auth.KeyPath
		if keyPath == "" {
			return nil, fmt.Errorf("ssh auth configured but key_path is empty")
		}
		keys, err := ssh.NewPublicKeysFromFile("git", keyPath, "")
		if err != nil {
			return nil, fmt.Errorf("load ssh key %s: %w", keyPath, err)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("unsupported auth type: %s", auth.Type)
	}
}
