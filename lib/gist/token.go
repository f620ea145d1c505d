package gist

import (
	"os"
	"strings"
)

// environment variables for ambient credential and API version configuration
const (
	envToken      = "AUTH_TOKEN"
	envTokenPath  = "AUTH_TOKEN_PATH"
	envAPIVersion = "GITHUB_API_VERSION"
)

// file-sourced tokens must be github personal access tokens
const tokenFilePrefix = "ghp_"

// resolveToken picks the bearer token used for the client's lifetime.
// Order: explicit token, explicit token file, AUTH_TOKEN_PATH file, AUTH_TOKEN.
// An explicit token is accepted as-is, file-sourced tokens are format-checked.
func resolveToken(token, tokenFile string) (string, error) {
	if token != "" {
		return token, nil
	}

	if tokenFile == "" {
		tokenFile = os.Getenv(envTokenPath)
	}
	if tokenFile != "" {
		return readTokenFile(tokenFile)
	}

	if tok := os.Getenv(envToken); tok != "" {
		return tok, nil
	}

	return "", errf(KindAuth, nil,
		"no token configured, use WithToken/WithTokenFile or set %s or %s", envToken, envTokenPath)
}

func readTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the caller's own token file
	if err != nil {
		return "", errf(KindAuth, err, "failed to read token file %s", path)
	}
	tok := strings.TrimSpace(string(data))
	if !strings.HasPrefix(tok, tokenFilePrefix) {
		return "", errf(KindInvalidArgument, nil,
			"invalid token format in %s, expected %q prefix", path, tokenFilePrefix)
	}
	return tok, nil
}
