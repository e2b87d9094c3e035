package knowledge

import (
	"os"
	"strings"

	"github.com/fsyj123/knowledge-retrive/internal/platform/errors"
)

const (
	// tokenEnvVar names the environment variable carrying the dataset API token.
	tokenEnvVar = "DIFY_DATASET_TOKEN"
	// defaultToken is used when the environment variable is unset.
	defaultToken = "dataset-gCRaKZgnKtvqLdeuoCFjKiME"
)

// Credentials carries the resolved dataset API token.
type Credentials struct {
	token string
}

// ResolveCredentials resolves the dataset token from the environment, falling
// back to the built-in default when the variable is unset. Setting the
// variable to an empty value is a configuration error.
func ResolveCredentials() (Credentials, error) {
	token, ok := os.LookupEnv(tokenEnvVar)
	if !ok {
		token = defaultToken
	}
	if strings.TrimSpace(token) == "" {
		return Credentials{}, errors.New(errors.CodeConfigTokenEmpty,
			"a dataset token is required; set the "+tokenEnvVar+" environment variable")
	}
	return Credentials{token: token}, nil
}

// Headers returns the HTTP headers for dataset API requests.
func (c Credentials) Headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + c.token,
		"Content-Type":  "application/json",
	}
}
