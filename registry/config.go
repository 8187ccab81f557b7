package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// AlternateConfig is the subset of a registry's config.json the core
// cares about: the API base URL the manifest's realm/registry field
// ultimately resolves to.
type AlternateConfig struct {
	APIURL string `json:"api"`
}

type rawAlternateConfig struct {
	API string `json:"api"`
}

// readConfig parses raw config.json bytes into an AlternateConfig.
func readConfig(r io.Reader) (AlternateConfig, error) {
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(r); err != nil {
		return AlternateConfig{}, errors.Wrap(err, "reading registry config")
	}
	var raw rawAlternateConfig
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		return AlternateConfig{}, errors.Wrap(err, "parsing registry config as JSON")
	}
	if raw.API == "" {
		return AlternateConfig{}, errors.New("registry config is missing an \"api\" field")
	}
	return AlternateConfig{APIURL: raw.API}, nil
}

// ResolveConfig fetches and parses the config.json hosted at a
// GitHub-style registry repository, e.g. a manifest realm of
// "github.com/my-org/my-registry" resolves to
// "https://raw.githubusercontent.com/my-org/my-registry/master/config.json".
//
// The returned APIURL is what ought to be passed to NewClient in place of
// DefaultBaseURL — the core otherwise treats only that resolved API URL
// as its contract, per spec.md §4.1.
func ResolveConfig(ctx context.Context, httpClient *http.Client, registryRealm string) (AlternateConfig, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	u := fmt.Sprintf("https://raw.githubusercontent.com/%s/master/config.json", registryRealm)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return AlternateConfig{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return AlternateConfig{}, errors.Wrapf(err, "fetching registry config for %q", registryRealm)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return AlternateConfig{}, errors.Errorf("registry config for %q: unexpected status %d", registryRealm, resp.StatusCode)
	}

	return readConfig(resp.Body)
}
