package registry

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/OMouta/Jelly/resolver"
)

// rawSearchResult mirrors one element of GET /v1/package-search.
type rawSearchResult struct {
	Package struct {
		Scope string `json:"scope"`
		Name  string `json:"name"`
	} `json:"package"`
	Versions    []string `json:"versions"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// rawMetadataResponse mirrors GET /v1/package-metadata/{scope}/{name}.
type rawMetadataResponse struct {
	Versions []rawVersionEntry `json:"versions"`
}

type rawVersionEntry struct {
	Package struct {
		Scope       string `json:"scope"`
		Name        string `json:"name"`
		Version     string `json:"version"`
		Realm       string `json:"realm"`
		Description string `json:"description"`
		License     string `json:"license"`
		Authors     []string `json:"authors"`
		Repository  string `json:"repository"`
		Homepage    string `json:"homepage"`
	} `json:"package"`
	Dependencies       rawDepMap `json:"dependencies"`
	ServerDependencies rawDepMap `json:"server-dependencies"`
	DevDependencies    rawDepMap `json:"dev-dependencies"`
}

// rawDepMap decodes a {"scope/name": "range"} object straight into
// resolver types, tolerating a missing/null field.
type rawDepMap map[resolver.PackageID]resolver.Range

func (m *rawDepMap) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(rawDepMap, len(raw))
	for k, v := range raw {
		id, err := resolver.ParsePackageID(k)
		if err != nil {
			return errors.Wrapf(err, "dependency key %q", k)
		}
		rng, err := resolver.ParseRange(v)
		if err != nil {
			return errors.Wrapf(err, "dependency range for %q", k)
		}
		out[id] = rng
	}
	*m = out
	return nil
}

func decodeMetadata(id resolver.PackageID, data []byte) (Metadata, error) {
	var raw rawMetadataResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return Metadata{}, errors.Wrap(err, "decoding package metadata")
	}

	md := Metadata{ID: id, Versions: make([]VersionEntry, 0, len(raw.Versions))}
	for _, rv := range raw.Versions {
		v, err := resolver.NewVersion(rv.Package.Version)
		if err != nil {
			return Metadata{}, errors.Wrapf(err, "version %q for %s", rv.Package.Version, id)
		}
		md.Versions = append(md.Versions, VersionEntry{
			Version:            v,
			Realm:              rv.Package.Realm,
			Description:        rv.Package.Description,
			License:            rv.Package.License,
			Authors:            rv.Package.Authors,
			Repository:         rv.Package.Repository,
			Homepage:           rv.Package.Homepage,
			Dependencies:       map[resolver.PackageID]resolver.Range(rv.Dependencies),
			ServerDependencies: map[resolver.PackageID]resolver.Range(rv.ServerDependencies),
			DevDependencies:    map[resolver.PackageID]resolver.Range(rv.DevDependencies),
		})
	}
	return md, nil
}

func decodeSearchResults(data []byte) ([]SearchResult, error) {
	var raw []rawSearchResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding search results")
	}
	out := make([]SearchResult, 0, len(raw))
	for _, r := range raw {
		out = append(out, SearchResult{
			ID:          resolver.PackageID{Scope: r.Package.Scope, Name: r.Package.Name},
			Versions:    r.Versions,
			Description: r.Description,
			Keywords:    r.Keywords,
		})
	}
	return out, nil
}
