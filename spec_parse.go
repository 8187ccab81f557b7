package jelly

import (
	"strings"

	"github.com/OMouta/Jelly/internal/jerrors"
	"github.com/OMouta/Jelly/resolver"
)

// parseSpec splits a CLI-style dependency spec "scope/name" or
// "scope/name@range" into its PackageID and an optional Range. When no
// range is given, hasRange is false and the caller resolves "latest".
func parseSpec(spec string) (id resolver.PackageID, rng resolver.Range, hasRange bool, err error) {
	idPart, rangePart, found := strings.Cut(spec, "@")
	id, err = resolver.ParsePackageID(idPart)
	if err != nil {
		return resolver.PackageID{}, resolver.Range{}, false, jerrors.New(jerrors.KindManifestMalformed, "parsing dependency spec", spec, err)
	}
	if !found || rangePart == "" {
		return id, resolver.Range{}, false, nil
	}
	rng, err = resolver.ParseRange(rangePart)
	if err != nil {
		return resolver.PackageID{}, resolver.Range{}, false, err
	}
	return id, rng, true, nil
}
