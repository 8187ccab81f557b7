package resolver

import (
	"encoding/json"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// Version is a SemVer 2.0 triple with an optional pre-release tag,
// strictly ordered per SemVer precedence rules.
type Version struct {
	raw *semver.Version
}

// NewVersion parses a version string.
func NewVersion(s string) (Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return Version{}, errors.Wrapf(err, "parsing version %q", s)
	}
	return Version{raw: v}, nil
}

// String returns the original, as-parsed version string.
func (v Version) String() string {
	if v.raw == nil {
		return ""
	}
	return v.raw.Original()
}

// LessThan reports whether v sorts before other by SemVer precedence.
func (v Version) LessThan(other Version) bool {
	return v.raw.LessThan(other.raw)
}

// GreaterThan reports whether v sorts after other by SemVer precedence.
func (v Version) GreaterThan(other Version) bool {
	return v.raw.GreaterThan(other.raw)
}

// Equal reports whether v and other denote the same version.
func (v Version) Equal(other Version) bool {
	return v.raw.Equal(other.raw)
}

// IsZero reports whether v is the unparsed zero value.
func (v Version) IsZero() bool {
	return v.raw == nil
}

func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Version) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := NewVersion(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Versions implements sort.Interface in ascending SemVer order.
type Versions []Version

func (vs Versions) Len() int           { return len(vs) }
func (vs Versions) Less(i, j int) bool { return vs[i].LessThan(vs[j]) }
func (vs Versions) Swap(i, j int)      { vs[i], vs[j] = vs[j], vs[i] }

// Highest returns the highest version in vs, or the zero Version if vs is empty.
func (vs Versions) Highest() Version {
	var best Version
	for _, v := range vs {
		if best.IsZero() || v.GreaterThan(best) {
			best = v
		}
	}
	return best
}
