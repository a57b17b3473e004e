package domain

import (
	"sort"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
	"go.trai.ch/zerr"
)

var errRequirementSyntax = zerr.New("malformed requirement")

// DependencySpec is one declared requirement in PEP 508 form: a package
// name, an optional version constraint, an optional environment marker,
// and optional extras. Owned by project config; immutable afterwards.
type DependencySpec struct {
	Name       string // normalized
	Extras     []string
	Constraint string // specifier set, e.g. ">=1.15.1,<2"; empty admits all
	Marker     string // raw marker text, empty when unconditional
}

// ParseRequirement parses a PEP 508 requirement string such as
// `scipy[extra1]>=1.15.1,!=1.16.0; python_version >= "3.10"`.
func ParseRequirement(s string) (DependencySpec, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return DependencySpec{}, zerr.Wrap(errRequirementSyntax, "empty requirement")
	}

	var spec DependencySpec
	if body, marker, ok := strings.Cut(raw, ";"); ok {
		spec.Marker = strings.TrimSpace(marker)
		raw = strings.TrimSpace(body)
	}

	// Name runs up to the first character that cannot be part of a
	// distribution name.
	nameEnd := len(raw)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if !(c == '-' || c == '_' || c == '.' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			nameEnd = i
			break
		}
	}
	if nameEnd == 0 {
		return DependencySpec{}, zerr.With(zerr.Wrap(errRequirementSyntax, "missing package name"), "requirement", s)
	}
	spec.Name = NormalizeDistName(raw[:nameEnd])
	rest := strings.TrimSpace(raw[nameEnd:])

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return DependencySpec{}, zerr.With(zerr.Wrap(errRequirementSyntax, "unclosed extras"), "requirement", s)
		}
		for _, extra := range strings.Split(rest[1:end], ",") {
			if extra = strings.TrimSpace(extra); extra != "" {
				spec.Extras = append(spec.Extras, NormalizeDistName(extra))
			}
		}
		rest = strings.TrimSpace(rest[end+1:])
	}

	// Constraints may be wrapped in parentheses per the grammar.
	rest = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(rest, "("), ")"))
	if rest != "" {
		if _, err := pep440.NewSpecifiers(rest); err != nil {
			return DependencySpec{}, zerr.With(zerr.Wrap(errRequirementSyntax, "invalid version specifier"), "requirement", s)
		}
		spec.Constraint = rest
	}

	return spec, nil
}

// Admits reports whether the constraint admits the concrete version.
// An empty constraint admits everything.
func (d DependencySpec) Admits(version string) (bool, error) {
	if d.Constraint == "" {
		return true, nil
	}
	v, err := pep440.Parse(version)
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "invalid version"), "version", version)
	}
	spec, err := pep440.NewSpecifiers(d.Constraint)
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "invalid specifier"), "constraint", d.Constraint)
	}
	return spec.Check(v), nil
}

// AppliesTo evaluates the requirement's marker against one target env.
// Requirements with inapplicable markers prune their dependency edge
// for that target only.
func (d DependencySpec) AppliesTo(env MarkerEnv) (bool, error) {
	return EvaluateMarker(d.Marker, env)
}

// String reassembles the requirement in canonical PEP 508 form.
func (d DependencySpec) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	if len(d.Extras) > 0 {
		b.WriteString("[" + strings.Join(d.Extras, ",") + "]")
	}
	b.WriteString(d.Constraint)
	if d.Marker != "" {
		b.WriteString("; " + d.Marker)
	}
	return b.String()
}

// SortVersionsDesc orders PEP 440 version strings newest-first,
// skipping strings that do not parse. Used to apply the
// most-recent-compatible selection policy deterministically.
func SortVersionsDesc(versions []string) []string {
	type parsed struct {
		raw string
		v   pep440.Version
	}
	valid := make([]parsed, 0, len(versions))
	for _, raw := range versions {
		v, err := pep440.Parse(raw)
		if err != nil {
			continue
		}
		valid = append(valid, parsed{raw: raw, v: v})
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].v.GreaterThan(valid[j].v)
	})
	out := make([]string, len(valid))
	for i, p := range valid {
		out[i] = p.raw
	}
	return out
}
