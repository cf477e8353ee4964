package core

import (
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"

	"concretizer/internal/types"
)

// versionCache memoizes parsed version objects to avoid repeated
// parsing during range checks and sorting. Recipe versions are PEP
// 440-like release numbers most of the time; branch-style versions
// ("master") fall back to Debian version semantics and finally to
// lexicographic comparison.
type versionCache struct {
	pep map[string]*pep440.Version
	deb map[string]*debversion.Version
}

func newVersionCache() *versionCache {
	return &versionCache{
		pep: map[string]*pep440.Version{},
		deb: map[string]*debversion.Version{},
	}
}

func (c *versionCache) pepVersion(value string) (pep440.Version, bool) {
	if parsed, ok := c.pep[value]; ok {
		return deref(parsed), parsed != nil
	}
	parsed, err := pep440.Parse(value)
	if err != nil {
		c.pep[value] = nil
		return pep440.Version{}, false
	}
	c.pep[value] = &parsed
	return parsed, true
}

func (c *versionCache) debVersion(value string) (debversion.Version, bool) {
	if parsed, ok := c.deb[value]; ok {
		if parsed == nil {
			return debversion.Version{}, false
		}
		return *parsed, true
	}
	parsed, err := debversion.NewVersion(value)
	if err != nil {
		c.deb[value] = nil
		return debversion.Version{}, false
	}
	c.deb[value] = &parsed
	return parsed, true
}

func deref(v *pep440.Version) pep440.Version {
	if v == nil {
		return pep440.Version{}
	}
	return *v
}

// compare returns -1, 0, or 1 across the fallback chain: PEP 440 when
// both sides parse, Debian semantics otherwise, lexicographic as the
// last resort.
func (c *versionCache) compare(a string, b string) int {
	if va, ok := c.pepVersion(a); ok {
		if vb, ok := c.pepVersion(b); ok {
			return va.Compare(vb)
		}
	}
	if va, ok := c.debVersion(a); ok {
		if vb, ok := c.debVersion(b); ok {
			return va.Compare(vb)
		}
	}
	return strings.Compare(a, b)
}

// inRange reports whether version lies in the inclusive window.
func (c *versionCache) inRange(version string, r types.VersionRange) bool {
	if r.Lo != "" && c.compare(version, r.Lo) < 0 {
		return false
	}
	if r.Hi != "" && c.compare(version, r.Hi) > 0 {
		return false
	}
	return true
}

// inAllRanges reports whether version satisfies every window at once.
func (c *versionCache) inAllRanges(version string, ranges []types.VersionRange) bool {
	for _, r := range ranges {
		if !c.inRange(version, r) {
			return false
		}
	}
	return true
}

// highestSatisfying picks the version a node is concretized to: the
// highest declared version satisfying every collected range, with
// preferred versions winning over higher non-preferred ones.
func (c *versionCache) highestSatisfying(decls []types.VersionDecl, ranges []types.VersionRange) (string, bool) {
	best := ""
	bestPreferred := false
	for _, decl := range decls {
		if decl.Version == "" || !c.inAllRanges(decl.Version, ranges) {
			continue
		}
		switch {
		case best == "":
			best, bestPreferred = decl.Version, decl.Preferred
		case decl.Preferred && !bestPreferred:
			best, bestPreferred = decl.Version, true
		case decl.Preferred == bestPreferred && c.compare(decl.Version, best) > 0:
			best = decl.Version
		}
	}
	return best, best != ""
}
