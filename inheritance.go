package permtree

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// InheritanceMap maps a role name to the full, pre-flattened list of
// ancestor role names whose direct permissions it inherits. The resolver
// trusts each entry as final and never walks the map recursively, so the
// configuration must already contain every transitive ancestor.
type InheritanceMap map[string][]string

// LoadInheritanceMap reads the map from a JSON configuration file and
// validates it.
func LoadInheritanceMap(path string) (InheritanceMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inheritance map %s: %w", path, err)
	}
	var m InheritanceMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse inheritance map %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate rejects cycles. In a pre-flattened map a cycle shows up as a role
// listing itself, or two roles listing each other.
func (m InheritanceMap) Validate() error {
	for role, ancestors := range m {
		for _, ancestor := range ancestors {
			if ancestor == role {
				return fmt.Errorf("inheritance map: role %s lists itself as ancestor", role)
			}
			for _, back := range m[ancestor] {
				if back == role {
					return fmt.Errorf("inheritance map: cycle between %s and %s", role, ancestor)
				}
			}
		}
	}
	return nil
}

// Ancestors returns the ancestor list for a role. A role without an entry
// has zero ancestors; that is not an error.
func (m InheritanceMap) Ancestors(roleName string) []string {
	return m[roleName]
}

// Provenance returns the human-readable ancestor list used as the
// InheritedFrom label on inherited leaves. All ancestors are reported
// together, not the specific one granting a given permission.
func (m InheritanceMap) Provenance(roleName string) string {
	return strings.Join(m[roleName], ", ")
}

// FetchDirectKeys loads the direct permission-key set of one named role.
type FetchDirectKeys func(ctx context.Context, roleName string) (KeySet, error)

// Resolve computes the effective inherited key set for a role by unioning
// the direct permissions of every ancestor in its map entry. Each ancestor
// is fetched exactly once; fetches run concurrently since the union is
// commutative and the calls are independent.
func (m InheritanceMap) Resolve(ctx context.Context, roleName string, fetch FetchDirectKeys) (KeySet, error) {
	ancestors := m.Ancestors(roleName)
	result := NewKeySet()
	if len(ancestors) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, ancestor := range ancestors {
		ancestor := ancestor
		g.Go(func() error {
			keys, err := fetch(gctx, ancestor)
			if err != nil {
				return fmt.Errorf("failed to fetch direct permissions of ancestor %s: %w", ancestor, err)
			}
			mu.Lock()
			for k := range keys {
				result[k] = struct{}{}
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
