package workspace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// listing is the subset of `npm ls --json` output the loader reads.
type listing struct {
	Dependencies *orderedEntries `json:"dependencies"`
}

type listingEntry struct {
	Resolved     string          `json:"resolved"`
	Dependencies *orderedEntries `json:"dependencies"`
}

// orderedEntries is a JSON object decoded with its key order preserved.
type orderedEntries struct {
	keys   []string
	values map[string]listingEntry
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *orderedEntries) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected an object of dependencies, got %v", tok)
	}

	o.values = make(map[string]listingEntry)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var entry listingEntry
		if err := dec.Decode(&entry); err != nil {
			return fmt.Errorf("dependency %q: %w", key, err)
		}
		if _, seen := o.values[key]; !seen {
			o.keys = append(o.keys, key)
		}
		o.values[key] = entry
	}
	_, err = dec.Token()
	return err
}

// DecodeListing turns `npm ls --depth 1 --json` output into packages in the
// order the listing names them. Scripts are left empty.
func DecodeListing(r io.Reader) ([]*Package, error) {
	var root listing
	if err := json.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to decode workspace listing: %w", err)
	}
	if root.Dependencies == nil {
		return nil, nil
	}

	top := root.Dependencies
	pkgs := make([]*Package, 0, len(top.keys))
	for _, id := range top.keys {
		entry := top.values[id]
		pkg := &Package{
			ID:         id,
			Resolution: ResolutionFromLocation(entry.Resolved),
			Scripts:    map[string]bool{},
		}
		if entry.Dependencies != nil {
			pkg.DeclaresDependencies = true
			pkg.Dependencies = make(map[string]Resolution, len(entry.Dependencies.keys))
			for _, depID := range entry.Dependencies.keys {
				pkg.Dependencies[depID] = nestedResolution(top, depID, entry.Dependencies.values[depID])
			}
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

// nestedResolution classifies a nested dependency. Deduplicated entries carry
// no location, in which case the top-level entry of the same id decides.
func nestedResolution(top *orderedEntries, id string, entry listingEntry) Resolution {
	if entry.Resolved != "" {
		return ResolutionFromLocation(entry.Resolved)
	}
	if topEntry, ok := top.values[id]; ok {
		return ResolutionFromLocation(topEntry.Resolved)
	}
	return External
}
