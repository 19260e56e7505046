// Package fingerprint computes the content_hash and config_hash values
// that drive the run executor's skip logic (SPEC_FULL §5.8): a document
// whose content and generator-affecting configuration are both unchanged
// since a prior successful run does not need regeneration.
//
// No canonical-JSON library appears anywhere in the reference corpus, so
// canonicalization here is a small hand-rolled key-sort over
// encoding/json's generic map representation rather than a third-party
// dependency.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// ContentHash returns the "sha256:<hex>" fingerprint of raw document
// content, per spec.md's content_hash format.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// ConfigHash returns the "sha256:<hex>" fingerprint of the
// generator-affecting subset of a run's configuration. Callers pass only
// the fields that influence generator output (model, params, iterations,
// prompt template) — display-only fields such as a human-readable label
// must never reach this function, or unrelated edits would invalidate the
// skip cache.
func ConfigHash(generatorAffecting any) (string, error) {
	canon, err := canonicalJSON(generatorAffecting)
	if err != nil {
		return "", fmt.Errorf("fingerprint: canonicalize config: %w", err)
	}
	sum := sha256.Sum256(canon)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// canonicalJSON marshals v to JSON, then re-marshals it through a
// generic any tree so object keys come out sorted at every nesting level.
// encoding/json already sorts map[string]any keys on marshal, so this is
// a round-trip through that representation rather than a custom encoder.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return marshalSorted(generic)
}

func marshalSorted(v any) ([]byte, error) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, kb...)
			buf = append(buf, ':')
			vb, err := marshalSorted(t[k])
			if err != nil {
				return nil, err
			}
			buf = append(buf, vb...)
		}
		return append(buf, '}'), nil
	case []any:
		buf := []byte{'['}
		for i, item := range t {
			if i > 0 {
				buf = append(buf, ',')
			}
			ib, err := marshalSorted(item)
			if err != nil {
				return nil, err
			}
			buf = append(buf, ib...)
		}
		return append(buf, ']'), nil
	default:
		return json.Marshal(t)
	}
}
