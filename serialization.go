package proofmap

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// wireSibling is the wire encoding of one MapProof.Proof entry: a bit-string
// path (ASCII '0'/'1', LSB-first within each byte) and a hex-encoded hash.
type wireSibling struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

// wireEntry is the wire encoding of one MapProof.Entries entry. Exactly one
// of the two shapes applies: {"missing": "<hex key>"} for an absent key, or
// {"key": "<hex key>", "value": "<hex value>"} for a present one.
type wireEntry struct {
	Missing string `json:"missing,omitempty"`
	Key     string `json:"key,omitempty"`
	Value   string `json:"value,omitempty"`
}

type wireProof struct {
	Proof   []wireSibling `json:"proof"`
	Entries []wireEntry   `json:"entries"`
}

// MarshalJSON encodes p in the wire format: siblings as bit-string path plus
// hex hash, entries as either a missing-key record or a key/value record,
// in the same order callers queried them.
func (p *MapProof) MarshalJSON() ([]byte, error) {
	w := wireProof{
		Proof:   make([]wireSibling, len(p.Proof)),
		Entries: make([]wireEntry, len(p.Entries)),
	}
	for i, s := range p.Proof {
		w.Proof[i] = wireSibling{Path: s.Path.String(), Hash: hex.EncodeToString(s.Hash[:])}
	}
	for i, e := range p.Entries {
		keyHex := hex.EncodeToString(e.Key.ToBytes())
		if e.Found {
			w.Entries[i] = wireEntry{Key: keyHex, Value: hex.EncodeToString(e.Value)}
		} else {
			w.Entries[i] = wireEntry{Missing: keyHex}
		}
	}
	return json.Marshal(w)
}

// UnmarshalMapProof decodes a wire-format proof. Entry paths are
// re-derived from each entry's key bytes exactly as the tree would: used
// directly if they are KeySize bytes wide, hashed with hash otherwise (or
// unconditionally, if hashed is true) — this must match whether the index
// the proof was built against uses WithHashedKeys, or Verify will either
// reject the proof or reconstruct a different root.
func UnmarshalMapProof(data []byte, hash HashFunc, hashed bool) (*MapProof, error) {
	var w wireProof
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("proofmap: decode proof: %w", err)
	}

	out := &MapProof{
		Proof:   make([]sibling, len(w.Proof)),
		Entries: make([]ProofEntry, len(w.Entries)),
	}
	for i, s := range w.Proof {
		path, err := ParseProofPath(s.Path)
		if err != nil {
			return nil, err
		}
		raw, err := hex.DecodeString(s.Hash)
		if err != nil || len(raw) != len(Hash{}) {
			return nil, fmt.Errorf("proofmap: invalid sibling hash %q", s.Hash)
		}
		var h Hash
		copy(h[:], raw)
		out.Proof[i] = sibling{Path: path, Hash: h}
	}
	for i, e := range w.Entries {
		found := e.Missing == ""
		keyHex := e.Missing
		if found {
			keyHex = e.Key
		}
		keyBytes, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("proofmap: invalid entry key %q", keyHex)
		}
		key := Bytes(keyBytes)
		path, err := entryPath(hash, hashed, key)
		if err != nil {
			return nil, err
		}
		entry := ProofEntry{Key: key, Path: path, Found: found}
		if found {
			value, err := hex.DecodeString(e.Value)
			if err != nil {
				return nil, fmt.Errorf("proofmap: invalid entry value %q", e.Value)
			}
			entry.Value = value
		}
		out.Entries[i] = entry
	}
	return out, nil
}

// entryPath mirrors ProofMapIndex.keyPath without requiring a live index,
// so a received MapProof can be verified standalone.
func entryPath(hash HashFunc, hashed bool, key BinaryKey) (ProofPath, error) {
	if hashed {
		return NewProofPath([KeySize]byte(hash(key.ToBytes()))), nil
	}
	return pathForKey(hash, key)
}
