// Command proofmapctl builds a ProofMapIndex from a JSON key/value fixture,
// prints its object hash, and emits or checks Merkle proofs against it.
//
// Usage:
//
//	proofmapctl -fixture accounts.json -root
//	proofmapctl -fixture accounts.json -proof 0x01,0x02
//	proofmapctl -fixture accounts.json -proof 0x01 -verify
//
// Flags:
//
//	-fixture   path to a JSON file of [{"key":"<hex>","value":"<hex>"}, ...]
//	-root      print the resulting object hash (also printed when -proof is
//	           absent); exits after printing unless -proof is given
//	-proof     comma-separated hex keys to build a multiproof for
//	-verify    additionally verify the emitted proof against the fixture's object hash
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/merkleproof/proofmap"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("proofmapctl", flag.ContinueOnError)
	fixturePath := fs.String("fixture", "", "path to a JSON key/value fixture")
	printRoot := fs.Bool("root", false, "print the object hash (exits unless -proof is given)")
	proofKeys := fs.String("proof", "", "comma-separated hex keys to build a multiproof for")
	verify := fs.Bool("verify", false, "verify the emitted proof against the fixture's object hash")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "proofmapctl: -fixture is required")
		return 2
	}

	idx, err := buildIndex(*fixturePath)
	if err != nil {
		log.Printf("proofmapctl: %v", err)
		return 1
	}

	root, err := idx.ObjectHash()
	if err != nil {
		log.Printf("proofmapctl: object hash: %v", err)
		return 1
	}

	if *printRoot || *proofKeys == "" {
		fmt.Printf("object hash: %s\n", hex.EncodeToString(root[:]))
		if *proofKeys == "" {
			return 0
		}
	}

	keys, err := parseKeys(*proofKeys)
	if err != nil {
		log.Printf("proofmapctl: %v", err)
		return 1
	}

	proof, err := idx.GetMultiProof(keys)
	if err != nil {
		log.Printf("proofmapctl: build proof: %v", err)
		return 1
	}

	data, err := json.MarshalIndent(proof, "", "  ")
	if err != nil {
		log.Printf("proofmapctl: encode proof: %v", err)
		return 1
	}
	fmt.Println(string(data))

	if *verify {
		got, err := proof.Verify(proofmap.DefaultHash)
		if err != nil {
			log.Printf("proofmapctl: proof rejected: %v", err)
			return 1
		}
		if got != root {
			log.Printf("proofmapctl: proof root %x does not match object hash %x", got, root)
			return 1
		}
		fmt.Println("verify: ok")
	}
	return 0
}

type fixtureEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func buildIndex(path string) (*proofmap.ProofMapIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var entries []fixtureEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	db := proofmap.NewMemDB()
	idx, err := proofmap.NewProofMapIndex("proofmapctl", db.Fork())
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		key, err := hex.DecodeString(strings.TrimPrefix(e.Key, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid key %q: %w", e.Key, err)
		}
		value, err := hex.DecodeString(strings.TrimPrefix(e.Value, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", e.Value, err)
		}
		if err := idx.Put(proofmap.Bytes(key), proofmap.Bytes(value)); err != nil {
			return nil, fmt.Errorf("put %q: %w", e.Key, err)
		}
	}
	return idx, nil
}

func parseKeys(csv string) ([]proofmap.BinaryKey, error) {
	parts := strings.Split(csv, ",")
	keys := make([]proofmap.BinaryKey, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		raw, err := hex.DecodeString(strings.TrimPrefix(p, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid key %q: %w", p, err)
		}
		keys = append(keys, proofmap.Bytes(raw))
	}
	return keys, nil
}
