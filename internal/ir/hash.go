package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainScript   = "eventc/script/v1"
	DomainNode     = "eventc/node/v1"
	DomainRegistry = "eventc/registry/v1"
	DomainResolver = "eventc/resolver/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ScriptHash computes the cache key for a compiled script.
//
// The key covers everything that can change the emitted instructions: the IR
// version, the registry fingerprint (which event definitions exist and how they
// are declared), the resolver fingerprint (variable and actor tables) and the
// script's event tree.
func ScriptHash(script Script, registryFingerprint, resolverFingerprint string) (string, error) {
	obj := Object{
		"ir_version": String(Version),
		"registry":   String(registryFingerprint),
		"resolver":   String(resolverFingerprint),
		"script":     script.ToValue(),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("ScriptHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainScript, canonical), nil
}

// NodeHash computes a stable identity for a single event node, used when a
// node carries no explicit id.
func NodeHash(node EventNode) (string, error) {
	canonical, err := MarshalCanonical(node.ToValue())
	if err != nil {
		return "", fmt.Errorf("NodeHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainNode, canonical), nil
}

// Fingerprint hashes an arbitrary canonical value under the given domain.
func Fingerprint(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}

// MustScriptHash is like ScriptHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustScriptHash(script Script, registryFingerprint, resolverFingerprint string) string {
	h, err := ScriptHash(script, registryFingerprint, resolverFingerprint)
	if err != nil {
		panic(err)
	}
	return h
}
