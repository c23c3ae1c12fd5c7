package core

// identity.go — PhantomIdentity (spec §4.2) and the process-wide ZeroContext
// (spec §3, §9). Persistence uses the fixed-layout records from spec §6.
//
// Invariant ZK1 (ZeroID and ZeroKey persisted to distinct artifacts) and ZK2
// (local_secret never persisted) are enforced here, not left to callers.

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	zidVersion       uint8 = 1
	zidRecordSize          = 1 + 7 + 32 + 32 + 8 // version, reserved, hash, salt, created_at
	keyRecordSize          = 32 + 8 + 8          // hash, issued_at, expires_at
	defaultKeyLifetime      = 30 * 24 * time.Hour
)

// ZeroContext holds process-local parameters shared read-only by every
// session. It is created once at process start and must be zeroised at
// teardown via Destroy — the master key never leaves the process and is
// never persisted to disk (spec §3, §5).
type ZeroContext struct {
	AlgorithmTag string
	MasterKey    [32]byte
	ContextSalt  [32]byte
}

// NewZeroContext allocates a fresh ZeroContext, drawing MasterKey and
// ContextSalt from the CSPRNG.
func NewZeroContext(algorithmTag string) (*ZeroContext, error) {
	mk, err := SecureRandom(32)
	if err != nil {
		return nil, err
	}
	salt, err := SecureRandom(32)
	if err != nil {
		return nil, err
	}
	ctx := &ZeroContext{AlgorithmTag: algorithmTag}
	copy(ctx.MasterKey[:], mk)
	copy(ctx.ContextSalt[:], salt)
	return ctx, nil
}

// Destroy zeroises the master key and context salt in place. Call this
// exactly once at process teardown.
func (c *ZeroContext) Destroy() {
	Wipe(c.MasterKey[:])
	Wipe(c.ContextSalt[:])
}

// Wipe zeroes a byte slice in place (best-effort — the GC may still have
// copied the backing array before this runs).
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroID is a public, pseudonymous handle (spec §3). Immutable after
// creation.
type ZeroID struct {
	Version   uint8
	Hash      [32]byte
	Salt      [32]byte
	CreatedAt time.Time
}

// ZeroKey is a verification token bound to a ZeroID but persisted separately
// (ZK1). Expires after ExpiresAt.
type ZeroKey struct {
	Hash      [32]byte
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Challenge is 32 random bytes, single-use per authentication attempt.
type Challenge [32]byte

// Proof is a non-interactive proof of possession of a ZeroID (spec §3).
type Proof struct {
	Digest    [32]byte
	Challenge Challenge
	CreatedAt time.Time
}

// CreateZeroID allocates a fresh salt and computes hash = SHA256(localSecret
// || salt). localSecret is never retained beyond this call (ZK2) — the
// caller's slice is wiped before returning.
func CreateZeroID(ctx *ZeroContext, localSecret []byte) (*ZeroID, error) {
	salt, err := SecureRandom(32)
	if err != nil {
		return nil, err
	}
	hash := Sha256(localSecret, salt)
	Wipe(localSecret)
	zid := &ZeroID{Version: zidVersion, Hash: hash, CreatedAt: time.Now()}
	copy(zid.Salt[:], salt)
	return zid, nil
}

// CreateZeroKey derives hash = HMAC-SHA256(ctx.MasterKey, zid.Hash) and sets
// a 30-day (default) expiry.
func CreateZeroKey(ctx *ZeroContext, zid *ZeroID) *ZeroKey {
	hash := HmacSha256(ctx.MasterKey[:], zid.Hash[:])
	now := time.Now()
	return &ZeroKey{Hash: hash, IssuedAt: now, ExpiresAt: now.Add(defaultKeyLifetime)}
}

// DeriveZeroID computes a purpose-scoped, one-way, deterministic derivation
// of parent: hash = HMAC-SHA256(ctx.ContextSalt, parent.Hash || purpose).
// The salt is copied from the parent, preserving an opaque linkage usable
// only by the holder (spec §4.2). Different purposes yield unlinkable
// hashes (ZK3); the same (parent, purpose) pair always yields the same
// hash.
func DeriveZeroID(ctx *ZeroContext, parent *ZeroID, purpose string) *ZeroID {
	msg := append(append([]byte{}, parent.Hash[:]...), []byte(purpose)...)
	hash := HmacSha256(ctx.ContextSalt[:], msg)
	return &ZeroID{Version: zidVersion, Hash: hash, Salt: parent.Salt, CreatedAt: time.Now()}
}

// CreateProof computes digest = SHA256(zid.Hash || challenge).
func CreateProof(zid *ZeroID, challenge Challenge) *Proof {
	digest := Sha256(zid.Hash[:], challenge[:])
	return &Proof{Digest: digest, Challenge: challenge, CreatedAt: time.Now()}
}

// VerifyProof recomputes the expected digest and compares it to proof.Digest
// in constant time (spec §4.2, §9). If key is non-nil, its expiry is also
// checked (Open Question in spec §9, resolved: expiry is mandatory when a
// key is presented).
func VerifyProof(proof *Proof, zid *ZeroID, key *ZeroKey) bool {
	if key != nil && time.Now().After(key.ExpiresAt) {
		return false
	}
	expected := Sha256(zid.Hash[:], proof.Challenge[:])
	return CtEqual(proof.Digest[:], expected[:])
}

// SaveZeroID writes a fixed-layout record to path:
//
//	version(1B) || reserved(7B) || hash(32B) || salt(32B) || created_at(8B LE unix seconds)
//
// The write is atomic (write-to-temp, rename) per spec §5.
func SaveZeroID(zid *ZeroID, path string) error {
	buf := make([]byte, zidRecordSize)
	buf[0] = zid.Version
	copy(buf[8:40], zid.Hash[:])
	copy(buf[40:72], zid.Salt[:])
	binary.LittleEndian.PutUint64(buf[72:80], uint64(zid.CreatedAt.Unix()))
	return atomicWriteFile(path, buf)
}

// SaveZeroKey writes hash(32B) || issued_at(8B) || expires_at(8B) to path.
// SaveZeroID and SaveZeroKey must never be called with the same path for the
// same identity (ZK1) — callers are required to supply distinct paths, and
// this function rejects an attempt to colocate.
func SaveZeroKey(key *ZeroKey, zidPath, keyPath string) error {
	if zidPath == keyPath {
		return NewError(CodeKeyCollocation, SeverityFatalSession)
	}
	buf := make([]byte, keyRecordSize)
	copy(buf[0:32], key.Hash[:])
	binary.LittleEndian.PutUint64(buf[32:40], uint64(key.IssuedAt.Unix()))
	binary.LittleEndian.PutUint64(buf[40:48], uint64(key.ExpiresAt.Unix()))
	return atomicWriteFile(keyPath, buf)
}

// LoadZeroID reads and validates a ZeroID record from path.
func LoadZeroID(path string) (*ZeroID, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load zero id: %w", err)
	}
	if len(buf) != zidRecordSize {
		return nil, WrapError(CodeCorruptArtifact, SeverityFatalSession,
			fmt.Errorf("expected %d bytes, got %d", zidRecordSize, len(buf)))
	}
	if buf[0] != zidVersion {
		return nil, WrapError(CodeCorruptArtifact, SeverityFatalSession,
			fmt.Errorf("unsupported version %d", buf[0]))
	}
	zid := &ZeroID{Version: buf[0]}
	copy(zid.Hash[:], buf[8:40])
	copy(zid.Salt[:], buf[40:72])
	zid.CreatedAt = time.Unix(int64(binary.LittleEndian.Uint64(buf[72:80])), 0)
	return zid, nil
}

// LoadZeroKey reads and validates a ZeroKey record from path.
func LoadZeroKey(path string) (*ZeroKey, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load zero key: %w", err)
	}
	if len(buf) != keyRecordSize {
		return nil, WrapError(CodeCorruptArtifact, SeverityFatalSession,
			fmt.Errorf("expected %d bytes, got %d", keyRecordSize, len(buf)))
	}
	key := &ZeroKey{}
	copy(key.Hash[:], buf[0:32])
	key.IssuedAt = time.Unix(int64(binary.LittleEndian.Uint64(buf[32:40])), 0)
	key.ExpiresAt = time.Unix(int64(binary.LittleEndian.Uint64(buf[40:48])), 0)
	return key, nil
}

// atomicWriteFile writes data to a temp file in the same directory as path
// and renames it into place, so a crash mid-write never leaves a partial
// identity artifact on disk (spec §5).
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename artifact into place: %w", err)
	}
	return nil
}
