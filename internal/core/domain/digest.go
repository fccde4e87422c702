package domain

import (
	"encoding/hex"
	"strings"

	"github.com/opencontainers/go-digest"
	"go.trai.ch/zerr"
)

// DigestAlgorithm names a checksum algorithm used by descriptors.
type DigestAlgorithm string

const (
	// DigestSHA256 is the current checksum algorithm.
	DigestSHA256 DigestAlgorithm = "sha256"
	// DigestSHA1 is accepted for legacy descriptors only.
	DigestSHA1 DigestAlgorithm = "sha1"
)

// Digest is an algorithm-qualified checksum.
type Digest struct {
	Algorithm DigestAlgorithm
	Hex       string
}

// NewDigest validates and returns a digest for the given algorithm and hex encoding.
func NewDigest(algorithm DigestAlgorithm, encoded string) (Digest, error) {
	encoded = strings.ToLower(strings.TrimSpace(encoded))
	switch algorithm {
	case DigestSHA256:
		if err := digest.NewDigestFromEncoded(digest.SHA256, encoded).Validate(); err != nil {
			return Digest{}, zerr.With(zerr.Wrap(err, ErrInvalidDigest.Error()), "digest", encoded)
		}
	case DigestSHA1:
		if len(encoded) != 40 {
			return Digest{}, zerr.With(ErrInvalidDigest, "digest", encoded)
		}
		if _, err := hex.DecodeString(encoded); err != nil {
			return Digest{}, zerr.With(ErrInvalidDigest, "digest", encoded)
		}
	default:
		return Digest{}, zerr.With(ErrInvalidDigest, "algorithm", string(algorithm))
	}
	return Digest{Algorithm: algorithm, Hex: encoded}, nil
}

// ParseDigest parses the "algorithm:hex" form produced by String.
func ParseDigest(s string) (Digest, error) {
	algorithm, encoded, ok := strings.Cut(s, ":")
	if !ok {
		return Digest{}, zerr.With(ErrInvalidDigest, "digest", s)
	}
	return NewDigest(DigestAlgorithm(algorithm), encoded)
}

// IsZero reports whether no digest was declared.
func (d Digest) IsZero() bool {
	return d.Hex == ""
}

// Legacy reports whether the digest uses a deprecated algorithm.
func (d Digest) Legacy() bool {
	return d.Algorithm == DigestSHA1
}

// String returns the "algorithm:hex" form.
func (d Digest) String() string {
	if d.IsZero() {
		return ""
	}
	return string(d.Algorithm) + ":" + d.Hex
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Digest{}
		return nil
	}
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
