package fs

import (
	"crypto/sha1" //nolint:gosec // Legacy descriptors still declare sha1 checksums
	"encoding/hex"
	"errors"
	"io"
	iofs "io/fs"
	"os"

	"github.com/opencontainers/go-digest"
	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/brewplan/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Verifier = (*Verifier)(nil)

// Verifier checks downloaded artifacts against their declared digests.
type Verifier struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// VerifyArtifact streams the file at path through the digest's algorithm.
// An artifact without a declared digest is accepted.
func (v *Verifier) VerifyArtifact(path string, d domain.Digest) error {
	if d.IsZero() {
		return nil
	}

	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return zerr.With(domain.ErrArtifactNotFound, "path", path)
		}
		return zerr.With(zerr.Wrap(err, "failed to open artifact"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	var ok bool
	switch d.Algorithm {
	case domain.DigestSHA256:
		ok, err = verifySHA256(f, d.Hex)
	case domain.DigestSHA1:
		ok, err = verifySHA1(f, d.Hex)
	default:
		return zerr.With(domain.ErrInvalidDigest, "algorithm", string(d.Algorithm))
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to hash artifact"), "path", path)
	}
	if !ok {
		return zerr.With(zerr.With(domain.ErrDigestMismatch, "path", path), "expected", d.String())
	}
	return nil
}

func verifySHA256(r io.Reader, encoded string) (bool, error) {
	verifier := digest.NewDigestFromEncoded(digest.SHA256, encoded).Verifier()
	if _, err := io.Copy(verifier, r); err != nil {
		return false, err
	}
	return verifier.Verified(), nil
}

func verifySHA1(r io.Reader, encoded string) (bool, error) {
	h := sha1.New() //nolint:gosec // Legacy descriptors still declare sha1 checksums
	if _, err := io.Copy(h, r); err != nil {
		return false, err
	}
	return hex.EncodeToString(h.Sum(nil)) == encoded, nil
}
