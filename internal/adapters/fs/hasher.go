package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/brewplan/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// planKeyVersion is mixed into every key so a change of the plan encoding invalidates old entries.
const planKeyVersion = "brewplan-plan-v1"

// Hasher computes plan cache keys.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

// ComputePlanKey computes a single hash representing the descriptor contents
// and every resolution parameter that can influence the plan.
func (h *Hasher) ComputePlanKey(descriptorPath string, params domain.ResolutionParams) (string, error) {
	hasher := xxhash.New()
	_, _ = hasher.WriteString(planKeyVersion)
	_, _ = hasher.Write([]byte{0})

	fileHash, err := h.ComputeFileHash(descriptorPath)
	if err != nil {
		return "", err
	}
	if err := binary.Write(hasher, binary.LittleEndian, fileHash); err != nil {
		return "", zerr.Wrap(err, "failed to write hash to digest")
	}

	h.hashSelections(params.Selections, hasher)
	h.hashFacts(params.Facts, hasher)
	h.hashMap(params.Inventory, hasher)
	writeField(hasher, strconv.FormatBool(params.Head))
	writeField(hasher, strconv.FormatBool(params.BuildFromSource))

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

// hashSelections hashes the selections in the order given; order decides which alias wins a duplicate.
func (h *Hasher) hashSelections(selections []domain.Selection, hasher *xxhash.Digest) {
	for _, s := range selections {
		writeField(hasher, s.Name)
		writeField(hasher, s.Value)
		writeField(hasher, s.Raw)
	}
	_, _ = hasher.Write([]byte{0})
}

func (h *Hasher) hashFacts(f domain.PlatformFacts, hasher *xxhash.Digest) {
	for _, v := range []string{
		f.OSFamily,
		f.OSVersion,
		f.OSVersionTag,
		f.Arch,
		strconv.Itoa(f.WordSize),
		f.Compiler.Name,
		f.Compiler.Version,
		strconv.Itoa(f.Compiler.Build),
		f.Compiler.CC,
		f.Compiler.CXX,
		strconv.Itoa(f.JobSlots),
		f.Prefix,
		f.Cellar,
	} {
		writeField(hasher, v)
	}
	_, _ = hasher.Write([]byte{0})
	h.hashMap(f.Env, hasher)
}

// hashMap hashes key/value pairs in a deterministic order.
func (h *Hasher) hashMap(m map[string]string, hasher *xxhash.Digest) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{'='})
		_, _ = hasher.WriteString(m[k])
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}

func writeField(hasher *xxhash.Digest, v string) {
	_, _ = hasher.WriteString(v)
	_, _ = hasher.Write([]byte{0})
}
