package patches_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/brewplan/internal/engine/enginetest"
	"go.trai.ch/brewplan/internal/engine/patches"
)

func constraint(t *testing.T, s string) domain.VersionConstraint {
	t.Helper()
	c, err := domain.ParseVersionConstraint(s)
	require.NoError(t, err)
	return c
}

func TestSelect_VersionRange(t *testing.T) {
	specs := enginetest.Boost().Patches

	got, err := patches.Select(specs, "1.61.0")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, specs[0].URL, got[0].URL)

	got, err = patches.Select(specs, "1.62.0")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSelect_PreservesOrder(t *testing.T) {
	specs := []domain.PatchSpec{
		{URL: "https://example.com/1.patch"},
		{URL: "https://example.com/2.patch", Applies: constraint(t, ">= 2.0")},
		{URL: "https://example.com/3.patch", Applies: constraint(t, "< 3.0")},
		{URL: "https://example.com/4.patch"},
	}

	got, err := patches.Select(specs, "2.5")
	require.NoError(t, err)

	urls := make([]string, len(got))
	for i, p := range got {
		urls[i] = p.URL
	}
	assert.Equal(t, []string{
		"https://example.com/1.patch",
		"https://example.com/2.patch",
		"https://example.com/3.patch",
		"https://example.com/4.patch",
	}, urls)
}

func TestSelect_Head(t *testing.T) {
	specs := []domain.PatchSpec{
		{URL: "https://example.com/always.patch"},
		{URL: "https://example.com/old.patch", Applies: constraint(t, "< 1.62.0")},
	}

	got, err := patches.Select(specs, domain.HeadVersion)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://example.com/always.patch", got[0].URL)
}

func TestSelect_Empty(t *testing.T) {
	got, err := patches.Select(nil, "1.0")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSelect_InvalidVersion(t *testing.T) {
	specs := []domain.PatchSpec{{URL: "https://example.com/x.patch", Applies: constraint(t, "< 2.0")}}
	_, err := patches.Select(specs, "not-a-version")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrInvalidVersion.Error())
}
