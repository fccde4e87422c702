// Package bottle matches a host against a descriptor's prebuilt artifact table.
package bottle

import (
	"strconv"
	"strings"

	"go.trai.ch/brewplan/internal/core/domain"
)

// Select returns the prebuilt artifact whose tag equals the host's OS version tag.
// A missing table, an unknown tag or a tag for another platform all mean no match.
func Select(desc *domain.PackageDescriptor, facts domain.PlatformFacts) (domain.BottleRef, bool) {
	entry, ok := desc.Bottle.Lookup(facts.OSVersionTag)
	if !ok {
		return domain.BottleRef{}, false
	}
	return domain.BottleRef{
		Tag:     entry.Tag,
		URL:     URL(desc, entry.Tag),
		Digest:  entry.Digest,
		Cellar:  desc.Bottle.Cellar,
		Rebuild: desc.Bottle.Rebuild,
	}, true
}

// URL returns the download location of the bottle for tag.
func URL(desc *domain.PackageDescriptor, tag string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(desc.Bottle.Root(), "/"))
	b.WriteString("/")
	b.WriteString(desc.Name)
	b.WriteString("-")
	b.WriteString(desc.FullVersion())
	b.WriteString(".")
	b.WriteString(tag)
	b.WriteString(".bottle")
	if desc.Bottle != nil && desc.Bottle.Rebuild > 0 {
		b.WriteString(".")
		b.WriteString(strconv.Itoa(desc.Bottle.Rebuild))
	}
	b.WriteString(".tar.gz")
	return b.String()
}

// FileName returns the local file name of the referenced bottle.
func FileName(ref domain.BottleRef) string {
	return ref.URL[strings.LastIndex(ref.URL, "/")+1:]
}
