package printing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveCacheKey_OrderIndependent(t *testing.T) {
	fp := ContentIdentity{URL: "https://example.com"}.Fingerprint()

	a := RenderOptions{}
	a["orientation"] = "Landscape"
	a["copies"] = "2"
	a["margin-top"] = "5mm"

	b := RenderOptions{}
	b["margin-top"] = "5mm"
	b["copies"] = "2"
	b["orientation"] = "Landscape"

	first := DeriveCacheKey(fp, a)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, DeriveCacheKey(fp, MergeOptions(nil, b)))
	}
	assert.Len(t, first.String(), 64)
}

func TestDeriveCacheKey_SensitiveToEveryValue(t *testing.T) {
	schema := DefaultSchema()
	fp := ContentIdentity{URL: "https://example.com"}.Fingerprint()
	base := schema.Defaults()
	baseKey := DeriveCacheKey(fp, base)

	seen := map[CacheKey]string{baseKey: "defaults"}
	for _, spec := range schema.Specs() {
		changed := MergeOptions(base, nil)
		changed[spec.Name] = spec.Default + "x"

		key := DeriveCacheKey(fp, changed)
		prev, dup := seen[key]
		assert.False(t, dup, "%s collides with %s", spec.Name, prev)
		seen[key] = spec.Name
	}
}

func TestDeriveCacheKey_SensitiveToFingerprint(t *testing.T) {
	opts := DefaultSchema().Defaults()
	a := DeriveCacheKey(ContentIdentity{URL: "https://a.example"}.Fingerprint(), opts)
	b := DeriveCacheKey(ContentIdentity{URL: "https://b.example"}.Fingerprint(), opts)
	assert.NotEqual(t, a, b)
}

func TestDeriveCacheKey_FieldBoundaries(t *testing.T) {
	fp := Fingerprint("fp")

	// Same concatenated text, different name/value split.
	a := DeriveCacheKey(fp, RenderOptions{"ab": "c"})
	b := DeriveCacheKey(fp, RenderOptions{"a": "bc"})
	assert.NotEqual(t, a, b)

	c := DeriveCacheKey(fp, RenderOptions{"a": "1", "b": "2"})
	d := DeriveCacheKey(fp, RenderOptions{"a": "1b2"})
	assert.NotEqual(t, c, d)
}

func TestDeriveCacheKey_ManyDistinctOptionSets(t *testing.T) {
	fp := Fingerprint("fp")
	keys := make(map[CacheKey]struct{})
	for i := 0; i < 500; i++ {
		opts := RenderOptions{"copies": fmt.Sprint(i), "margin-top": fmt.Sprintf("%dmm", i%7)}
		keys[DeriveCacheKey(fp, opts)] = struct{}{}
	}
	assert.Len(t, keys, 500)
}
