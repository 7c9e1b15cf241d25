// Package normalize converts raw adapter items into canonical components
// and computes their content fingerprints.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fwojciec/uidex"
)

// Item maps a raw adapter item into the canonical component shape for the
// given source. It is deterministic: identical content always yields the
// same record and fingerprint, regardless of slice ordering or incidental
// whitespace in the input.
//
// Returns EMALFORMED when a required field (name, source URL, code) is
// missing or empty; callers skip such items without failing the job.
func Item(sourceID string, raw *uidex.RawItem) (*uidex.Component, error) {
	name := strings.TrimSpace(raw.Name)
	sourceURL := strings.TrimSpace(raw.SourceURL)
	code := strings.TrimSpace(raw.Code)

	if name == "" {
		return nil, uidex.Errorf(uidex.EMALFORMED, "item %q: name missing", raw.Slug)
	}
	if sourceURL == "" {
		return nil, uidex.Errorf(uidex.EMALFORMED, "item %q: source URL missing", raw.Slug)
	}
	if code == "" {
		return nil, uidex.Errorf(uidex.EMALFORMED, "item %q: source code missing", raw.Slug)
	}

	slug := strings.TrimSpace(raw.Slug)
	if slug == "" {
		slug = slugify(name)
	}

	c := &uidex.Component{
		SourceID:     sourceID,
		Slug:         slug,
		Name:         name,
		Description:  strings.TrimSpace(raw.Description),
		Tags:         canonicalSet(raw.Tags, strings.ToLower),
		Code:         code,
		SourceURL:    sourceURL,
		Dependencies: canonicalSet(raw.Dependencies, nil),
		Variants:     canonicalSet(raw.Variants, nil),
	}
	c.Fingerprint = Fingerprint(c)

	return c, nil
}

// Fingerprint computes the sha256 hex digest of the component's canonical
// content. Volatile fields (views, timestamps, activity flag) are excluded,
// so two components with equal fingerprints are unchanged by definition.
func Fingerprint(c *uidex.Component) string {
	h := sha256.New()
	writeField(h, "name", c.Name)
	writeField(h, "description", c.Description)
	writeField(h, "code", c.Code)
	writeList(h, "tags", c.Tags)
	writeList(h, "dependencies", c.Dependencies)
	writeList(h, "variants", c.Variants)
	return hex.EncodeToString(h.Sum(nil))
}

// writeField writes one length-prefixed field so that adjacent fields can
// never collide ("ab"+"c" vs "a"+"bc").
func writeField(w io.Writer, name, value string) {
	fmt.Fprintf(w, "%s:%d:", name, len(value))
	io.WriteString(w, value)
}

func writeList(w io.Writer, name string, values []string) {
	fmt.Fprintf(w, "%s:%d:", name, len(values))
	for _, v := range values {
		writeField(w, "v", v)
	}
}

// canonicalSet trims, optionally transforms, sorts and de-duplicates a
// string slice, dropping empties. Returns nil for an empty result so that
// absent and empty inputs normalize identically.
func canonicalSet(values []string, transform func(string) string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if transform != nil {
			v = transform(v)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// slugify derives a URL-safe slug from a display name.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true // suppress leading dash
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
