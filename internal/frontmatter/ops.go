package frontmatter

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inful/mdfp"
)

const (
	keyContributors = "contributors"
	keyLastmod      = "lastmod"
	keyUID          = "uid"
)

// EnsureUID ensures the document carries a stable uid.
//
// It only generates a new uid when the key is missing.
func (d *Doc) EnsureUID() (uidStr string, changed bool, err error) {
	if d.Fields == nil {
		return "", false, errors.New("fields map is nil")
	}

	if v, ok := d.Fields[keyUID]; ok {
		return strings.TrimSpace(fmt.Sprint(v)), false, nil
	}

	uidStr = uuid.NewString()
	d.Fields[keyUID] = uidStr
	return uidStr, true, nil
}

// SetContributors replaces the contributors list.
//
// The list is regenerated wholesale on each run (derived, disposable state),
// so ordering is the caller's contract; changed reports whether the stored
// value differs from the previous one.
func (d *Doc) SetContributors(names []string) (changed bool, err error) {
	if d.Fields == nil {
		return false, errors.New("fields map is nil")
	}

	if len(names) == 0 {
		if _, ok := d.Fields[keyContributors]; !ok {
			return false, nil
		}
		delete(d.Fields, keyContributors)
		return true, nil
	}

	existing := contributorsAsStrings(d.Fields[keyContributors])
	if slices.Equal(existing, names) {
		return false, nil
	}

	d.Fields[keyContributors] = slices.Clone(names)
	return true, nil
}

// Contributors returns the current contributors list (empty when absent).
func (d *Doc) Contributors() []string {
	return contributorsAsStrings(d.Fields[keyContributors])
}

func contributorsAsStrings(v any) []string {
	switch vv := v.(type) {
	case nil:
		return nil
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return []string{vv}
	default:
		return []string{fmt.Sprint(v)}
	}
}

// UpsertFingerprint computes and upserts the canonical content fingerprint.
//
// Canonicalization excludes fingerprint, lastmod, uid and contributors so the
// derived metadata never invalidates itself. If the fingerprint changes,
// lastmod is updated to the provided time in UTC (YYYY-MM-DD).
func (d *Doc) UpsertFingerprint(now time.Time) (fingerprint string, changed bool, err error) {
	if d.Fields == nil {
		return "", false, errors.New("fields map is nil")
	}

	oldFP, _ := d.Fields[mdfp.FingerprintField].(string)

	fieldsForHash := make(map[string]any, len(d.Fields))
	for k, v := range d.Fields {
		switch k {
		case mdfp.FingerprintField, keyLastmod, keyUID, keyContributors:
			continue
		}
		fieldsForHash[k] = v
	}

	frontmatterForHash := ""
	if len(fieldsForHash) > 0 {
		serialized, serr := SerializeYAML(fieldsForHash, Style{Newline: "\n"})
		if serr != nil {
			return "", false, serr
		}
		frontmatterForHash = trimSingleTrailingNewline(string(serialized))
	}

	fingerprint = mdfp.CalculateFingerprintFromParts(frontmatterForHash, string(d.Body))

	if existing, ok := d.Fields[mdfp.FingerprintField].(string); !ok || existing != fingerprint {
		d.Fields[mdfp.FingerprintField] = fingerprint
		changed = true
	}

	if fingerprint != "" && strings.TrimSpace(fingerprint) != strings.TrimSpace(oldFP) {
		d.Fields[keyLastmod] = now.UTC().Format("2006-01-02")
		changed = true
	}

	return fingerprint, changed, nil
}

func trimSingleTrailingNewline(s string) string {
	if before, ok := strings.CutSuffix(s, "\r\n"); ok {
		return before
	}
	if before, ok := strings.CutSuffix(s, "\n"); ok {
		return before
	}
	return s
}
