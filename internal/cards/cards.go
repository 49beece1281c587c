// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cards validates and canonicalizes raw extraction output into
// well-formed flashcard records.
package cards

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/deck-engine/pkg/types"
)

// ErrSchema marks payloads that are structurally unusable: a non-array top
// level, or an element that is not an object. Individual elements missing
// required fields are dropped instead (see DropReport).
var ErrSchema = errors.New("schema failure")

// DropReport records elements removed during validation. Dropping is a
// batch-level success with a reduced record set, not a failure.
type DropReport struct {
	// Dropped is the number of elements removed.
	Dropped int

	// MissingFields lists the distinct field names whose absence caused
	// drops, sorted.
	MissingFields []string
}

// String renders the report for console and error-log output.
func (r DropReport) String() string {
	if r.Dropped == 0 {
		return "no records dropped"
	}
	return fmt.Sprintf("dropped %d record(s) missing %s", r.Dropped, strings.Join(r.MissingFields, ", "))
}

// Validate filters a decoded JSON payload into card records. The top-level
// value must be an array and every element an object, otherwise the whole
// batch is rejected with ErrSchema. An element missing any of the three
// required fields (absent, null, or non-string) is dropped individually.
func Validate(payload any) ([]types.Card, DropReport, error) {
	list, ok := payload.([]any)
	if !ok {
		return nil, DropReport{}, fmt.Errorf("%w: response JSON is not a list", ErrSchema)
	}

	var report DropReport
	missing := map[string]bool{}
	result := make([]types.Card, 0, len(list))

	for i, element := range list {
		obj, ok := element.(map[string]any)
		if !ok {
			return nil, DropReport{}, fmt.Errorf("%w: card #%d is not an object", ErrSchema, i+1)
		}

		card, absent := cardFromObject(obj)
		if len(absent) > 0 {
			report.Dropped++
			for _, name := range absent {
				missing[name] = true
			}
			continue
		}
		result = append(result, card)
	}

	for name := range missing {
		report.MissingFields = append(report.MissingFields, name)
	}
	sort.Strings(report.MissingFields)

	return result, report, nil
}

// cardFromObject pulls the three required string fields out of a raw element,
// returning the names of any that are absent, null, or not strings.
func cardFromObject(obj map[string]any) (types.Card, []string) {
	var card types.Card
	var absent []string

	fields := []struct {
		name string
		dst  *string
	}{
		{"main_content", &card.MainContent},
		{"extra_field", &card.ExtraField},
		{"importance_value", &card.ImportanceValue},
	}
	for _, f := range fields {
		value, ok := obj[f.name]
		if !ok {
			absent = append(absent, f.name)
			continue
		}
		s, ok := value.(string)
		if !ok {
			absent = append(absent, f.name)
			continue
		}
		*f.dst = s
	}
	return card, absent
}

// badClozeRe matches a cloze opener with one or two colons; rewriting the
// match to exactly two colons makes normalization idempotent.
var badClozeRe = regexp.MustCompile(`\{\{c(\d+):{1,2}`)

// NormalizeCloze rewrites malformed single-colon cloze markers {{cN:text}}
// to the canonical {{cN::text}} form. Canonical input passes unchanged.
func NormalizeCloze(text string) string {
	return badClozeRe.ReplaceAllString(text, "{{c$1::")
}

// Normalize canonicalizes every string field of the given records in place.
func Normalize(records []types.Card) {
	for i := range records {
		records[i].MainContent = NormalizeCloze(records[i].MainContent)
		records[i].ExtraField = NormalizeCloze(records[i].ExtraField)
		records[i].ImportanceValue = NormalizeCloze(records[i].ImportanceValue)
	}
}

// AppendTag adds tag to each record's importance value: appended with a
// single separating space when content exists, set verbatim otherwise.
func AppendTag(records []types.Card, tag string) {
	for i := range records {
		if records[i].ImportanceValue != "" {
			records[i].ImportanceValue += " " + tag
		} else {
			records[i].ImportanceValue = tag
		}
	}
}

// FileTag derives the tag for a document from its file name: the stem with
// spaces replaced by underscores, prefixed when a prefix is configured.
func FileTag(fileName, prefix string) string {
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	tag := strings.ReplaceAll(stem, " ", "_")
	return prefix + tag
}
