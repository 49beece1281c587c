// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns JSON card intermediates into pipe-delimited deck
// CSVs. Intermediates are re-validated on the way through: the extract stage
// normally writes well-formed files, but nothing stops a user from dropping
// hand-edited JSON into the queue directory.
package convert

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pdiddy/deck-engine/internal/cards"
	"github.com/pdiddy/deck-engine/internal/deck"
	"github.com/pdiddy/deck-engine/internal/errorlog"
	"github.com/pdiddy/deck-engine/internal/fsutil"
	"github.com/pdiddy/deck-engine/pkg/types"
)

const stage = "convert"

// cardSchema validates one card element of an intermediate file.
const cardSchema = `{
	"type": "object",
	"required": ["main_content", "extra_field", "importance_value"],
	"properties": {
		"main_content": {"type": "string"},
		"extra_field": {"type": "string"},
		"importance_value": {"type": "string"}
	}
}`

var compiledCardSchema = jsonschema.MustCompileString("card.json", cardSchema)

// BatchResult holds the outcome of a convert run.
type BatchResult struct {
	Converted int
	Failed    int
}

// Total returns the number of intermediates processed.
func (r BatchResult) Total() int { return r.Converted + r.Failed }

// HasFailures reports whether any intermediates failed.
func (r BatchResult) HasFailures() bool { return r.Failed > 0 }

// Run converts every JSON intermediate in the JSON directory into a CSV in
// the CSV directory. Per-file failures are logged and skipped.
func Run(dirs types.DirsConfig, elog *errorlog.Log, w io.Writer) (BatchResult, error) {
	files, err := fsutil.ListFiles(dirs.JSON, ".json")
	if err != nil {
		elog.Stagef(stage, "", "JSON directory unavailable: %v", err)
		return BatchResult{}, err
	}
	fmt.Fprintf(w, "[convert] found %d JSON file(s) to process\n", len(files))

	var result BatchResult
	for i, name := range files {
		fmt.Fprintf(w, "[convert] (%d/%d) processing %s\n", i+1, len(files), name)

		count, drops, err := convertOne(dirs, name)
		if err != nil {
			elog.Stagef(stage, name, "%v", err)
			fmt.Fprintf(w, "[convert] skipping %s: %v\n", name, err)
			result.Failed++
			continue
		}
		if drops.Dropped > 0 {
			fmt.Fprintf(w, "[convert] %s: %s\n", name, drops)
			elog.Stagef(stage, name, "%s", drops)
		}

		result.Converted++
		fmt.Fprintf(w, "[convert] wrote %d card(s) to %s\n", count, csvName(name))
	}

	fmt.Fprintf(w, "[convert] done: %d converted, %d failed\n", result.Converted, result.Failed)
	return result, nil
}

func csvName(jsonName string) string {
	return strings.TrimSuffix(jsonName, filepath.Ext(jsonName)) + ".csv"
}

func convertOne(dirs types.DirsConfig, name string) (int, cards.DropReport, error) {
	data, err := os.ReadFile(filepath.Join(dirs.JSON, name))
	if err != nil {
		return 0, cards.DropReport{}, fmt.Errorf("reading JSON: %w", err)
	}

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, cards.DropReport{}, fmt.Errorf("decoding JSON: %w", err)
	}

	records, drops, err := validate(payload)
	if err != nil {
		return 0, cards.DropReport{}, err
	}

	csvPath := filepath.Join(dirs.CSV, csvName(name))
	if err := deck.WriteCards(csvPath, records); err != nil {
		return 0, cards.DropReport{}, err
	}
	return len(records), drops, nil
}

// validate enforces the card schema with the same drop-vs-reject split as the
// extract stage: a non-array payload or a non-object element fails the whole
// file, an object element failing the schema is dropped, the rest survive.
func validate(payload any) ([]types.Card, cards.DropReport, error) {
	list, ok := payload.([]any)
	if !ok {
		return nil, cards.DropReport{}, fmt.Errorf("%w: intermediate JSON is not a list", cards.ErrSchema)
	}

	var report cards.DropReport
	missing := map[string]bool{}
	records := make([]types.Card, 0, len(list))

	for i, element := range list {
		obj, ok := element.(map[string]any)
		if !ok {
			return nil, cards.DropReport{}, fmt.Errorf("%w: card #%d is not an object", cards.ErrSchema, i+1)
		}
		if err := compiledCardSchema.Validate(element); err != nil {
			report.Dropped++
			for _, field := range missingFields(obj) {
				missing[field] = true
			}
			continue
		}
		records = append(records, types.Card{
			MainContent:     obj["main_content"].(string),
			ExtraField:      obj["extra_field"].(string),
			ImportanceValue: obj["importance_value"].(string),
		})
	}

	for field := range missing {
		report.MissingFields = append(report.MissingFields, field)
	}
	sort.Strings(report.MissingFields)

	return records, report, nil
}

// missingFields names the required fields an element lacks, counting null
// and non-string values as missing.
func missingFields(obj map[string]any) []string {
	var absent []string
	for _, field := range []string{"main_content", "extra_field", "importance_value"} {
		if _, ok := obj[field].(string); !ok {
			absent = append(absent, field)
		}
	}
	return absent
}
