// Package snapshot exports and imports the routines document, locally or through a bucket.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agendasmart/pkg/bucket"
	"agendasmart/pkg/routine"
	"agendasmart/pkg/storage"
)

// FileName is the default name of an exported document.
const FileName = "agendasmart-routines.json"

var ErrInvalidDocument = errors.New("invalid routines document")

// Document is the exported state.
type Document struct {
	Routines        []routine.Routine `json:"routines"`
	ActiveRoutineID string            `json:"activeRoutineId"`
}

// Result of an import, telling which fields were applied.
type Result struct {
	Routines         int  `json:"routines"`
	RoutinesImported bool `json:"routinesImported"`
	ActiveImported   bool `json:"activeImported"`
}

// Export reads the document from the store.
func Export(store routine.Store) Document {
	return Document{
		Routines:        routine.List(store),
		ActiveRoutineID: routine.ActiveID(store),
	}
}

// Marshal exports the document as JSON.
func Marshal(store routine.Store) ([]byte, error) {
	return json.Marshal(Export(store))
}

// Import applies a JSON document. A field with the wrong type is ignored, the other one still applies.
func Import(store routine.Store, data []byte) (Result, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	result := Result{}

	var routines []routine.Routine
	if field, ok := raw["routines"]; ok && json.Unmarshal(field, &routines) == nil && routines != nil {
		if !store.SetItem(storage.KeyRoutines, routines) {
			return result, fmt.Errorf("couldn't store the imported routines")
		}
		result.RoutinesImported = true
		result.Routines = len(routines)
	}

	var active string
	if field, ok := raw["activeRoutineId"]; ok && json.Unmarshal(field, &active) == nil {
		if !store.SetItem(storage.KeyActiveRoutineID, active) {
			return result, fmt.Errorf("couldn't store the imported active routine")
		}
		result.ActiveImported = true
	}

	return result, nil
}

// ObjectKey names an export stored in a bucket.
func ObjectKey(t time.Time) string {
	return fmt.Sprintf("snapshots/%s-%s", t.UTC().Format("20060102T150405Z"), FileName)
}

// Upload exports the document to the bucket under key.
func Upload(ctx context.Context, store routine.Store, objects bucket.ObjectStore, bucketName, key string) error {
	data, err := Marshal(store)
	if err != nil {
		return fmt.Errorf("export routines: %w", err)
	}
	if err := objects.PutObject(ctx, bucketName, key, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("upload snapshot: %w", err)
	}
	return nil
}

// Download imports the document stored in the bucket under key.
func Download(ctx context.Context, store routine.Store, objects bucket.ObjectStore, bucketName, key string) (Result, error) {
	data, err := objects.GetObject(ctx, bucketName, key)
	if err != nil {
		return Result{}, fmt.Errorf("download snapshot: %w", err)
	}
	return Import(store, data)
}
