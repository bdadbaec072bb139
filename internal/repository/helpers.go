// Package repository stores forms, audit logs and accounts in OxiDB.
package repository

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// toDoc converts a model into an OxiDB document. OxiDB assigns its own
// numeric _id; models are addressed by their iuid field instead.
func toDoc(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal %T doc: %w", v, err)
	}
	delete(doc, "_id")
	return doc, nil
}

// fromDoc converts an OxiDB document into a model.
func fromDoc[T any](doc map[string]any) (*T, error) {
	delete(doc, "_id")
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal doc: %w", err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return &v, nil
}

// fromDocs converts documents, skipping and logging any that do not
// decode so that one bad document does not hide the rest.
func fromDocs[T any](collection string, docs []map[string]any) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		iuid, _ := d["iuid"].(string)
		v, err := fromDoc[T](d)
		if err != nil {
			slog.Warn("skipping undecodable document",
				slog.String("collection", collection),
				slog.String("iuid", iuid),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, *v)
	}
	return out
}
