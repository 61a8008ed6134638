package document

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scentlab/scentdex/internal/domain"
	domdoc "github.com/scentlab/scentdex/internal/domain/document"
)

// IndexName is the FT index covering perfume documents.
const IndexName = domain.KeyPrefix + "perfume:idx"

// keyPrefix namespaces perfume document keys.
const keyPrefix = domain.KeyPrefix + "perfume:"

// Key returns the store key for a perfume document id.
func Key(id string) string {
	return keyPrefix + id
}

// IDFromKey strips the document key prefix.
func IDFromKey(key string) string {
	return strings.TrimPrefix(key, keyPrefix)
}

// parseJSONGetResult unmarshals a JSON.GET "$" reply (an array with a single
// document) into a Document.
func parseJSONGetResult(raw []byte) (domdoc.Document, error) {
	var docs []domdoc.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return domdoc.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	if len(docs) == 0 {
		return domdoc.Document{}, domain.ErrNotFound
	}
	return docs[0], nil
}

// ParseEntryJSON unmarshals the "$" return field of an FT.SEARCH entry.
// RediSearch returns the bare JSON object for a "$" RETURN on JSON indexes.
func ParseEntryJSON(raw string) (domdoc.Document, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		return parseJSONGetResult([]byte(trimmed))
	}
	var doc domdoc.Document
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return domdoc.Document{}, fmt.Errorf("unmarshal entry: %w", err)
	}
	return doc, nil
}
