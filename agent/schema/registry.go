// Package schema declares the storage keys the model may touch. The registry
// is the only place that knows which keys exist and how their values are
// validated and normalized; the tool catalog, the prompt and the executor all
// read from it.
package schema

import (
	"fmt"
	"sort"
	"strings"

	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
)

type ValueType string

const (
	TypeNumber  ValueType = "number"
	TypeBoolean ValueType = "boolean"
	TypeText    ValueType = "text"
	TypeEnum    ValueType = "enum"
)

// NormalizeFunc canonicalizes a raw value. It must be pure.
type NormalizeFunc func(raw string) (string, error)

type Entry struct {
	Key             string
	Type            ValueType
	Description     string
	BehaviorNotes   string
	Examples        []string
	SupportedValues []string
	Default         string

	// Normalizer overrides the default normalization for Type.
	Normalizer NormalizeFunc
}

func (e Entry) Normalize(raw string) (string, error) {
	if e.Normalizer == nil {
		return "", fmt.Errorf("%w: key=%s: no normalizer", contractx.ErrSchemaViolation, e.Key)
	}
	value, err := e.Normalizer(raw)
	if err != nil {
		return "", fmt.Errorf("%w: key=%s: %v", contractx.ErrSchemaViolation, e.Key, err)
	}
	return value, nil
}

func (e Entry) Validate(raw string) bool {
	_, err := e.Normalize(raw)
	return err == nil
}

// Describe is the one-line behavior note used in the model instructions.
func (e Entry) Describe() string {
	return fmt.Sprintf("%s: %s", e.Key, e.BehaviorNotes)
}

type Registry struct {
	entries map[string]Entry
	order   []string
}

func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]Entry, len(entries)),
		order:   make([]string, 0, len(entries)),
	}
	for _, e := range entries {
		key := strings.TrimSpace(e.Key)
		if key == "" {
			return nil, fmt.Errorf("%w: storage key is empty", contractx.ErrValidation)
		}
		if _, dup := r.entries[key]; dup {
			return nil, fmt.Errorf("%w: duplicate storage key=%s", contractx.ErrValidation, key)
		}
		e.Key = key
		if e.Normalizer == nil {
			normalizer, err := defaultNormalizer(e)
			if err != nil {
				return nil, err
			}
			e.Normalizer = normalizer
		}
		r.entries[key] = e
		r.order = append(r.order, key)
	}
	sort.Strings(r.order)
	return r, nil
}

func defaultNormalizer(e Entry) (NormalizeFunc, error) {
	switch e.Type {
	case TypeNumber:
		return normalizeNumber, nil
	case TypeBoolean:
		return normalizeBoolean, nil
	case TypeText:
		return normalizeText, nil
	case TypeEnum:
		if len(e.SupportedValues) == 0 {
			return nil, fmt.Errorf("%w: enum key=%s has no supported values", contractx.ErrValidation, e.Key)
		}
		return normalizeEnum(e.SupportedValues...), nil
	default:
		return nil, fmt.Errorf("%w: key=%s has unknown type %q and no normalizer", contractx.ErrValidation, e.Key, e.Type)
	}
}

func MustNewRegistry(entries ...Entry) *Registry {
	r, err := NewRegistry(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Lookup(key string) (Entry, bool) {
	e, ok := r.entries[key]
	return e, ok
}

// Keys returns the registered keys in a stable order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.entries[key])
	}
	return out
}

func (r *Registry) Normalize(key, raw string) (string, error) {
	e, ok := r.entries[key]
	if !ok {
		return "", fmt.Errorf("%w: unknown storage key=%q", contractx.ErrSchemaViolation, key)
	}
	return e.Normalize(raw)
}

func (r *Registry) Validate(key, raw string) bool {
	e, ok := r.entries[key]
	return ok && e.Validate(raw)
}
