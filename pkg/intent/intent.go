// Package intent turns loosely shaped external requests into typed mutation
// batches and scheduling policies. Field names are matched ignoring case,
// underscores and dashes, so "vehicleId", "vehicle_id" and "VEHICLE-ID" are
// the same key. Payloads may be JSON with comments and trailing commas.
package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/kilianp07/fleetmaint/core/model"
	"github.com/kilianp07/fleetmaint/core/mutation"
)

// Batch is a decoded mutation request.
type Batch struct {
	Mutations []mutation.Mutation
	Policy    model.Policy
}

// DecodeBatch accepts a bare mutation array, a single mutation object, or an
// object holding "mutations" and an optional "policy".
func DecodeBatch(data []byte) (Batch, error) {
	std, err := standardize(data)
	if err != nil {
		return Batch{}, err
	}
	trimmed := strings.TrimSpace(string(std))
	if strings.HasPrefix(trimmed, "[") {
		muts, err := decodeList(std)
		return Batch{Mutations: muts}, err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(std, &obj); err != nil {
		return Batch{}, fmt.Errorf("decode request: %w", err)
	}
	top := canonical(obj)
	list, hasList := top["mutations"]
	if !hasList {
		list, hasList = top["edits"]
	}
	if !hasList {
		return Batch{Mutations: []mutation.Mutation{decodeOne(std)}}, nil
	}
	var b Batch
	if b.Mutations, err = decodeList(list); err != nil {
		return Batch{}, err
	}
	if raw, ok := top["policy"]; ok && !isNull(raw) {
		if b.Policy, err = decodePolicy(raw); err != nil {
			return Batch{}, err
		}
	}
	return b, nil
}

// DecodeMutations decodes a mutation list. Entries that match no known
// mutation become mutation.Invalid; only unparsable documents are errors.
func DecodeMutations(data []byte) ([]mutation.Mutation, error) {
	b, err := DecodeBatch(data)
	return b.Mutations, err
}

// DecodePolicy decodes a scheduling policy. An empty document is the empty policy.
func DecodePolicy(data []byte) (model.Policy, error) {
	if strings.TrimSpace(string(data)) == "" {
		return model.Policy{}, nil
	}
	std, err := standardize(data)
	if err != nil {
		return model.Policy{}, err
	}
	return decodePolicy(std)
}

func standardize(data []byte) ([]byte, error) {
	std, err := hujson.Standardize(append([]byte(nil), data...))
	if err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return std, nil
}

func decodeList(raw json.RawMessage) ([]mutation.Mutation, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode mutations: %w", err)
	}
	out := make([]mutation.Mutation, 0, len(items))
	for _, item := range items {
		out = append(out, decodeOne(item))
	}
	return out, nil
}

// normKey folds a field or type name to its comparison form.
func normKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r == '_' || r == '-' || r == ' ' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func canonical(obj map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(obj))
	for k, v := range obj {
		out[normKey(k)] = v
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// fields wraps a canonicalized object with typed lookups over key aliases.
type fields map[string]json.RawMessage

func (f fields) lookup(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := f[k]; ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

func (f fields) str(keys ...string) (string, error) {
	raw, ok := f.lookup(keys...)
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("%s: expected a string", keys[0])
}

func (f fields) num(keys ...string) (*float64, error) {
	raw, ok := f.lookup(keys...)
	if !ok {
		return nil, nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return &v, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(s)), "h")
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &v, nil
		}
	}
	return nil, fmt.Errorf("%s: expected a number", keys[0])
}

func (f fields) integer(keys ...string) (*int, error) {
	v, err := f.num(keys...)
	if err != nil || v == nil {
		return nil, err
	}
	i := int(*v)
	if float64(i) != *v {
		return nil, fmt.Errorf("%s: expected a whole number", keys[0])
	}
	return &i, nil
}

func (f fields) boolean(keys ...string) (bool, error) {
	raw, ok := f.lookup(keys...)
	if !ok {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, nil
		}
	}
	return false, fmt.Errorf("%s: expected a boolean", keys[0])
}

func (f fields) list(keys ...string) ([]string, error) {
	raw, ok := f.lookup(keys...)
	if !ok {
		return nil, nil
	}
	var l []string
	if err := json.Unmarshal(raw, &l); err == nil {
		return l, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				l = append(l, p)
			}
		}
		return l, nil
	}
	return nil, fmt.Errorf("%s: expected a list of strings", keys[0])
}

var errNoKind = errors.New("no recognizable mutation type")
