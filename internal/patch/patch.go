// Package patch applies JSON-Patch (RFC 6902) operation lists to typed
// documents. A batch is all-or-nothing: the first invalid operation, or a
// result that no longer fits the document's shape, fails the whole batch
// and leaves the target untouched.
package patch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Op is one JSON-Patch operation.
type Op struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
	From  string          `json:"from,omitempty"`
}

var validOps = map[string]struct{}{
	"add":     {},
	"remove":  {},
	"replace": {},
	"move":    {},
	"copy":    {},
	"test":    {},
}

// Validate checks that every operation carries a recognized op name.
// Path and value errors are left to application time, where the document
// is available.
func Validate(ops []Op) error {
	for i, op := range ops {
		if _, ok := validOps[op.Op]; !ok {
			return fmt.Errorf("patch: operation %d: unknown op %q", i, op.Op)
		}
	}
	return nil
}

// WithoutIDOps returns ops with any operation addressing the document
// identifier removed. The identifier is immutable; clients trying to
// rewrite it are ignored rather than rejected.
func WithoutIDOps(ops []Op) []Op {
	out := make([]Op, 0, len(ops))
	for _, op := range ops {
		if op.Path == "/_id" || op.Path == "/id" {
			continue
		}
		out = append(out, op)
	}
	return out
}

// Apply runs the whole batch against doc and decodes the result strictly
// into out. Unknown fields introduced by the patch, or values that do not
// fit out's types, fail the batch; out must be a non-nil pointer and is
// only written on success.
func Apply(doc any, ops []Op, out any) error {
	if err := Validate(ops); err != nil {
		return err
	}
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("patch: out must be a non-nil pointer")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("patch: encode document: %w", err)
	}
	opsRaw, err := json.Marshal(ops)
	if err != nil {
		return fmt.Errorf("patch: encode operations: %w", err)
	}
	p, err := jsonpatch.DecodePatch(opsRaw)
	if err != nil {
		return fmt.Errorf("patch: decode operations: %w", err)
	}
	patched, err := p.Apply(raw)
	if err != nil {
		return fmt.Errorf("patch: apply: %w", err)
	}
	// Decode into a scratch value first so out stays untouched when the
	// patched document no longer fits its shape.
	scratch := reflect.New(target.Type().Elem())
	dec := json.NewDecoder(bytes.NewReader(patched))
	dec.DisallowUnknownFields()
	if err := dec.Decode(scratch.Interface()); err != nil {
		return fmt.Errorf("patch: result does not fit document shape: %w", err)
	}
	target.Elem().Set(scratch.Elem())
	return nil
}

