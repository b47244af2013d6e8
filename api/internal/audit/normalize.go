package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"mediaudit/api/internal/util"
)

type field struct {
	key string
	raw json.RawMessage
}

// Normalize turns the service's raw text into a Result. It fails only with
// ErrMalformedResponse, when the text is not JSON at all. Any parseable value is
// coerced into the rows + eligibility shape:
//
//   - {"rows": [...], ...} is taken as is;
//   - otherwise the first array-valued key in document order becomes rows;
//   - a top-level array is the rows;
//   - a missing or non-object eligibility is replaced by FallbackEligibility.
//
// Field values are not range-checked here.
func Normalize(raw string) (Result, error) {
	data := []byte(util.StripCodeFences(raw))
	if err := checkJSON(data); err != nil {
		return Result{}, err
	}

	// double-encoded: "{\"rows\": ...}"
	if kindOf(data) == '"' {
		var inner string
		_ = json.Unmarshal(data, &inner)
		unwrapped := []byte(util.StripCodeFences(inner))
		if k := kindOf(unwrapped); (k == '{' || k == '[') && json.Valid(unwrapped) {
			data = unwrapped
		}
	}

	switch kindOf(data) {
	case '{':
		return normalizeObject(data)
	case '[':
		res := Result{Eligibility: FallbackEligibility(), Meta: Meta{Repaired: true}}
		res.Rows, res.Meta.SkippedRows = decodeRows(data)
		return res, nil
	default:
		return Result{
			Rows:        []Row{},
			Eligibility: FallbackEligibility(),
			Meta:        Meta{Repaired: true},
		}, nil
	}
}

func normalizeObject(data []byte) (Result, error) {
	fields, err := objectFields(data)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var res Result
	rowsRaw, ok := lookup(fields, "rows")
	if ok && kindOf(rowsRaw) == '[' {
		res.Meta.RowsKey = "rows"
	} else {
		res.Meta.Repaired = true
		rowsRaw = nil
		for _, f := range fields {
			if kindOf(f.raw) == '[' {
				rowsRaw, res.Meta.RowsKey = f.raw, f.key
				break
			}
		}
	}
	res.Rows, res.Meta.SkippedRows = decodeRows(rowsRaw)
	if res.Meta.SkippedRows > 0 {
		res.Meta.Repaired = true
	}

	elig, ok := lookup(fields, "eligibility")
	if ok && kindOf(elig) == '{' && json.Unmarshal(elig, &res.Eligibility) == nil {
		return res, nil
	}
	res.Eligibility = FallbackEligibility()
	res.Meta.Repaired = true
	return res, nil
}

// objectFields reads the top-level keys of a JSON object keeping their order.
func objectFields(data []byte) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var out []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		out = append(out, field{key: key, raw: raw})
	}
	return out, nil
}

// lookup returns the last occurrence of key, matching encoding/json.
func lookup(fields []field, key string) (json.RawMessage, bool) {
	for i := len(fields) - 1; i >= 0; i-- {
		if fields[i].key == key {
			return fields[i].raw, true
		}
	}
	return nil, false
}

// decodeRows decodes an array of row objects. Elements that are not objects
// are dropped and counted.
func decodeRows(raw json.RawMessage) ([]Row, int) {
	rows := []Row{}
	if raw == nil {
		return rows, 0
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return rows, 0
	}
	skipped := 0
	for _, el := range elems {
		var r Row
		if kindOf(el) != '{' || json.Unmarshal(el, &r) != nil {
			skipped++
			continue
		}
		rows = append(rows, r)
	}
	return rows, skipped
}

func checkJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func kindOf(raw []byte) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

// preview is a short single-line excerpt of a raw response for logs.
func preview(raw string) string {
	return strings.Join(strings.Fields(util.Truncate(raw, 200)), " ")
}
