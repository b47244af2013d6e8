package policy

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed baseline.yaml
var baselineYAML []byte

// Loaded is a validated baseline together with the digest of the document it
// was decoded from.
type Loaded struct {
	Baseline Baseline
	Hash     string
	Bytes    []byte
}

// Version identifies the rule set for display and logs.
func (l Loaded) Version() string {
	return l.Baseline.PolicyName + " (" + l.Baseline.EffectiveDate + ")"
}

var (
	defaultOnce sync.Once
	defaultPol  Loaded

	validate = newValidator()
)

// Default returns the built-in baseline. The embedded document is part of the
// binary, so a decoding failure is a build defect and panics.
func Default() Loaded {
	defaultOnce.Do(func() {
		l, err := Load(baselineYAML)
		if err != nil {
			panic(fmt.Sprintf("policy: embedded baseline: %v", err))
		}
		defaultPol = l
	})
	return defaultPol
}

// Load decodes a YAML baseline and checks its invariants.
func Load(data []byte) (Loaded, error) {
	var b Baseline
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Loaded{}, fmt.Errorf("policy: decode: %w", err)
	}
	if err := b.Validate(); err != nil {
		return Loaded{}, err
	}
	return Loaded{
		Baseline: b,
		Hash:     digestWithPrefix(data),
		Bytes:    data,
	}, nil
}

// Validate enforces the structural invariants of a baseline: non-negative
// bounds, ordered min/max pairs, percentages within 0..100, unique illness and
// sub-limit keys, and a default sum insured taken from the options.
func (b Baseline) Validate() error {
	if err := validate.Struct(b); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("policy: invalid baseline: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("policy: invalid baseline: %w", err)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		b := sl.Current().Interface().(Baseline)
		if !slices.Contains(b.SumInsuredOptionsINR, b.DefaultSumInsuredINR) {
			sl.ReportError(b.DefaultSumInsuredINR, "DefaultSumInsuredINR", "DefaultSumInsuredINR", "oneof_options", "")
		}
	}, Baseline{})
	return v
}

func digestWithPrefix(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}
