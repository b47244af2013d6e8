package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mediaudit/api/internal/audit"
	"mediaudit/api/internal/util"
)

// VisionPrompt is sent with every document page.
const VisionPrompt = `You are a medical bill data extractor.

Carefully read every detail visible in this medical bill / discharge summary and extract:

1. Patient details (name, age, gender, patient ID if visible)
2. Hospital / clinic name and date(s) of service
3. Diagnosis / chief complaint
4. Every line item charge (treatment name, quantity, unit cost, total cost)
5. Subtotal, taxes, discounts, and grand total
6. Doctor name(s) and department(s)
7. Any pre-existing conditions or co-morbidities mentioned
8. Insurance / TPA details if printed on the bill

Format your response as clean, structured Markdown with clear headings and
a table for the line items. Be precise with all numbers and currency symbols.
If any field is not visible, write "Not visible" for that field.
Do not add commentary or assumptions. Extract only what is printed.`

// VisionUserText is the text part sent next to a document of the given MIME type.
func VisionUserText(mime string) string {
	label := "Medical Bill"
	if mime == util.MimePDF {
		label = "Document (all pages)"
	}
	return "[" + label + "]\n\n" + VisionPrompt
}

// ErrUnsupportedDocument is returned by a provider that cannot read the given type.
var ErrUnsupportedDocument = errors.New("unsupported document type")

// Extract runs the vision step and reports every failure as
// audit.ErrExtractionFailure, keeping the cause in the chain.
func Extract(ctx context.Context, ex Extractor, data []byte, filename string) (string, error) {
	if ex == nil {
		return "", fmt.Errorf("%w: %w", audit.ErrExtractionFailure, audit.ErrUnconfigured)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", audit.ErrExtractionFailure)
	}
	text, err := ex.ExtractText(ctx, data, filename)
	if err != nil {
		return "", fmt.Errorf("%w: %w", audit.ErrExtractionFailure, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty extraction", audit.ErrExtractionFailure)
	}
	return text, nil
}
