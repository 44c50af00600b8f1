// Package parser turns free-form model output into schema-valid records.
//
// Decoding is lenient about the wrapping models like to add: markdown code
// fences and prose around the JSON object are tolerated. It is strict about
// content: every record returned by Decode satisfies its schema.
//
// Failures come in two kinds, both usable with errors.As:
//
//   - StructuralError: the text is empty, is not a JSON object, or lacks
//     the shape of the schema (missing required fields, wrong value types)
//   - ConstraintError: the object has the right shape but violates length,
//     range or enum constraints
//
// The repair loop feeds both back to the model with different error text.
package parser
