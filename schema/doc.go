// Package schema describes the flat, constrained records that structured
// model output is decoded into.
//
// A Schema is an ordered list of fields. Each field has a name, a JSON type
// (string, integer, number or boolean), an optional description, and
// optional constraints: presence, string length in characters, numeric range
// and an enum of allowed values.
//
//	s := schema.MustNew("FlowerCopywriting",
//		schema.String("description").
//			Describe("flower copy with a sense of scene, 15-30 characters").
//			Length(15, 30),
//		schema.String("reason").
//			Describe("why the copy fits the price and meaning, 15-25 characters").
//			Length(15, 25),
//	)
//
// Schemas can also be derived from Go structs with FromStruct, which reflects
// the json, jsonschema and jsonschema_description struct tags through
// invopop/jsonschema:
//
//	type FlowerCopywriting struct {
//		Description string `json:"description" jsonschema_description:"flower copy" jsonschema:"minLength=15,maxLength=30"`
//		Reason      string `json:"reason" jsonschema_description:"design rationale" jsonschema:"minLength=15,maxLength=25"`
//	}
//
//	s, err := schema.FromStruct[FlowerCopywriting]()
//
// Validate compiles the schema into a JSON Schema document once and checks
// records with santhosh-tekuri/jsonschema, so string lengths are counted in
// characters. A Schema is immutable after construction and safe for
// concurrent use.
package schema
