// Package repair turns free-form model output into schema-valid records.
//
// A Loop sends an instruction to a Generator, decodes the reply against a
// schema and, when decoding fails, asks the generator to correct its own
// output. The repair instruction always carries the format requirements, the
// previous output verbatim and the error text verbatim. The number of repairs
// is bounded by a Budget.
//
// # Outcomes
//
// Run ends in exactly one of four ways:
//
//   - a validated record (*Result)
//   - *ExhaustedError, every attempt failed to decode
//   - *TransportError, the generator itself failed; never retried
//   - *CancelledError, the context ended before the next generation
//
// Structural and constraint failures are never returned directly. They are
// visible through the attempts carried by ExhaustedError and through listeners.
//
// # Example
//
//	s := schema.MustNew("FlowerCopywriting",
//		schema.String("description").Describe("flower copy").Length(15, 30),
//		schema.String("reason").Describe("why the copy fits").Length(15, 25),
//	)
//
//	loop, err := repair.New(s, adapter.NewModelGenerator(model),
//		repair.WithMaxRepairs(2),
//	)
//	if err != nil {
//		return err
//	}
//
//	res, err := loop.Run(ctx, instruction)
//	var exhausted *repair.ExhaustedError
//	if errors.As(err, &exhausted) {
//		for _, msg := range exhausted.Messages() {
//			fmt.Println(msg)
//		}
//	}
package repair
