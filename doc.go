// LangFix - Schema-Checked Structured Output for LLMs in Go
//
// LangFix asks a model for a structured record, checks the reply against a
// schema and, when the reply does not fit, sends the model its own output
// back together with the exact error so it can correct itself. The number
// of corrections is bounded.
//
// # Quick Start
//
// Install the package:
//
//	go get github.com/smallnest/langfix
//
// Basic example:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//
//		"github.com/smallnest/langfix/adapter"
//		"github.com/smallnest/langfix/llms/proxy"
//		"github.com/smallnest/langfix/repair"
//	)
//
//	type FlowerCopywriting struct {
//		Description string `json:"description" jsonschema_description:"flower copy" jsonschema:"minLength=15,maxLength=30"`
//		Reason      string `json:"reason" jsonschema_description:"why the copy fits" jsonschema:"minLength=15,maxLength=25"`
//	}
//
//	func main() {
//		llm, _ := proxy.New()
//
//		loop, _ := repair.NewTyped[FlowerCopywriting](
//			adapter.NewModelGenerator(llm),
//			repair.WithMaxRepairs(2),
//		)
//
//		copywriting, res, err := loop.Invoke(context.Background(),
//			"Write a short description for a rose priced at 50 yuan.\n"+
//				loop.Schema().FormatInstructions())
//		if err != nil {
//			panic(err)
//		}
//		fmt.Println(copywriting.Description, res.Calls())
//	}
//
// # Package Structure
//
//	schema/         Field and schema declarations, validation, format instructions
//	parser/         Decoding raw model output into validated records
//	prompt/         Task and repair instruction templates
//	repair/         The bounded repair loop, budgets, listeners and batches
//	adapter/        Generators backed by langchaingo models
//	llms/proxy/     An OpenAI-compatible chat model with JSON schema output
//	store/          Attempt trails with memory, file, redis, sqlite and postgres backends
//	observe/        Prometheus metrics and OpenTelemetry tracing listeners
//	log/            Logging interface with golog and zap adapters
//
// # Outcomes
//
// A repair loop ends with a validated record, or with one of
// repair.ExhaustedError, repair.TransportError and repair.CancelledError.
// Generator failures are never retried.
//
// # Examples
//
// See the examples directory: flower_copy runs a single invocation and
// flower_batch runs several flowers concurrently with SQLite trails.
package langfix // import "github.com/smallnest/langfix"
