// Package adapter connects langchaingo models to the repair loop.
//
// ModelGenerator wraps any llms.Model, including the OpenAI-compatible proxy
// model in llms/proxy, and exposes it as a repair.Generator:
//
//	model, err := proxy.New()
//	if err != nil {
//		return err
//	}
//	gen := adapter.NewModelGenerator(model,
//		adapter.WithSystemPrompt("You write short flower shop copy."),
//		adapter.WithCallOptions(llms.WithTemperature(0.2)),
//	)
//	loop, err := repair.New(s, gen)
//
// Every instruction is sent as a single human message and the text of the
// first choice is returned.
package adapter
