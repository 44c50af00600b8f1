// Package proxy implements llms.Model for OpenAI-compatible proxy endpoints,
// such as the gptsapi.net relay, using github.com/sashabaranov/go-openai.
//
// The defaults are the gptsapi.net base URL, gpt-3.5-turbo, a 15 second
// request timeout and an API key read from GPTSAPI_API_KEY.
package proxy
