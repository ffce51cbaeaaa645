/*
Package dsl provides a fluent builder for constructing cardflow flows in Go.

It is an alternative to hand-written JSON or YAML documents, useful for generated
flows, tests and examples. Ports and connections are numbered in the order they are
declared, so the same program always produces the same document.

Example usage:

	b := dsl.New()

	b.Add("start").
		Initial("Welcome").
		Content("Hi! Do you want a quote?").
		Option("yes", "quote").
		Option("no", "bye")

	b.Add("quote").
		As(domain.CardService, "Quote").
		Field("preco", "R$ 50").
		Go("bye")

	b.Add("bye").End("Goodbye")

	flow, err := b.Build()
	// ... editor.Import, exchange.Encode or script.New().Generate(flow)
*/
package dsl
