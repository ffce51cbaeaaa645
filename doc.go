/*
Package cardflow is the core of a chatbot flow builder: it turns a graph of conversation cards into a plain-text script that a human or a language model can follow.

A flow is made of cards (steps of the conversation), connections (intents that lead from one card to another) and an optional assistant profile. The Editor owns the canvas view of a flow, keeps it persisted through a slot store and renders scripts on demand.

# Concept

The canvas (nodes and edges) and the stored flow (cards and connections) are two views of the same data. Loading a flow converts it to the canvas, placing cards that have no authored position; saving snapshots the canvas back, merging the most recent assistant profile. The script generator walks every entry point depth first and stops at cycles, so any graph produces a finite script.

# Key Features

  - Pluggable persistence: memory, file, Redis, SQLite or a Loam repository behind ports.SlotStore.
  - Deterministic scripts: the same flow and profile always render the same text (apart from the timestamp).
  - Cycle safety: repeated cards on a path become references instead of infinite output.
  - Structural analysis: dangling connections, unreachable cards and cycles are reported before publishing.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"
		"os"

		"github.com/aretw0/cardflow"
		"github.com/aretw0/cardflow/pkg/exchange"
	)

	func main() {
		ctx := context.Background()
		editor := cardflow.New()
		defer editor.Close()

		data, err := os.ReadFile("flow.json")
		if err != nil {
			log.Fatal(err)
		}
		if err := editor.Import(ctx, data, exchange.FormatJSON); err != nil {
			log.Fatal(err)
		}

		report, err := editor.GenerateScript(ctx)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(report.Text)
	}
*/
package cardflow
