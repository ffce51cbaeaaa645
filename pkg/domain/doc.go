/*
Package domain contains the core data model of a cardflow chatbot script.

It defines the entities persisted and exchanged by every other package. The package is kept
free of I/O and persistence concerns, following Hexagonal Architecture principles.

# Key Entities

  - Card: A typed step of the conversation (initial, message, service, product...).
  - Connection: A labeled edge from one card's output port to another card.
  - AssistantProfile: Who the assistant is and how generated scripts must be read.
  - FlowData: The aggregate root (cards + connections + optional profile) used for
    persistence, import and export.
  - Node / Edge: The editable canvas representation assembled from a FlowData.
*/
package domain
