// Package script renders a flow into a markdown transcript that a person or a language
// model can follow to conduct the conversation.
//
// The walk starts at every card of type initial (or the first card when there is none)
// and descends depth-first through the outgoing connections. A card already on the
// current path is reported as a cyclic reference instead of being expanded again, so
// cycles terminate while siblings continue. Connections pointing to missing cards are
// skipped silently.
package script
