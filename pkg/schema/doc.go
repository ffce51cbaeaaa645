// Package schema describes and validates the type-specific "fields" of a card.
//
// Cards store their specific fields in an open map. Each known card type registers a
// CardSchema listing its fields in display order together with a Type validator, and
// Decode turns the open map into the typed variant defined in pkg/domain:
//
//	fields, err := schema.Decode(card)
//	if svc, ok := fields.(domain.ServiceFields); ok {
//	    fmt.Println(svc.Price)
//	}
//
// Unknown card types decode to domain.GenericFields and are never rejected.
package schema
