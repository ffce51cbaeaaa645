package schema

import (
	"fmt"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Decode converts the open fields map of a card into its typed variant.
// Types without a dedicated variant return domain.GenericFields.
func Decode(card domain.Card) (domain.CardFields, error) {
	switch card.Type {
	case domain.CardService:
		return decodeAs[domain.ServiceFields](card)
	case domain.CardProduct:
		return decodeAs[domain.ProductFields](card)
	case domain.CardScheduling:
		return decodeAs[domain.SchedulingFields](card)
	case domain.CardContact:
		return decodeAs[domain.ContactFields](card)
	case domain.CardFAQ:
		return decodeAs[domain.FAQFields](card)
	case domain.CardPromotion:
		return decodeAs[domain.PromotionFields](card)
	default:
		values := make(map[string]any, len(card.Fields))
		for k, v := range card.Fields {
			values[k] = v
		}
		return domain.GenericFields{Type: card.Type, Values: values}, nil
	}
}

func decodeAs[T domain.CardFields](card domain.Card) (domain.CardFields, error) {
	var f T
	if err := decodeInto(card, &f); err != nil {
		return nil, err
	}
	return f, nil
}

func decodeInto(card domain.Card, target any) error {
	if len(card.Fields) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(card.Fields); err != nil {
		return fmt.Errorf("card %s: failed to decode %s fields: %w", card.ID, card.Type, err)
	}
	return nil
}
