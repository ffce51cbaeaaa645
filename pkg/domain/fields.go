package domain

// CardFields is the typed view of a card's open "fields" map. Every known card type
// with specific fields has its own variant; other types decode to GenericFields.
type CardFields interface {
	Kind() CardType
}

// ServiceFields are the specific fields of a CardService card.
type ServiceFields struct {
	Price      string `mapstructure:"preco" json:"preco,omitempty"`
	Duration   string `mapstructure:"duracao" json:"duracao,omitempty"`
	Guidelines string `mapstructure:"guidelines" json:"guidelines,omitempty"`
}

func (ServiceFields) Kind() CardType { return CardService }

// ProductFields are the specific fields of a CardProduct card.
type ProductFields struct {
	Name   string `mapstructure:"nome" json:"nome,omitempty"`
	Price  string `mapstructure:"preco" json:"preco,omitempty"`
	Stock  int    `mapstructure:"estoque" json:"estoque,omitempty"`
	Code   string `mapstructure:"codigo" json:"codigo,omitempty"`
	Rooms  int    `mapstructure:"quartos" json:"quartos,omitempty"`
	Link   string `mapstructure:"link" json:"link,omitempty"`
	Images string `mapstructure:"imagens" json:"imagens,omitempty"`
}

func (ProductFields) Kind() CardType { return CardProduct }

// SchedulingFields are the specific fields of a CardScheduling card.
type SchedulingFields struct {
	Address      string `mapstructure:"endereco" json:"endereco,omitempty"`
	Hours        string `mapstructure:"horarios" json:"horarios,omitempty"`
	Professional string `mapstructure:"profissional" json:"profissional,omitempty"`
	Guidelines   string `mapstructure:"guidelines" json:"guidelines,omitempty"`
}

func (SchedulingFields) Kind() CardType { return CardScheduling }

// ContactFields are the specific fields of a CardContact card.
type ContactFields struct {
	Phone    string `mapstructure:"telefone" json:"telefone,omitempty"`
	Email    string `mapstructure:"email" json:"email,omitempty"`
	Address  string `mapstructure:"endereco" json:"endereco,omitempty"`
	WhatsApp string `mapstructure:"whatsapp" json:"whatsapp,omitempty"`
}

func (ContactFields) Kind() CardType { return CardContact }

// FAQFields are the specific fields of a CardFAQ card.
type FAQFields struct {
	Question string `mapstructure:"pergunta" json:"pergunta,omitempty"`
	Answer   string `mapstructure:"resposta" json:"resposta,omitempty"`
}

func (FAQFields) Kind() CardType { return CardFAQ }

// PromotionFields are the specific fields of a CardPromotion card.
type PromotionFields struct {
	Discount   string `mapstructure:"desconto" json:"desconto,omitempty"`
	ValidUntil string `mapstructure:"validade" json:"validade,omitempty"`
	Coupon     string `mapstructure:"cupom" json:"cupom,omitempty"`
}

func (PromotionFields) Kind() CardType { return CardPromotion }

// GenericFields keeps the raw map for types without a dedicated variant.
type GenericFields struct {
	Type   CardType
	Values map[string]any
}

func (g GenericFields) Kind() CardType { return g.Type }
