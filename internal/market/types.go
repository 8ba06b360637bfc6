package market

import (
	"time"

	"github.com/google/uuid"
)

// ItemType classifies what an order trades.
type ItemType string

const (
	ItemBlock     ItemType = "block"
	ItemBlockPlus ItemType = "block+1"
	ItemGrubhub   ItemType = "grubhub"
	ItemFlexOnly  ItemType = "flex_only"
	ItemBlockFlex ItemType = "block+flex"
	// ItemNone is used for pure donations with no item signal.
	ItemNone ItemType = ""
)

// Direction is the intent of an order's author.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// MatchType records how an acceptance was paired with its order.
type MatchType string

const (
	MatchReply     MatchType = "reply"
	MatchProximity MatchType = "proximity"
)

// Message is a single chat message from a transcript export.
// Referenced is the message this one explicitly replies to, if any.
type Message struct {
	ID         string
	Author     string
	Content    string
	Timestamp  time.Time
	Referenced *Message
}

// Order is the structured interpretation of one message as an offer
// to buy or sell. Immutable once produced.
type Order struct {
	Item       ItemType
	Price      float64
	Quantity   int
	FlexAmount float64
	IsDonation bool
	Payment    string
	Direction  Direction
}

// Transaction is a completed match between an order and a later
// acceptance from a different participant.
type Transaction struct {
	ID           uuid.UUID `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Buyer        string    `json:"buyer"`
	Seller       string    `json:"seller"`
	Item         ItemType  `json:"item"`
	Price        float64   `json:"price"`
	Quantity     int       `json:"quantity"`
	FlexAmount   float64   `json:"flex_amount"`
	IsDonation   bool      `json:"is_donation"`
	Payment      string    `json:"payment"`
	OrderText    string    `json:"original_order_text"`
	ResponseText string    `json:"response_text"`
	MatchType    MatchType `json:"match_type"`
}
