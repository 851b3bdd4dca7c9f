package hooks

import (
	"github.com/shopspring/decimal"

	"github.com/nabeeghrb/netsuite-rb/internal/allocation"
	"github.com/nabeeghrb/netsuite-rb/internal/messages"
	"github.com/nabeeghrb/netsuite-rb/internal/sales/orders"
)

// orderLineDTO is a line as sent by the platform. Whether the item is an
// assembly is looked up, never taken from the caller.
type orderLineDTO struct {
	ItemID     string           `json:"item_id"`
	Quantity   decimal.Decimal  `json:"quantity"`
	Units      *string          `json:"units,omitempty"`
	PriceLevel *string          `json:"price_level,omitempty"`
	Rate       *decimal.Decimal `json:"rate,omitempty"`
}

func (d orderLineDTO) toLine() allocation.OrderLine {
	return allocation.OrderLine{
		ItemID:     d.ItemID,
		Quantity:   d.Quantity,
		Units:      allocation.NonEmpty(d.Units),
		PriceLevel: allocation.NonEmpty(d.PriceLevel),
		Rate:       allocation.FromPtr(d.Rate),
	}
}

// lineOutDTO is a line after splitting. IsAssembly reports the looked-up item
// type of lines the split considered.
type lineOutDTO struct {
	orderLineDTO
	IsAssembly bool `json:"is_assembly"`
	Shortage   bool `json:"shortage"`
}

func lineOut(l allocation.Line) lineOutDTO {
	return lineOutDTO{
		orderLineDTO: orderLineDTO{
			ItemID:     l.ItemID,
			Quantity:   l.Quantity,
			Units:      l.Units.Ptr(),
			PriceLevel: l.PriceLevel.Ptr(),
			Rate:       l.Rate.Ptr(),
		},
		IsAssembly: l.IsAssembly,
		Shortage:   l.Shortage,
	}
}

type salesOrderRequest struct {
	Event         string         `json:"event" validate:"required"`
	ID            string         `json:"id"`
	TranID        string         `json:"tran_id"`
	CustomerID    string         `json:"customer_id"`
	ShipMethodID  string         `json:"ship_method_id"`
	ShipAddressID string         `json:"ship_address_id"`
	Lines         []orderLineDTO `json:"lines" validate:"max=2000"`
}

func (r salesOrderRequest) toOrder() orders.SalesOrder {
	order := orders.SalesOrder{
		ID:            r.ID,
		TranID:        r.TranID,
		Event:         orders.EventType(r.Event),
		CustomerID:    r.CustomerID,
		ShipMethodID:  r.ShipMethodID,
		ShipAddressID: r.ShipAddressID,
		Lines:         make([]allocation.OrderLine, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		order.Lines = append(order.Lines, l.toLine())
	}
	return order
}

type splitSummaryDTO struct {
	Applied    bool   `json:"applied"`
	SkipReason string `json:"skip_reason,omitempty"`
	Splits     int    `json:"splits"`
}

type beforeSubmitResponse struct {
	InvocationID  string                `json:"invocation_id"`
	DeliveryFlags *orders.DeliveryFlags `json:"delivery_flags,omitempty"`
	Split         splitSummaryDTO       `json:"split"`
	Lines         []lineOutDTO          `json:"lines,omitempty"`
}

type validateSaveRequest struct {
	Event        string `json:"event" validate:"required"`
	ID           string `json:"id"`
	CustomerID   string `json:"customer_id"`
	PONumber     string `json:"po_number" validate:"max=999"`
	ItemsChanged bool   `json:"items_changed"`
}

type validateSaveResponse struct {
	InvocationID string         `json:"invocation_id"`
	Allow        bool           `json:"allow"`
	Alerts       []orders.Alert `json:"alerts"`
}

type componentDTO struct {
	ItemID   string `json:"item_id" validate:"required"`
	ItemType string `json:"item_type"`
}

type workOrderRequest struct {
	Event      string         `json:"event" validate:"required"`
	ID         string         `json:"id" validate:"required"`
	Components []componentDTO `json:"components" validate:"dive"`
}

type workOrderResponse struct {
	InvocationID string `json:"invocation_id"`
	Queued       bool   `json:"queued"`
	Duplicate    bool   `json:"duplicate,omitempty"`
	TaskID       string `json:"task_id,omitempty"`
}

type transactionRequest struct {
	Event  string `json:"event" validate:"required"`
	ID     string `json:"id"`
	TranID string `json:"tran_id"`
}

type deleteDecisionResponse struct {
	InvocationID string `json:"invocation_id"`
	Allow        bool   `json:"allow"`
	Title        string `json:"title,omitempty"`
	Message      string `json:"message,omitempty"`
}

type messageLoadRequest struct {
	Event      string               `json:"event" validate:"required"`
	Compose    string               `json:"compose"`
	Recipients []messages.Recipient `json:"recipients"`
}

type messageLoadResponse struct {
	InvocationID string               `json:"invocation_id"`
	Changed      bool                 `json:"changed"`
	Recipients   []messages.Recipient `json:"recipients"`
}

type messageSubmitRequest struct {
	TemplateID         int64 `json:"template_id" validate:"gte=0"`
	IncludeTransaction bool  `json:"include_transaction"`
}

type messageSubmitResponse struct {
	InvocationID       string `json:"invocation_id"`
	Changed            bool   `json:"changed"`
	IncludeTransaction bool   `json:"include_transaction"`
}

type itemRequest struct {
	ID string `json:"id" validate:"required"`
}
