package mpesa

import (
	"encoding/json"
	"fmt"

	"bidding-engine/internal/payments"
)

// CallbackBody is the STK push result Daraja posts to the callback URL
type CallbackBody struct {
	Body struct {
		StkCallback StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type StkCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []MetadataItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

// MetadataItem values arrive as numbers or strings
type MetadataItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

func (m MetadataItem) text() string {
	if len(m.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(m.Value, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(m.Value, &n); err == nil {
		return n.String()
	}
	return string(m.Value)
}

// Ack is the reply Daraja expects for every callback
type Ack struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// Accepted acknowledges a callback.
var Accepted = Ack{ResultCode: 0, ResultDesc: "Accepted"}

// ParseCallback decodes a raw callback into a CallbackResult.
func ParseCallback(raw []byte) (payments.CallbackResult, error) {
	var body CallbackBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return payments.CallbackResult{}, fmt.Errorf("mpesa: decode callback: %w", err)
	}
	return body.Result(), nil
}

// Result flattens the callback and its metadata items.
func (b CallbackBody) Result() payments.CallbackResult {
	cb := b.Body.StkCallback
	res := payments.CallbackResult{
		CheckoutRequestID: cb.CheckoutRequestID,
		MerchantRequestID: cb.MerchantRequestID,
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
	}
	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "MpesaReceiptNumber":
			res.ReceiptNumber = item.text()
		case "TransactionDate":
			res.TransactionDate = item.text()
		case "PhoneNumber":
			res.PhoneNumber = item.text()
		}
	}
	return res
}
