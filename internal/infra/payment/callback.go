package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"edu-platform-backend/internal/domain/ports/adapter"
)

// ParseCallback normalizes a raw WayForPay callback body into a typed
// Callback. The provider delivers three shapes in the wild: a plain JSON
// object, a JSON string wrapping an object, and an object whose single key is
// itself a stringified JSON blob (with an empty value). All three decode to
// the same map before field extraction.
func (g *WayForPayGateway) ParseCallback(raw []byte) (*adapter.Callback, error) {
	obj, err := decodeCallbackObject(raw)
	if err != nil {
		return nil, err
	}

	cb := &adapter.Callback{
		MerchantAccount:   stringField(obj, "merchantAccount"),
		OrderReference:    stringField(obj, "orderReference"),
		Amount:            numberField(obj, "amount"),
		Currency:          stringField(obj, "currency"),
		AuthCode:          stringField(obj, "authCode"),
		CardPan:           stringField(obj, "cardPan"),
		TransactionStatus: stringField(obj, "transactionStatus"),
		ReasonCode:        stringField(obj, "reasonCode"),
		Reason:            stringField(obj, "reason"),
		MerchantSignature: stringField(obj, "merchantSignature"),
		Raw:               obj,
	}
	return cb, nil
}

func decodeCallbackObject(raw []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty callback body")
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		if len(obj) == 1 {
			for k := range obj {
				if strings.HasPrefix(strings.TrimSpace(k), "{") {
					var inner map[string]interface{}
					if err := json.Unmarshal([]byte(k), &inner); err == nil {
						return inner, nil
					}
				}
			}
		}
		return obj, nil
	}

	var wrapped string
	if err := json.Unmarshal(trimmed, &wrapped); err == nil {
		var inner map[string]interface{}
		if err := json.Unmarshal([]byte(wrapped), &inner); err == nil {
			return inner, nil
		}
	}

	return nil, fmt.Errorf("callback body is not a JSON object")
}

// stringField stringifies a payload value: numbers lose their fraction part
// when integral (reasonCode arrives both as 1100 and "1100").
func stringField(obj map[string]interface{}, key string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func numberField(obj map[string]interface{}, key string) float64 {
	v, ok := obj[key]
	if !ok || v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	default:
		return 0
	}
}
