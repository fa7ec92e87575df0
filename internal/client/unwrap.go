package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/fivetwenty-io/foundation-client/internal/naming"
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

// Unwrap normalizes a response body. The rules are evaluated in order:
//
//  1. A body that is not JSON, or that decodes to null or false, is returned
//     as raw text. A JSON string, or any document while meta is on, is
//     returned decoded.
//  2. A document with "data": when fn is given and data.type is
//     <resourceType><Fn>Response, data.attributes.result is returned;
//     otherwise data is returned as is.
//  3. A document with "error" or "errors" fails with an *APIError.
//  4. Anything else fails with ErrUnrecognizedResponse.
//
// Numbers are decoded as json.Number.
func Unwrap(body []byte, resourceType, fn string, suppressMeta bool) (interface{}, error) {
	decoded, ok := decodeDocument(body)
	if !ok {
		return string(body), nil
	}

	if _, text := decoded.(string); text || !suppressMeta {
		return decoded, nil
	}

	document, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, foundation.ErrUnrecognizedResponse
	}

	if data, ok := document["data"]; ok {
		return unwrapData(data, resourceType, fn), nil
	}

	if errs, ok := document["errors"]; ok {
		return nil, apiErrorFrom(errs)
	}

	if errs, ok := document["error"]; ok {
		return nil, apiErrorFrom(errs)
	}

	return nil, foundation.ErrUnrecognizedResponse
}

// decodeDocument decodes a single JSON value from body. It reports false
// when body is not JSON or holds null or false.
func decodeDocument(body []byte) (interface{}, bool) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var decoded interface{}

	err := decoder.Decode(&decoded)
	if err != nil {
		return nil, false
	}

	if _, err = decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}

	if decoded == nil || decoded == false {
		return nil, false
	}

	return decoded, true
}

func unwrapData(data interface{}, resourceType, fn string) interface{} {
	if fn == "" {
		return data
	}

	object, ok := data.(map[string]interface{})
	if !ok {
		return data
	}

	dataType, _ := object["type"].(string)
	if dataType != naming.ResponseType(resourceType, fn) {
		return data
	}

	attributes, _ := object["attributes"].(map[string]interface{})

	return attributes["result"]
}

// apiErrorFrom reads title/detail/status from an error object, or from the
// first element of an error array.
func apiErrorFrom(value interface{}) *foundation.APIError {
	if list, ok := value.([]interface{}); ok {
		if len(list) == 0 {
			return &foundation.APIError{}
		}

		value = list[0]
	}

	object, ok := value.(map[string]interface{})
	if !ok {
		return &foundation.APIError{Message: fmt.Sprint(value)}
	}

	apiErr := &foundation.APIError{
		Title:   stringField(object, "title"),
		Detail:  stringField(object, "detail"),
		Message: stringField(object, "message"),
		Status:  statusField(object["status"]),
	}

	return apiErr
}

func stringField(object map[string]interface{}, name string) string {
	switch value := object[name].(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

func statusField(value interface{}) int {
	switch status := value.(type) {
	case json.Number:
		parsed, err := status.Int64()
		if err != nil {
			return 0
		}

		return int(parsed)
	case float64:
		return int(status)
	case string:
		parsed, err := strconv.Atoi(status)
		if err != nil {
			return 0
		}

		return parsed
	default:
		return 0
	}
}
