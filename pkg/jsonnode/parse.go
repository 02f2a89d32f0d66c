package jsonnode

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// ErrSyntax is returned when the input is not a single valid JSON document.
var ErrSyntax = errors.New("invalid json document")

// Parse decodes data into an order-preserving tree.
func Parse(data []byte) (any, error) {
	// jsonparser is lenient about trailing bytes, so validate strictly first.
	if !json.Valid(data) {
		return nil, ErrSyntax
	}

	value, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return convert(value, dataType)
}

// MustParse is Parse for literals in tests and fixtures. It panics on error.
func MustParse(data string) any {
	v, err := Parse([]byte(data))
	if err != nil {
		panic(err)
	}
	return v
}

func convert(value []byte, dataType jsonparser.ValueType) (any, error) {
	switch dataType {
	case jsonparser.String:
		return jsonparser.ParseString(value)
	case jsonparser.Number:
		return jsonparser.ParseFloat(value)
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(value)
	case jsonparser.Null:
		return nil, nil
	case jsonparser.Object:
		return convertObject(value)
	case jsonparser.Array:
		return convertArray(value)
	default:
		return nil, fmt.Errorf("%w: unexpected value type %v", ErrSyntax, dataType)
	}
}

func convertObject(value []byte) (*Object, error) {
	obj := NewObject()
	err := jsonparser.ObjectEach(value, func(key, member []byte, dataType jsonparser.ValueType, _ int) error {
		child, err := convert(member, dataType)
		if err != nil {
			return err
		}
		// ObjectEach hands over keys already unescaped.
		obj.Set(string(key), child)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func convertArray(value []byte) ([]any, error) {
	items := make([]any, 0)
	var itemErr error
	_, err := jsonparser.ArrayEach(value, func(element []byte, dataType jsonparser.ValueType, _ int, err error) {
		if itemErr != nil {
			return
		}
		if err != nil {
			itemErr = err
			return
		}
		child, err := convert(element, dataType)
		if err != nil {
			itemErr = err
			return
		}
		items = append(items, child)
	})
	if err != nil {
		return nil, err
	}
	if itemErr != nil {
		return nil, itemErr
	}
	return items, nil
}
