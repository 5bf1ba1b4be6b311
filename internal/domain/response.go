package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

type responseKind uint8

const (
	responseInvalid responseKind = iota
	responseText
	responseIndex
)

// Response is a submitted answer: free text for FillIn questions or a choice
// index for MultipleChoice questions. The zero value is an invalid response
// that grades as incorrect for every kind.
type Response struct {
	kind  responseKind
	text  string
	index int
}

func TextResponse(s string) Response { return Response{kind: responseText, text: s} }

func IndexResponse(i int) Response { return Response{kind: responseIndex, index: i} }

// Text returns the response text when the response is textual.
func (r Response) Text() (string, bool) {
	return r.text, r.kind == responseText
}

// Index returns the choice index when the response is an integer.
func (r Response) Index() (int, bool) {
	return r.index, r.kind == responseIndex
}

// UnmarshalJSON maps a JSON string to a text response and a JSON integer to an
// index response. Numeric-looking strings stay text, so "1" never selects
// choice 1. Any other JSON value decodes to an invalid response.
func (r *Response) UnmarshalJSON(data []byte) error {
	*r = Response{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = TextResponse(s)
		return nil
	}
	if i, ok := parseJSONInt(data); ok {
		*r = IndexResponse(i)
	}
	return nil
}

func (r Response) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case responseText:
		return json.Marshal(r.text)
	case responseIndex:
		return json.Marshal(r.index)
	default:
		return []byte("null"), nil
	}
}

// ParseQuestionIndex accepts only a JSON integer literal.
func ParseQuestionIndex(raw json.RawMessage) (int, error) {
	i, ok := parseJSONInt(bytes.TrimSpace(raw))
	if !ok {
		return 0, ErrInvalidQuestionIndex
	}
	return i, nil
}

func parseJSONInt(data []byte) (int, bool) {
	if len(data) == 0 {
		return 0, false
	}
	i, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, false
	}
	return i, true
}
