package compose

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kinds lists the payload kinds accepted by Build.
var Kinds = []string{"record", "text", "wifi", "contact", "url", "event", "geo", "deeplink"}

// Build decodes raw into the input type for kind and encodes it.
func Build(kind string, raw json.RawMessage) (string, error) {
	switch kind {
	case "record":
		var in struct {
			Fields []Pair `json:"fields"`
		}
		if err := decode(raw, &in); err != nil {
			return "", err
		}
		return Record(in.Fields)
	case "text":
		var in struct {
			Text string `json:"text"`
		}
		if err := decode(raw, &in); err != nil {
			return "", err
		}
		return Text(in.Text)
	case "wifi":
		var in WiFi
		if err := decode(raw, &in); err != nil {
			return "", err
		}
		return in.Encode()
	case "contact":
		var in Contact
		if err := decode(raw, &in); err != nil {
			return "", err
		}
		return in.Encode()
	case "url":
		var in struct {
			URL string `json:"url"`
		}
		if err := decode(raw, &in); err != nil {
			return "", err
		}
		return URL(in.URL)
	case "event":
		var in Event
		if err := decode(raw, &in); err != nil {
			return "", err
		}
		return in.Encode()
	case "geo":
		var in Geo
		if err := decode(raw, &in); err != nil {
			return "", err
		}
		return in.Encode()
	case "deeplink":
		var in DeepLink
		if err := decode(raw, &in); err != nil {
			return "", err
		}
		return in.Encode()
	default:
		return "", fmt.Errorf("%w: %q, want one of %s", ErrUnknownKind, kind, strings.Join(Kinds, ", "))
	}
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: body", ErrMissingField)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidField, err)
	}
	return nil
}
