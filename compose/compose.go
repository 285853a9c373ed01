// Package compose builds the text payloads the UI offers besides bank
// transfers. Each result is rendered verbatim by a QR encoder.
package compose

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrInvalidField = errors.New("invalid field value")
	ErrUnknownKind  = errors.New("unknown payload kind")
)

// Pair is one key-value line of a record payload.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Record renders "Key: Value" lines, skipping pairs with an empty key.
func Record(pairs []Pair) (string, error) {
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if strings.TrimSpace(p.Key) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", p.Key, p.Value))
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: fields", ErrMissingField)
	}
	return strings.Join(lines, "\n"), nil
}

// Text returns s unchanged once it is known to be non-blank.
func Text(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: text", ErrMissingField)
	}
	return s, nil
}

// WiFi describes a wireless network join code.
type WiFi struct {
	SSID       string `json:"ssid"`
	Password   string `json:"password"`
	Encryption string `json:"encryption"` // WPA, WEP or nopass
	Hidden     bool   `json:"hidden"`
}

// Encode returns the WIFI: URI understood by phone cameras.
func (w WiFi) Encode() (string, error) {
	if w.SSID == "" {
		return "", fmt.Errorf("%w: ssid", ErrMissingField)
	}
	auth := strings.ToUpper(strings.TrimSpace(w.Encryption))
	switch auth {
	case "", "WPA", "WPA2":
		auth = "WPA"
	case "WEP":
	case "NOPASS", "NONE":
		auth = "nopass"
	default:
		return "", fmt.Errorf("%w: encryption %q", ErrInvalidField, w.Encryption)
	}

	var sb strings.Builder
	sb.WriteString("WIFI:T:" + auth)
	sb.WriteString(";S:" + escapeWiFi(w.SSID))
	if auth != "nopass" {
		if w.Password == "" {
			return "", fmt.Errorf("%w: password", ErrMissingField)
		}
		sb.WriteString(";P:" + escapeWiFi(w.Password))
	}
	if w.Hidden {
		sb.WriteString(";H:true")
	}
	sb.WriteString(";;")
	return sb.String(), nil
}

var wifiEscaper = strings.NewReplacer(`\`, `\\`, `;`, `\;`, `,`, `\,`, `:`, `\:`, `"`, `\"`)

func escapeWiFi(s string) string {
	return wifiEscaper.Replace(s)
}

// Contact is a vCard 3.0 business card.
type Contact struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Organization string `json:"organization"`
	Title        string `json:"title"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Website      string `json:"website"`
	Address      string `json:"address"`
	Note         string `json:"note"`
}

var vcardEscaper = strings.NewReplacer(`\`, `\\`, `;`, `\;`, `,`, `\,`, "\n", `\n`)

// Encode returns the vCard text with CRLF line endings.
func (c Contact) Encode() (string, error) {
	if strings.TrimSpace(c.FirstName+c.LastName) == "" {
		return "", fmt.Errorf("%w: name", ErrMissingField)
	}
	full := strings.TrimSpace(c.FirstName + " " + c.LastName)

	lines := []string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"N:" + vcardEscaper.Replace(c.LastName) + ";" + vcardEscaper.Replace(c.FirstName) + ";;;",
		"FN:" + vcardEscaper.Replace(full),
	}
	optional := []struct{ prop, value string }{
		{"ORG", c.Organization},
		{"TITLE", c.Title},
		{"TEL;TYPE=CELL", c.Phone},
		{"EMAIL", c.Email},
		{"URL", c.Website},
		{"ADR;TYPE=WORK", c.Address},
		{"NOTE", c.Note},
	}
	for _, o := range optional {
		if o.value == "" {
			continue
		}
		v := vcardEscaper.Replace(o.value)
		if o.prop == "ADR;TYPE=WORK" {
			v = ";;" + v + ";;;;"
		}
		lines = append(lines, o.prop+":"+v)
	}
	lines = append(lines, "END:VCARD")
	return strings.Join(lines, "\r\n"), nil
}

// URL normalises a link, defaulting the scheme to https.
func URL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: url", ErrMissingField)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: url %q", ErrInvalidField, raw)
	}
	return u.String(), nil
}

// Event is a single calendar entry.
type Event struct {
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

const icsTime = "20060102T150405Z"

// Encode returns a VEVENT block with UTC timestamps.
func (e Event) Encode() (string, error) {
	if strings.TrimSpace(e.Title) == "" {
		return "", fmt.Errorf("%w: title", ErrMissingField)
	}
	if e.Start.IsZero() {
		return "", fmt.Errorf("%w: start", ErrMissingField)
	}
	end := e.End
	if end.IsZero() {
		end = e.Start.Add(time.Hour)
	}
	if end.Before(e.Start) {
		return "", fmt.Errorf("%w: end before start", ErrInvalidField)
	}

	lines := []string{
		"BEGIN:VEVENT",
		"SUMMARY:" + vcardEscaper.Replace(e.Title),
		"DTSTART:" + e.Start.UTC().Format(icsTime),
		"DTEND:" + end.UTC().Format(icsTime),
	}
	if e.Location != "" {
		lines = append(lines, "LOCATION:"+vcardEscaper.Replace(e.Location))
	}
	if e.Description != "" {
		lines = append(lines, "DESCRIPTION:"+vcardEscaper.Replace(e.Description))
	}
	lines = append(lines, "END:VEVENT")
	return strings.Join(lines, "\r\n"), nil
}

// Geo is a WGS84 coordinate. Both values are required; nil means absent.
type Geo struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Encode returns a geo: URI.
func (g Geo) Encode() (string, error) {
	if g.Latitude == nil {
		return "", fmt.Errorf("%w: latitude", ErrMissingField)
	}
	if g.Longitude == nil {
		return "", fmt.Errorf("%w: longitude", ErrMissingField)
	}
	lat, lng := *g.Latitude, *g.Longitude
	if lat < -90 || lat > 90 {
		return "", fmt.Errorf("%w: latitude %v", ErrInvalidField, lat)
	}
	if lng < -180 || lng > 180 {
		return "", fmt.Errorf("%w: longitude %v", ErrInvalidField, lng)
	}
	return "geo:" + strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64), nil
}

// DeepLink targets an app scheme such as zalo:// or momo://.
type DeepLink struct {
	Scheme string            `json:"scheme"`
	Path   string            `json:"path"`
	Params map[string]string `json:"params"`
}

// Encode returns scheme://path?query with sorted, escaped parameters.
func (d DeepLink) Encode() (string, error) {
	scheme := strings.TrimSuffix(strings.TrimSpace(d.Scheme), "://")
	if scheme == "" {
		return "", fmt.Errorf("%w: scheme", ErrMissingField)
	}
	for _, r := range scheme {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return "", fmt.Errorf("%w: scheme %q", ErrInvalidField, d.Scheme)
		}
	}
	link := scheme + "://" + strings.TrimPrefix(d.Path, "/")
	if len(d.Params) > 0 {
		q := url.Values{}
		for k, v := range d.Params {
			q.Set(k, v)
		}
		link += "?" + q.Encode()
	}
	return link, nil
}
