package compose

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	got, err := Record([]Pair{
		{Key: "ID", Value: "EMP001"},
		{Key: "", Value: "ignored"},
		{Key: "Name", Value: "Nguyen Van A"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ID: EMP001\nName: Nguyen Van A", got)

	_, err = Record([]Pair{{Key: " ", Value: "x"}})
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestText(t *testing.T) {
	got, err := Text("Hello World")
	require.NoError(t, err)
	assert.Equal(t, "Hello World", got)

	_, err = Text("   ")
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestWiFi(t *testing.T) {
	tests := []struct {
		name    string
		in      WiFi
		want    string
		wantErr error
	}{
		{name: "wpa default", in: WiFi{SSID: "Office", Password: "secret"}, want: "WIFI:T:WPA;S:Office;P:secret;;"},
		{name: "escaped", in: WiFi{SSID: `My;Net`, Password: `a:b,c"d\e`, Encryption: "wpa2"}, want: `WIFI:T:WPA;S:My\;Net;P:a\:b\,c\"d\\e;;`},
		{name: "open hidden", in: WiFi{SSID: "Guest", Encryption: "nopass", Hidden: true}, want: "WIFI:T:nopass;S:Guest;H:true;;"},
		{name: "wep", in: WiFi{SSID: "Old", Password: "12345", Encryption: "WEP"}, want: "WIFI:T:WEP;S:Old;P:12345;;"},
		{name: "missing ssid", in: WiFi{Password: "x"}, wantErr: ErrMissingField},
		{name: "missing password", in: WiFi{SSID: "x"}, wantErr: ErrMissingField},
		{name: "bad encryption", in: WiFi{SSID: "x", Password: "y", Encryption: "WPA9"}, wantErr: ErrInvalidField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Encode()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContact(t *testing.T) {
	got, err := Contact{
		FirstName:    "Van A",
		LastName:     "Nguyen",
		Organization: "Acme, Inc",
		Phone:        "+84901234567",
		Email:        "a@example.com",
	}.Encode()
	require.NoError(t, err)
	assert.Equal(t, "BEGIN:VCARD\r\nVERSION:3.0\r\nN:Nguyen;Van A;;;\r\nFN:Van A Nguyen\r\nORG:Acme\\, Inc\r\nTEL;TYPE=CELL:+84901234567\r\nEMAIL:a@example.com\r\nEND:VCARD", got)

	_, err = Contact{Email: "a@example.com"}.Encode()
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestURL(t *testing.T) {
	got, err := URL("example.com/path?q=1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/path?q=1", got)

	got, err = URL("http://example.com")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", got)

	_, err = URL("")
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = URL("https://")
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestEvent(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	start := time.Date(2026, 10, 20, 19, 0, 0, 0, loc)

	got, err := Event{Title: "Dinner", Location: "Ha Noi", Start: start}.Encode()
	require.NoError(t, err)
	assert.Equal(t, "BEGIN:VEVENT\r\nSUMMARY:Dinner\r\nDTSTART:20261020T120000Z\r\nDTEND:20261020T130000Z\r\nLOCATION:Ha Noi\r\nEND:VEVENT", got)

	_, err = Event{Title: "x"}.Encode()
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = Event{Title: "x", Start: start, End: start.Add(-time.Minute)}.Encode()
	assert.ErrorIs(t, err, ErrInvalidField)
}

func coord(v float64) *float64 { return &v }

func TestGeo(t *testing.T) {
	got, err := Geo{Latitude: coord(21.0285), Longitude: coord(105.8542)}.Encode()
	require.NoError(t, err)
	assert.Equal(t, "geo:21.0285,105.8542", got)

	got, err = Geo{Latitude: coord(0), Longitude: coord(0)}.Encode()
	require.NoError(t, err)
	assert.Equal(t, "geo:0,0", got)

	tests := []struct {
		name string
		geo  Geo
		want error
	}{
		{name: "no coordinates", geo: Geo{}, want: ErrMissingField},
		{name: "no longitude", geo: Geo{Latitude: coord(10)}, want: ErrMissingField},
		{name: "latitude out of range", geo: Geo{Latitude: coord(91), Longitude: coord(0)}, want: ErrInvalidField},
		{name: "longitude out of range", geo: Geo{Latitude: coord(0), Longitude: coord(-181)}, want: ErrInvalidField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.geo.Encode()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDeepLink(t *testing.T) {
	got, err := DeepLink{Scheme: "zalo://", Path: "/chat", Params: map[string]string{"u": "123", "msg": "xin chào"}}.Encode()
	require.NoError(t, err)
	assert.Equal(t, "zalo://chat?msg=xin+ch%C3%A0o&u=123", got)

	_, err = DeepLink{Path: "x"}.Encode()
	assert.ErrorIs(t, err, ErrMissingField)
	_, err = DeepLink{Scheme: "bad scheme"}.Encode()
	assert.ErrorIs(t, err, ErrInvalidField)
}

func TestBuild(t *testing.T) {
	got, err := Build("wifi", json.RawMessage(`{"ssid":"Office","password":"secret"}`))
	require.NoError(t, err)
	assert.Equal(t, "WIFI:T:WPA;S:Office;P:secret;;", got)

	got, err = Build("record", json.RawMessage(`{"fields":[{"key":"ID","value":"1"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "ID: 1", got)

	_, err = Build("fax", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.ErrorContains(t, err, "wifi")

	_, err = Build("geo", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = Build("geo", json.RawMessage(`{"latitude":"north"}`))
	assert.ErrorIs(t, err, ErrInvalidField)

	_, err = Build("text", nil)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestBuildAcceptsEveryKind(t *testing.T) {
	for _, kind := range Kinds {
		t.Run(kind, func(t *testing.T) {
			_, err := Build(kind, json.RawMessage(`{}`))
			assert.NotErrorIs(t, err, ErrUnknownKind)
		})
	}
}
