package banks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryLookup(t *testing.T) {
	d := NewDirectory(Builtin)

	tests := []struct {
		name    string
		key     string
		wantBIN string
		found   bool
	}{
		{name: "by bin", key: "970422", wantBIN: "970422", found: true},
		{name: "by code", key: "VCB", wantBIN: "970436", found: true},
		{name: "code ignores case", key: "bidv", wantBIN: "970418", found: true},
		{name: "surrounding space", key: " MB ", wantBIN: "970422", found: true},
		{name: "unknown", key: "999999", found: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := d.Lookup(tt.key)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.wantBIN, b.BIN)
		})
	}
}

func TestDirectoryListSorted(t *testing.T) {
	d := NewDirectory(Builtin)
	list := d.List()
	require.Len(t, list, len(Builtin))
	assert.Equal(t, "ACB", list[0].ShortName)

	list[0].BIN = "mutated"
	assert.NotEqual(t, "mutated", d.List()[0].BIN)
}

func TestDirectoryReplaceIgnoresEmpty(t *testing.T) {
	d := NewDirectory(Builtin)
	d.Replace(nil)
	assert.Len(t, d.List(), len(Builtin))
}

func TestClientRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"00","desc":"Get Bank list successful","data":[
			{"id":21,"name":"Ngân hàng TMCP Quân đội","code":"MB","bin":"970422","shortName":"MBBank","logo":"https://img.example/MB.png","transferSupported":1},
			{"id":99,"name":"No transfer","code":"NT","bin":"970999","shortName":"NoTransfer","transferSupported":0}
		]}`))
	}))
	defer srv.Close()

	d := NewDirectory(Builtin)
	n, err := NewClient(srv.URL).Refresh(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	b, ok := d.Lookup("MB")
	require.True(t, ok)
	assert.Equal(t, "https://img.example/MB.png", b.Logo)
	_, ok = d.Lookup("NT")
	assert.False(t, ok)
}

func TestClientErrors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()

	_, err := NewClient(failing.URL).Fetch(context.Background())
	assert.Error(t, err)

	rejected := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"11","desc":"rate limited","data":[]}`))
	}))
	defer rejected.Close()

	_, err = NewClient(rejected.URL).Fetch(context.Background())
	assert.ErrorContains(t, err, "rate limited")
}
