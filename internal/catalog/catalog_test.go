package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	c := New([]Entry{
		{ID: 11802, Name: "Armadyl godsword"},
		{ID: 11785, Name: "Armadyl crossbow"},
		{ID: 11832, Name: "Bandos chestplate"},
		{ID: 11838, Name: "Saradomin sword"},
	})

	assert.Nil(t, c.Suggest("a"), "single character yields nothing")
	assert.Equal(t, []string{"Armadyl godsword", "Armadyl crossbow"}, c.Suggest("ARMA"))
	assert.Equal(t, []string{"Armadyl godsword", "Saradomin sword"}, c.Suggest("sword"))
	assert.Empty(t, c.Suggest("zz"))
}

func TestSuggestCapsResults(t *testing.T) {
	var entries []Entry
	for i := 0; i < 25; i++ {
		entries = append(entries, Entry{ID: i, Name: fmt.Sprintf("Rune bar %d", i)})
	}
	assert.Len(t, New(entries).Suggest("rune"), MaxSuggestions)
}

func TestLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`[{"id":4151,"name":"Abyssal whip","examine":"A weapon from the abyss."}]`))
	}))
	defer srv.Close()

	c := Load(context.Background(), srv.URL, nil)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, []string{"Abyssal whip"}, c.Suggest("whip"))
}

func TestLoadDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := Load(context.Background(), srv.URL, nil)
	assert.Zero(t, c.Len())
	assert.Empty(t, c.Suggest("whip"))

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer bad.Close()
	assert.Zero(t, Load(context.Background(), bad.URL, nil).Len())

	_, err := Fetch(context.Background(), http.DefaultClient, "http://127.0.0.1:0")
	assert.Error(t, err)
}
