package schools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const schoolPage = `<html><head><title>Lakeside School of Medicine | Admissions</title></head>
<body><h1>Lakeside School of Medicine</h1>
<p class="location">Burlington, VT</p>
<p>The average MCAT score of our entering class is 511.</p></body></html>`

func TestHTTPFetcherFetchesPage(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, schoolPage)
	}))
	defer srv.Close()

	f := NewHTTPFetcher("MedIndex Test", 5*time.Second)
	doc, err := f.Fetch(context.Background(), srv.URL+"/admissions")
	require.NoError(t, err)

	require.Equal(t, "MedIndex Test", gotUA)
	require.Equal(t, srv.URL+"/admissions", doc.URL())
	require.Contains(t, doc.Text(), "average MCAT score")
	require.Equal(t, []string{"Lakeside School of Medicine"}, doc.Select("h1", ""))
}

func TestHTTPFetcherFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, schoolPage)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	doc, err := NewHTTPFetcher("ua", 5*time.Second).Fetch(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(doc.URL(), "/new"), "got %s", doc.URL())
}

func TestHTTPFetcherErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher("ua", 5*time.Second).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestHTTPFetcherHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, schoolPage)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPFetcher("ua", 5*time.Second).Fetch(ctx, srv.URL)
	require.ErrorIs(t, err, context.Canceled)
}
