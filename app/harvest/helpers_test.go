package harvest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lysyi3m/cima-comb/app/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "harvest.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func newTestClient() *Client {
	return NewClient(&http.Client{}, "test-agent")
}

// listingHTML renders n cards in the Wecima layout pointing at /film/<i>.
func listingHTML(n int) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<div class="GridItem"><a href="/film/%d"><strong class="hasyear">فيلم رقم %d</strong></a></div>`, i, i)
	}
	b.WriteString("</body></html>")
	return b.String()
}

const detailHTML = `<html><head><title>detail</title></head><body>
<div class="story">قصة قصيرة عن رجل يحلم بالسفر إلى مدينة بعيدة ويبحث عن حياة جديدة هناك</div>
<span class="year">2020</span>
<a href="/genre/drama">دراما</a>
</body></html>`

// newSiteServer serves a listing at / with n items and a detail page for each.
func newSiteServer(t *testing.T, n int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, listingHTML(n))
	})
	mux.HandleFunc("/film/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, detailHTML)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}
