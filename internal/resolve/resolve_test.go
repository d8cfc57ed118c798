package resolve

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/mccmnc/internal/fetch"
)

const indexPage = `<html><body><table>
<tr><td class="producttitle"><a href="/pub/T-SP-E.212B-2016">Edition 2016</a></td></tr>
<tr><td class="producttitle"><a href="/pub/T-SP-E.212B-2018">Edition 2018</a></td></tr>
<tr><td class="producttitle"><a href="/pub/T-SP-E.212B-2023">Edition 2023</a></td></tr>
</table></body></html>`

const overviewPage = `<html><body>
<a href="/dms/other.docx">outside the item table</a>
<table class="itemtable">
<tr><td><a href="/dms/pub/itu-t/opb/sp/T-SP-E.212B-2023-PDF-E.pdf">PDF</a></td></tr>
<tr><td><a href="/dms/pub/itu-t/opb/sp/T-SP-E.212B-2023-OAS-MSW-E.docx">Word</a></td></tr>
<tr><td><a href="/dms/pub/itu-t/opb/sp/T-SP-E.212B-2023-OAS-MSW-F.docx">Word (F)</a></td></tr>
</table></body></html>`

func TestFindOverviewPath_PicksLastTitleLink(t *testing.T) {
	r := &Resolver{}
	path, err := r.FindOverviewPath(indexPage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/pub/T-SP-E.212B-2023" {
		t.Fatalf("expected newest edition path, got %q", path)
	}
}

func TestFindOverviewPath_NotFound(t *testing.T) {
	r := &Resolver{}
	_, err := r.FindOverviewPath(`<html><body><p>no products</p></body></html>`)
	if !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestFindDocumentPath_FirstDocxInItemTable(t *testing.T) {
	r := &Resolver{}
	path, err := r.FindDocumentPath(overviewPage)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/dms/pub/itu-t/opb/sp/T-SP-E.212B-2023-OAS-MSW-E.docx" {
		t.Fatalf("expected first item-table docx link, got %q", path)
	}
}

func TestFindDocumentPath_NotFound(t *testing.T) {
	r := &Resolver{}
	page := `<html><body><table class="itemtable">
	<tr><td><a href="/dms/file.pdf">PDF only</a></td></tr>
	</table></body></html>`
	_, err := r.FindDocumentPath(page)
	if !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestLatestDocumentURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/pub/T-SP-E.212B", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexPage))
	})
	mux.HandleFunc("/pub/T-SP-E.212B-2023", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(overviewPage))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := &Resolver{
		Client:      &fetch.Client{UserAgent: "mccmnc-test", PerRequestTimeout: 2 * time.Second},
		BaseURL:     srv.URL,
		ListingPath: "/pub/T-SP-E.212B",
	}
	got, err := r.LatestDocumentURL(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := srv.URL + "/dms/pub/itu-t/opb/sp/T-SP-E.212B-2023-OAS-MSW-E.docx"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLatestDocumentURL_StopsBeforeDocumentFetch(t *testing.T) {
	var docRequests int
	mux := http.NewServeMux()
	mux.HandleFunc("/pub/T-SP-E.212B", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(indexPage))
	})
	mux.HandleFunc("/pub/T-SP-E.212B-2023", func(w http.ResponseWriter, r *http.Request) {
		// Overview without any docx artifact
		_, _ = w.Write([]byte(`<html><body><table class="itemtable"></table></body></html>`))
	})
	mux.HandleFunc("/dms/", func(w http.ResponseWriter, r *http.Request) {
		docRequests++
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := &Resolver{
		Client:      &fetch.Client{UserAgent: "mccmnc-test", PerRequestTimeout: 2 * time.Second},
		BaseURL:     srv.URL,
		ListingPath: "/pub/T-SP-E.212B",
	}
	_, err := r.LatestDocumentURL(context.Background())
	if !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
	if docRequests != 0 {
		t.Fatalf("expected no document fetch, got %d", docRequests)
	}
}

func TestLatestDocumentURL_PropagatesFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := &Resolver{
		Client:      &fetch.Client{UserAgent: "mccmnc-test", PerRequestTimeout: 2 * time.Second},
		BaseURL:     srv.URL,
		ListingPath: "/pub/T-SP-E.212B",
	}
	_, err := r.LatestDocumentURL(context.Background())
	var serr *fetch.StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status in error, got %v", err)
	}
}
