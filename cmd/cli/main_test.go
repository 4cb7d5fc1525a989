package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, struct {
		A int `json:"a"`
	}{A: 1}); err != nil {
		t.Fatalf("printJSON: %v", err)
	}

	expected := "{\n  \"a\": 1\n}\n"
	if buf.String() != expected {
		t.Fatalf("unexpected json output:\n%s", buf.String())
	}
}

func TestReconcileCmd(t *testing.T) {
	var gotMethod, gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotAuth = r.Method, r.URL.Path, r.Header.Get("Authorization")
		w.Write([]byte(`{"sku":"RICE-1","recorded":"10","ledger_balance":"6","difference":"4","corrected":true}`))
	}))
	defer server.Close()

	out, err := execute(t, "--url", server.URL, "--token", "abc", "reconcile", "RICE-1")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/api/v1/reconcile/RICE-1" || gotAuth != "Bearer abc" {
		t.Fatalf("unexpected request %s %s %q", gotMethod, gotPath, gotAuth)
	}
	if strings.TrimSpace(out) != "RICE-1 corrected: 10 -> 6" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestReconcileReportCmd_PassesFix(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"total_products":2,"reconciled_products":2}`))
	}))
	defer server.Close()

	out, err := execute(t, "--url", server.URL, "reconcile", "report", "--fix")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if gotQuery != "fix=true" {
		t.Fatalf("expected fix=true, got %q", gotQuery)
	}
	if !strings.Contains(out, `"total_products": 2`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestVerifyCmd_FailsOnBrokenLedger(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sku":"RICE-1","entries":3,"consistent":false}`))
	}))
	defer server.Close()

	out, err := execute(t, "--url", server.URL, "verify", "RICE-1")
	if err == nil {
		t.Fatal("expected error for inconsistent ledger")
	}
	if !strings.Contains(out, "FAILED") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLedgerListCmd(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"items":[{"sku":"RICE-1","product_name":"Basmati rice 5kg premium long grain","type":"OUT","source":"sale","quantity":"3","balance_after":"17","created_at":"2024-03-01T10:00:00Z"}],"total":1,"page":1,"total_pages":1}`))
	}))
	defer server.Close()

	out, err := execute(t, "--url", server.URL, "ledger", "list", "--sku", "RICE-1", "--source", "sale")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	if gotQuery != "page=1&page_size=20&sku=RICE-1&source=sale" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if !strings.Contains(out, "Basmati rice 5kg prem...") || !strings.Contains(out, "page 1 of 1 (1 entries)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestReportsCmd_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
	}))
	defer server.Close()

	_, err := execute(t, "--url", server.URL, "reports", "valuation")
	if err == nil || !strings.Contains(err.Error(), "status 403") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestTokenIssueCmd(t *testing.T) {
	out, err := execute(t, "token", "issue", "--username", "bob", "--role", "manager", "--secret", "s3cret")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	claims, err := auth.NewJWTManager("s3cret", time.Hour).Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.Actor() != (domain.Actor{Username: "bob", Role: domain.RoleManager}) {
		t.Fatalf("unexpected actor %+v", claims.Actor())
	}

	if _, err := execute(t, "token", "issue", "--username", "bob", "--role", "owner", "--secret", "s3cret"); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
}
