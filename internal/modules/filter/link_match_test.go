// Package filter provides implementations for filter modules.
package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/linksieve/linksieve/internal/errhandling"
	"github.com/linksieve/linksieve/pkg/post"
)

func records(raw ...string) []post.Record {
	out := make([]post.Record, len(raw))
	for i, r := range raw {
		out[i] = post.Record(r)
	}
	return out
}

func newDefaultLinkMatch(t *testing.T) *LinkMatch {
	t.Helper()
	m, err := NewLinkMatchFromConfig(LinkMatchConfig{})
	if err != nil {
		t.Fatalf("NewLinkMatchFromConfig() error = %v", err)
	}
	return m
}

// =============================================================================
// Construction
// =============================================================================

func TestNewLinkMatchFromConfig_Defaults(t *testing.T) {
	m := newDefaultLinkMatch(t)
	if m.Host() != "pixeldrain.com" {
		t.Errorf("Host() = %q, want pixeldrain.com", m.Host())
	}
	if m.onError != OnErrorFail {
		t.Errorf("onError = %q, want fail", m.onError)
	}
}

func TestNewLinkMatchFromConfig_LowercasesHost(t *testing.T) {
	m, err := NewLinkMatchFromConfig(LinkMatchConfig{Host: "Mega.NZ"})
	if err != nil {
		t.Fatalf("NewLinkMatchFromConfig() error = %v", err)
	}
	if m.Host() != "mega.nz" {
		t.Errorf("Host() = %q, want mega.nz", m.Host())
	}
}

func TestNewLinkMatchFromConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		config LinkMatchConfig
	}{
		{"blank host", LinkMatchConfig{Host: "   "}},
		{"unknown onError", LinkMatchConfig{OnError: "retry"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLinkMatchFromConfig(tt.config)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if errhandling.GetErrorCategory(err) != errhandling.CategoryConfig {
				t.Errorf("category = %v, want config", errhandling.GetErrorCategory(err))
			}
		})
	}
}

// =============================================================================
// Matching
// =============================================================================

func TestLinkMatch_Match(t *testing.T) {
	tests := []struct {
		name   string
		record string
		want   bool
	}{
		{"plain match", `{"downloads":[{"link":"https://pixeldrain.com/u/1"}]}`, true},
		{"mixed case", `{"downloads":[{"link":"https://PixelDrain.COM/u/abc"}]}`, true},
		{"other host", `{"downloads":[{"link":"https://mega.nz/f/2"}]}`, false},
		{"second entry matches", `{"downloads":[{"link":"https://mega.nz/f/2"},{"link":"http://pixeldrain.com/l/x"}]}`, true},
		{"substring anywhere", `{"downloads":[{"link":"see pixeldrain.com mirror"}]}`, true},
		{"empty downloads", `{"downloads":[]}`, false},
		{"missing downloads", `{"title":"x"}`, false},
		{"empty object", `{}`, false},
		{"missing link", `{"downloads":[{"size":"1GB"}]}`, false},
		{"null link", `{"downloads":[{"link":null}]}`, false},
		{"numeric link", `{"downloads":[{"link":42}]}`, false},
		{"host in another field", `{"downloads":[{"mirror":"pixeldrain.com","link":"https://mega.nz"}]}`, false},
		{"duplicate key last wins", `{"downloads":[{"link":"https://pixeldrain.com/u/1","link":"https://mega.nz"}]}`, false},
		{"non-ascii link", `{"downloads":[{"link":"https://pixeldrain.com/u/ñ"}]}`, true},
		{"match before bad entry", `{"downloads":[{"link":"https://pixeldrain.com/u/1"}, 7]}`, true},
	}

	m := newDefaultLinkMatch(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Match(post.Record(tt.record))
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLinkMatch_Match_CustomHost(t *testing.T) {
	m, err := NewLinkMatchFromConfig(LinkMatchConfig{Host: "MEGA.nz"})
	if err != nil {
		t.Fatalf("NewLinkMatchFromConfig() error = %v", err)
	}

	got, err := m.Match(post.Record(`{"downloads":[{"link":"https://Mega.NZ/f/2"}]}`))
	if err != nil || !got {
		t.Errorf("Match() = %v, %v; want true, nil", got, err)
	}
	got, err = m.Match(post.Record(`{"downloads":[{"link":"https://pixeldrain.com/u/1"}]}`))
	if err != nil || got {
		t.Errorf("Match() = %v, %v; want false, nil", got, err)
	}
}

// =============================================================================
// Process
// =============================================================================

func TestLinkMatch_Process_Example(t *testing.T) {
	in := records(
		`{"downloads":[{"link":"https://pixeldrain.com/u/1"}]}`,
		`{"downloads":[{"link":"https://mega.nz/f/2"}]}`,
		`{"downloads":[]}`,
		`{}`,
	)

	m := newDefaultLinkMatch(t)
	out, err := m.Process(context.Background(), in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}
	if string(out[0]) != string(in[0]) {
		t.Errorf("record = %s, want %s", out[0], in[0])
	}
	if m.Skipped() != 0 {
		t.Errorf("Skipped() = %d, want 0", m.Skipped())
	}
}

func TestLinkMatch_Process_PreservesOrder(t *testing.T) {
	in := records(
		`{"id":1,"downloads":[{"link":"https://pixeldrain.com/u/1"}]}`,
		`{"id":2}`,
		`{"id":3,"downloads":[{"link":"HTTPS://PIXELDRAIN.COM/u/3"}]}`,
		`{"id":4,"downloads":[{"link":"https://mega.nz"}]}`,
		`{"id":5,"downloads":[{"link":"https://mega.nz"},{"link":"https://pixeldrain.com/u/5"}]}`,
	)

	m := newDefaultLinkMatch(t)
	out, err := m.Process(context.Background(), in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := []post.Record{in[0], in[2], in[4]}
	if len(out) != len(want) {
		t.Fatalf("got %d records, want %d", len(out), len(want))
	}
	for i := range want {
		if string(out[i]) != string(want[i]) {
			t.Errorf("record %d = %s, want %s", i, out[i], want[i])
		}
	}
}

func TestLinkMatch_Process_Idempotent(t *testing.T) {
	in := records(
		`{"downloads":[{"link":"https://pixeldrain.com/u/1"}]}`,
		`{"downloads":[{"link":"https://mega.nz/f/2"}]}`,
		`{"downloads":[{"link":"https://PIXELDRAIN.com/u/3"}]}`,
	)

	m := newDefaultLinkMatch(t)
	first, err := m.Process(context.Background(), in)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	second, err := m.Process(context.Background(), first)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("second pass kept %d records, first kept %d", len(second), len(first))
	}
	for i := range first {
		if string(first[i]) != string(second[i]) {
			t.Errorf("record %d changed between passes", i)
		}
	}
}

func TestLinkMatch_Process_Empty(t *testing.T) {
	m := newDefaultLinkMatch(t)
	for _, in := range [][]post.Record{nil, {}} {
		out, err := m.Process(context.Background(), in)
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if out == nil || len(out) != 0 {
			t.Errorf("expected empty non-nil result, got %#v", out)
		}
	}
}

func TestLinkMatch_Process_NoMatches(t *testing.T) {
	m := newDefaultLinkMatch(t)
	out, err := m.Process(context.Background(), records(`{}`, `{"downloads":[{"link":"x"}]}`))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 0 {
		t.Errorf("got %d records, want 0", len(out))
	}
}

// =============================================================================
// Shape errors
// =============================================================================

var shapeCases = []struct {
	name     string
	record   string
	wantPath string
}{
	{"record not an object", `["downloads"]`, ""},
	{"record is null", `null`, ""},
	{"downloads is a string", `{"downloads":"https://pixeldrain.com"}`, "downloads"},
	{"downloads is null", `{"downloads":null}`, "downloads"},
	{"downloads is an object", `{"downloads":{"link":"https://pixeldrain.com"}}`, "downloads"},
	{"entry not an object", `{"downloads":["https://pixeldrain.com/u/1"]}`, "downloads[0]"},
	{"bad entry before match", `{"downloads":[{"link":"x"},null,{"link":"https://pixeldrain.com"}]}`, "downloads[1]"},
}

func TestLinkMatch_Process_ShapeErrorFails(t *testing.T) {
	for _, tt := range shapeCases {
		t.Run(tt.name, func(t *testing.T) {
			in := records(`{"downloads":[{"link":"https://pixeldrain.com/u/0"}]}`, tt.record)

			m := newDefaultLinkMatch(t)
			_, err := m.Process(context.Background(), in)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var classified *errhandling.ClassifiedError
			if !errors.As(err, &classified) {
				t.Fatalf("expected *errhandling.ClassifiedError, got %T", err)
			}
			if classified.Category != errhandling.CategoryType {
				t.Errorf("category = %v, want type", classified.Category)
			}
			if classified.RecordIndex != 1 {
				t.Errorf("RecordIndex = %d, want 1", classified.RecordIndex)
			}

			var shapeErr *post.ShapeError
			if !errors.As(err, &shapeErr) {
				t.Fatalf("expected wrapped *post.ShapeError, got %v", err)
			}
			if shapeErr.Path != tt.wantPath {
				t.Errorf("shape path = %q, want %q", shapeErr.Path, tt.wantPath)
			}
		})
	}
}

func TestLinkMatch_Process_ShapeErrorDropped(t *testing.T) {
	for _, mode := range []string{OnErrorSkip, OnErrorLog} {
		t.Run(mode, func(t *testing.T) {
			m, err := NewLinkMatchFromConfig(LinkMatchConfig{OnError: mode})
			if err != nil {
				t.Fatalf("NewLinkMatchFromConfig() error = %v", err)
			}

			in := []post.Record{post.Record(`{"downloads":[{"link":"https://pixeldrain.com/u/0"}]}`)}
			for _, tt := range shapeCases {
				in = append(in, post.Record(tt.record))
			}
			in = append(in, post.Record(`{"downloads":[{"link":"https://pixeldrain.com/u/9"}]}`))

			out, err := m.Process(context.Background(), in)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if len(out) != 2 {
				t.Fatalf("got %d records, want 2", len(out))
			}
			if string(out[1]) != string(in[len(in)-1]) {
				t.Errorf("last record = %s, want %s", out[1], in[len(in)-1])
			}
			if m.Skipped() != len(shapeCases) {
				t.Errorf("Skipped() = %d, want %d", m.Skipped(), len(shapeCases))
			}

			// The counter covers one call only.
			if _, err := m.Process(context.Background(), in[:1]); err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if m.Skipped() != 0 {
				t.Errorf("Skipped() after clean call = %d, want 0", m.Skipped())
			}
		})
	}
}

func TestLinkMatch_Process_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := newDefaultLinkMatch(t)
	_, err := m.Process(ctx, records(`{}`))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Process() error = %v, want context.Canceled", err)
	}
}

func TestStubModule_PassThrough(t *testing.T) {
	stub := NewStub("stub", 0)
	in := records(`{}`, `[]`)

	out, err := stub.Process(context.Background(), in)
	if err != nil || len(out) != 2 || stub.Calls != 1 {
		t.Errorf("Process() = %d records, %v, calls=%d", len(out), err, stub.Calls)
	}

	stub.Err = errors.New("boom")
	if _, err := stub.Process(context.Background(), in); err == nil {
		t.Error("expected configured error")
	}
}
