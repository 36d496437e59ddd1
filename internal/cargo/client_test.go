package cargo_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/AndreyAkinshin/cargotest/internal/cargo"
	"github.com/AndreyAkinshin/cargotest/internal/errors"
	"github.com/AndreyAkinshin/cargotest/internal/testing/mocks"
)

func TestClient_Metadata(t *testing.T) {
	t.Parallel()
	runner := mocks.NewRunner().On("metadata --no-deps --format-version 1",
		`{"packages":[{"name":"a","manifest_path":"/ws/a/Cargo.toml","targets":[]}],"workspace_root":"/ws"}`)
	client := cargo.NewClient(runner, cargo.ClientOptions{WorkspaceDir: "/ws"})

	md, err := client.Metadata(context.Background())
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if len(md.Packages) != 1 || md.Packages[0].Name != "a" {
		t.Errorf("Metadata() = %+v", md)
	}
	if calls := runner.Calls(); calls[0].Dir != "/ws" {
		t.Errorf("metadata ran in %q, want /ws", calls[0].Dir)
	}
}

func TestClient_MetadataMalformed(t *testing.T) {
	t.Parallel()
	runner := mocks.NewRunner().On("metadata --no-deps --format-version 1", "not json")
	client := cargo.NewClient(runner, cargo.ClientOptions{})

	if _, err := client.Metadata(context.Background()); !errors.IsKind(err, errors.KindParse) {
		t.Errorf("Metadata() error = %v, want KindParse", err)
	}
}

func TestClient_ListTests(t *testing.T) {
	t.Parallel()
	runner := mocks.NewRunner().On("test -p core --test smoke --features fast -- --list", "a: test\n")
	client := cargo.NewClient(runner, cargo.ClientOptions{CargoArgs: []string{"--features", "fast"}})
	pkg := &cargo.Package{Name: "core", ManifestPath: "/ws/core/Cargo.toml"}

	out, err := client.ListTests(context.Background(), pkg, cargo.BuildTarget{Name: "smoke", Category: cargo.IntegrationTest})
	if err != nil {
		t.Fatalf("ListTests() error = %v", err)
	}
	if out != "a: test\n" {
		t.Errorf("ListTests() = %q", out)
	}

	inv := runner.Calls()[0]
	if inv.Dir != "/ws/core" {
		t.Errorf("list ran in %q, want package dir", inv.Dir)
	}
	if inv.AllowFailure {
		t.Error("list must not tolerate a non-zero exit")
	}
	if inv.Package != "core" || inv.Target != "smoke" {
		t.Errorf("invocation context = %q/%q", inv.Package, inv.Target)
	}
}

func TestClient_ListTestsNilPackage(t *testing.T) {
	t.Parallel()
	runner := mocks.NewRunner()
	client := cargo.NewClient(runner, cargo.ClientOptions{})

	_, err := client.ListTests(context.Background(), nil, cargo.BuildTarget{})
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("ListTests(nil) error = %v, want KindInvalidInput", err)
	}
	if runner.CallCount() != 0 {
		t.Error("no process should be spawned for a nil package")
	}
}

func TestClient_RunArgs(t *testing.T) {
	t.Parallel()
	client := cargo.NewClient(nil, cargo.ClientOptions{TestArgs: []string{"--include-ignored"}})
	lib := cargo.BuildTarget{Name: "core", Category: cargo.Library}

	tests := []struct {
		name     string
		req      cargo.RunRequest
		expected string
	}{
		{
			name:     "exact case",
			req:      cargo.RunRequest{Package: "core", Target: lib, Filter: "a::b::it_works", Exact: true},
			expected: "test -p core --lib a::b::it_works -- --format pretty --exact --include-ignored",
		},
		{
			name:     "suite",
			req:      cargo.RunRequest{Package: "core", Target: lib, Filter: "a::", NoFailFast: true},
			expected: "test -p core --lib a:: --no-fail-fast -- --format pretty --include-ignored",
		},
		{
			name:     "whole target",
			req:      cargo.RunRequest{Package: "core", Target: lib, NoFailFast: true},
			expected: "test -p core --lib --no-fail-fast -- --format pretty --include-ignored",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := strings.Join(client.RunArgs(tt.req), " "); got != tt.expected {
				t.Errorf("RunArgs() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestClient_RunTestsToleratesFailure(t *testing.T) {
	t.Parallel()
	runner := mocks.NewRunner().On("test -p core --lib x -- --format pretty --exact", "running 1 test\n")
	client := cargo.NewClient(runner, cargo.ClientOptions{WorkspaceDir: "/ws"})

	_, err := client.RunTests(context.Background(), cargo.RunRequest{
		Package: "core",
		Target:  cargo.BuildTarget{Name: "core", Category: cargo.Library},
		Filter:  "x",
		Exact:   true,
	})
	if err != nil {
		t.Fatalf("RunTests() error = %v", err)
	}

	inv := runner.Calls()[0]
	want := cargo.Invocation{
		Dir:          "/ws",
		Args:         []string{"test", "-p", "core", "--lib", "x", "--", "--format", "pretty", "--exact"},
		AllowFailure: true,
		Package:      "core",
		Target:       "core",
	}
	if !reflect.DeepEqual(inv, want) {
		t.Errorf("invocation = %+v, want %+v", inv, want)
	}
}

func TestClient_RunTestsRequiresPackage(t *testing.T) {
	t.Parallel()
	client := cargo.NewClient(mocks.NewRunner(), cargo.ClientOptions{})
	if _, err := client.RunTests(context.Background(), cargo.RunRequest{}); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("RunTests() error = %v, want KindInvalidInput", err)
	}
}
