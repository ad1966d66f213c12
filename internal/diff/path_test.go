package diff

import (
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name     string
		path     Path
		wantOK   bool
		wantKind LocatorKind
		check    func(t *testing.T, loc Locator)
	}{
		{
			name:     "path item",
			path:     Path{Key("paths"), Key("/users")},
			wantOK:   true,
			wantKind: LocatorPathItem,
			check: func(t *testing.T, loc Locator) {
				if loc.PathKey != "/users" {
					t.Errorf("PathKey = %q, want /users", loc.PathKey)
				}
			},
		},
		{
			name:     "operation",
			path:     Path{Key("paths"), Key("/users"), Key("get")},
			wantOK:   true,
			wantKind: LocatorOperation,
			check: func(t *testing.T, loc Locator) {
				if loc.Method != "get" || loc.PathKey != "/users" {
					t.Errorf("got %q %q, want get /users", loc.Method, loc.PathKey)
				}
				if len(loc.Rest) != 0 {
					t.Errorf("Rest = %v, want empty", loc.Rest)
				}
			},
		},
		{
			name:     "operation field",
			path:     Path{Key("paths"), Key("/users"), Key("get"), Key("summary")},
			wantOK:   true,
			wantKind: LocatorOperation,
			check: func(t *testing.T, loc Locator) {
				if len(loc.Rest) != 1 {
					t.Errorf("Rest = %v, want one segment", loc.Rest)
				}
			},
		},
		{
			name:     "parameter required field",
			path:     Path{Key("paths"), Key("/users"), Key("get"), Key("parameters"), Index(0), Key("required")},
			wantOK:   true,
			wantKind: LocatorParameter,
			check: func(t *testing.T, loc Locator) {
				if loc.ParamIndex != 0 {
					t.Errorf("ParamIndex = %d, want 0", loc.ParamIndex)
				}
				if !loc.RestEndsWithKey("required") {
					t.Errorf("Rest = %v, want trailing required key", loc.Rest)
				}
			},
		},
		{
			name:     "whole parameter entry",
			path:     Path{Key("paths"), Key("/users"), Key("get"), Key("parameters"), Index(2)},
			wantOK:   true,
			wantKind: LocatorParameter,
			check: func(t *testing.T, loc Locator) {
				if loc.ParamIndex != 2 || len(loc.Rest) != 0 {
					t.Errorf("got index %d rest %v, want 2 and empty", loc.ParamIndex, loc.Rest)
				}
			},
		},
		{
			name:     "request body content",
			path:     Path{Key("paths"), Key("/users"), Key("post"), Key("requestBody"), Key("content"), Key("application/json")},
			wantOK:   true,
			wantKind: LocatorRequestBody,
			check: func(t *testing.T, loc Locator) {
				if !loc.RestHasKey("content") {
					t.Errorf("Rest = %v, want content key", loc.Rest)
				}
			},
		},
		{
			name:     "response schema",
			path:     Path{Key("paths"), Key("/users"), Key("get"), Key("responses"), Key("200"), Key("content"), Key("application/json"), Key("schema"), Key("type")},
			wantOK:   true,
			wantKind: LocatorResponse,
			check: func(t *testing.T, loc Locator) {
				if loc.StatusCode != "200" {
					t.Errorf("StatusCode = %q, want 200", loc.StatusCode)
				}
				if !loc.RestHasKey("schema") {
					t.Errorf("Rest = %v, want schema key", loc.Rest)
				}
			},
		},
		{
			name:     "operation security",
			path:     Path{Key("paths"), Key("/users"), Key("get"), Key("security")},
			wantOK:   true,
			wantKind: LocatorSecurity,
			check: func(t *testing.T, loc Locator) {
				if loc.Global() {
					t.Error("operation security reported as global")
				}
			},
		},
		{
			name:     "global security",
			path:     Path{Key("security")},
			wantOK:   true,
			wantKind: LocatorSecurity,
			check: func(t *testing.T, loc Locator) {
				if !loc.Global() {
					t.Error("root security not reported as global")
				}
			},
		},
		{
			name:     "component schema",
			path:     Path{Key("components"), Key("schemas"), Key("User"), Key("properties"), Key("email")},
			wantOK:   true,
			wantKind: LocatorComponent,
			check: func(t *testing.T, loc Locator) {
				if loc.Category != "schemas" || loc.Name != "User" {
					t.Errorf("got %q %q, want schemas User", loc.Category, loc.Name)
				}
			},
		},
		{
			name:     "security scheme component",
			path:     Path{Key("components"), Key("securitySchemes"), Key("bearerAuth")},
			wantOK:   true,
			wantKind: LocatorComponent,
		},
		{
			name:   "unknown component category",
			path:   Path{Key("components"), Key("examples"), Key("Sample")},
			wantOK: false,
		},
		{
			name:   "component without name",
			path:   Path{Key("components"), Key("schemas")},
			wantOK: false,
		},
		{
			name:   "path item field is not a method",
			path:   Path{Key("paths"), Key("/users"), Key("description")},
			wantOK: false,
		},
		{
			name:   "path key without leading slash",
			path:   Path{Key("paths"), Key("users")},
			wantOK: false,
		},
		{
			name:   "unrelated root key",
			path:   Path{Key("info"), Key("title")},
			wantOK: false,
		},
		{
			name:   "key containing security substring",
			path:   Path{Key("x-security-extension")},
			wantOK: false,
		},
		{
			name:   "empty path",
			path:   Path{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, ok := ParsePath(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("ParsePath() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if loc.Kind != tt.wantKind {
				t.Fatalf("ParsePath() kind = %v, want %v", loc.Kind, tt.wantKind)
			}
			if tt.check != nil {
				tt.check(t, loc)
			}
		})
	}
}
