package drivelink

import "testing"

func TestResolveKnownShapes(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want string
	}{
		{"folder path", "https://drive.google.com/drive/folders/ABC123?usp=sharing", "ABC123"},
		{"document path", "https://docs.google.com/document/d/XYZ_9-9/edit", "XYZ_9-9"},
		{"query parameter", "https://drive.google.com/open?id=Q1W2", "Q1W2"},
	}
	for _, tc := range cases {
		got, ok := Resolve(tc.url)
		if !ok {
			t.Fatalf("%s: Resolve(%q) reported no match", tc.name, tc.url)
		}
		if got != tc.want {
			t.Fatalf("%s: Resolve(%q) = %q, want %q", tc.name, tc.url, got, tc.want)
		}
	}
}

func TestResolveFolderShapeWinsOverDocumentShape(t *testing.T) {
	url := "https://drive.google.com/d/IGNORED/folders/WINNER"
	got, ok := Resolve(url)
	if !ok {
		t.Fatalf("Resolve(%q) reported no match", url)
	}
	if got != "WINNER" {
		t.Fatalf("Resolve(%q) = %q, want the folder capture", url, got)
	}
}

func TestResolveUnknownShape(t *testing.T) {
	if got, ok := Resolve("https://example.com/nothing/here"); ok {
		t.Fatalf("Resolve matched %q on a URL with no known shape", got)
	}
}

func TestResolveEmptyInput(t *testing.T) {
	if _, ok := Resolve(""); ok {
		t.Fatal("Resolve matched an empty string")
	}
}
