package installer

import "testing"

func TestReadProjectFilePath(t *testing.T) {
	path, ok := readProjectFilePath([]byte(`{"tree":{"$path":"src"}}`))
	if !ok || path != "src" {
		t.Errorf("readProjectFilePath = %q, %v", path, ok)
	}
}

func TestReadProjectFilePathMissing(t *testing.T) {
	if _, ok := readProjectFilePath([]byte(`{"tree":{}}`)); ok {
		t.Error("expected no path when $path is absent")
	}
}

func TestReadProjectFilePathMalformed(t *testing.T) {
	if _, ok := readProjectFilePath([]byte(`not json`)); ok {
		t.Error("expected malformed JSON to report ok=false")
	}
}
