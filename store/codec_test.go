package store

import (
	"errors"
	"testing"

	"todo-app/model"
)

func TestEncodeNilAsEmptyArray(t *testing.T) {
	blob, err := Encode(nil)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if blob != "[]" {
		t.Fatalf("expected [], got %s", blob)
	}
}

func TestDecodeReportsSchemaLocation(t *testing.T) {
	_, err := Decode(`[{"id":"a","text":"x","complete":false},{"id":"b","text":7,"complete":false}]`)
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedError, got %v", err)
	}
	if malformed.Path != "/1/text" {
		t.Fatalf("expected failure at /1/text, got %q (%v)", malformed.Path, err)
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	items, err := Decode(`[{"id":"a","text":"x","complete":true,"color":"red"}]`)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	want := model.Item{ID: "a", Text: "x", Complete: true}
	if len(items) != 1 || items[0] != want {
		t.Fatalf("unexpected items %+v", items)
	}
}
