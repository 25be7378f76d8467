package ingest

import "testing"

func TestDecodePlainNumericString(t *testing.T) {
	r := Decode([]byte("42"))
	if !r.IsNumber() || r.Value != 42 {
		t.Fatalf("Decode(42) = %+v, want number 42", r)
	}
}

func TestDecodePlainNumericStringWithWhitespace(t *testing.T) {
	r := Decode([]byte(" 3.14 "))
	if !r.IsNumber() || r.Value != 3.14 {
		t.Fatalf("Decode( 3.14 ) = %+v, want number 3.14", r)
	}
}

func TestDecodeNonNumericStringIsUndecodable(t *testing.T) {
	r := Decode([]byte("not-a-number"))
	if r.Kind != KindUndecodable {
		t.Fatalf("Decode(not-a-number) = %+v, want undecodable", r)
	}
}

func TestDecodeNestedMessageMessageNumber(t *testing.T) {
	r := Decode([]byte(`{"message":{"message":42}}`))
	if !r.IsNumber() || r.Value != 42 {
		t.Fatalf("Decode(nested number) = %+v, want number 42", r)
	}
}

func TestDecodeNestedMessageMessageStringIsPassthroughNotCoerced(t *testing.T) {
	// The nested field never gets string-to-number coercion, only the
	// single-level "message" field does.
	r := Decode([]byte(`{"message":{"message":"42"}}`))
	if r.Kind != KindPassthrough {
		t.Fatalf("Decode(nested numeric string) = %+v, want passthrough (no coercion at nested level)", r)
	}
	if r.Raw != "42" {
		t.Errorf("Raw = %v, want %q", r.Raw, "42")
	}
}

func TestDecodeMessageFieldNumber(t *testing.T) {
	r := Decode([]byte(`{"message":95.5}`))
	if !r.IsNumber() || r.Value != 95.5 {
		t.Fatalf("Decode(message number) = %+v, want number 95.5", r)
	}
}

func TestDecodeMessageFieldNumericStringCoerces(t *testing.T) {
	r := Decode([]byte(`{"message":"55"}`))
	if !r.IsNumber() || r.Value != 55 {
		t.Fatalf("Decode(message numeric string) = %+v, want number 55", r)
	}
}

func TestDecodeMessageFieldNonNumericStringIsPassthrough(t *testing.T) {
	r := Decode([]byte(`{"message":"door_open"}`))
	if r.Kind != KindPassthrough || r.Raw != "door_open" {
		t.Fatalf("Decode(message string) = %+v, want passthrough door_open", r)
	}
}

func TestDecodeMessageFieldSubObjectWithoutNestedMessageIsPassthrough(t *testing.T) {
	r := Decode([]byte(`{"message":{"foo":"bar"}}`))
	if r.Kind != KindPassthrough {
		t.Fatalf("Decode(message sub-object) = %+v, want passthrough with the raw object", r)
	}
	raw, ok := r.Raw.(map[string]any)
	if !ok || raw["foo"] != "bar" {
		t.Errorf("Raw = %v, want the raw {\"foo\":\"bar\"} object", r.Raw)
	}
}

func TestDecodeObjectWithoutMessageFieldIsUndecodable(t *testing.T) {
	r := Decode([]byte(`{"foo":"bar"}`))
	if r.Kind != KindUndecodable {
		t.Fatalf("Decode(no message field) = %+v, want undecodable", r)
	}
}

func TestDecodeInvalidJSONFallsBackToWholeString(t *testing.T) {
	r := Decode([]byte(`{not valid json`))
	if r.Kind != KindUndecodable {
		t.Fatalf("Decode(invalid json) = %+v, want undecodable", r)
	}
}

func TestDecodeNaNStringIsUndecodable(t *testing.T) {
	r := Decode([]byte("NaN"))
	if r.Kind != KindUndecodable {
		t.Fatalf("Decode(NaN) = %+v, want undecodable", r)
	}
}

func TestDecodeMessageFieldNaNStringIsPassthrough(t *testing.T) {
	r := Decode([]byte(`{"message":"NaN"}`))
	if r.Kind != KindPassthrough {
		t.Fatalf("Decode(message NaN) = %+v, want passthrough (NaN never counts as a number)", r)
	}
}
