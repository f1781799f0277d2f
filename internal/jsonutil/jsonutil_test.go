package jsonutil

import "testing"

type verdict struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

func TestDecode_PlainObject(t *testing.T) {
	v, err := Decode[verdict](`{"category":"violence","score":0.3}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Category != "violence" || v.Score != 0.3 {
		t.Errorf("got %+v", v)
	}
}

func TestDecode_FencedJSON(t *testing.T) {
	raw := "```json\n{\"category\":\"sexual\",\"score\":0.9}\n```"
	v, err := Decode[verdict](raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Score != 0.9 {
		t.Errorf("score = %f, want 0.9", v.Score)
	}
}

func TestDecode_ArrayInProse(t *testing.T) {
	raw := "Here are the clips you asked for:\n[{\"category\":\"a\",\"score\":1}]\nLet me know if you need more."
	vs, err := Decode[[]verdict](raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vs) != 1 || vs[0].Category != "a" {
		t.Errorf("got %+v", vs)
	}
}

func TestDecode_ArrayBeforeObject(t *testing.T) {
	raw := `[{"category":"x","score":0}] trailing {"ignored":true}`
	if _, err := Decode[[]verdict](raw); err != nil {
		t.Fatalf("array-first content should decode: %v", err)
	}
}

func TestDecode_NoJSON(t *testing.T) {
	if _, err := Decode[verdict]("I could not produce a result."); err == nil {
		t.Fatal("expected error for prose-only response")
	}
}

func TestDecode_MalformedJSON(t *testing.T) {
	if _, err := Decode[verdict](`{"category": "x",`); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}
