// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
	"time"
)

type record struct {
	ID        string            `cbor:"id"`
	Labels    map[string]string `cbor:"labels,omitempty"`
	CreatedAt time.Time         `cbor:"created_at"`
}

func TestRoundTrip(t *testing.T) {
	in := record{
		ID:        "sandbox-1",
		Labels:    map[string]string{"pod": "web", "tier": "front"},
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC),
	}

	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out record
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.ID != in.ID {
		t.Errorf("id = %q, want %q", out.ID, in.ID)
	}
	if len(out.Labels) != 2 || out.Labels["pod"] != "web" {
		t.Errorf("labels = %v, want %v", out.Labels, in.Labels)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) {
		t.Errorf("created_at = %v, want %v", out.CreatedAt, in.CreatedAt)
	}
}

func TestDeterministicEncoding(t *testing.T) {
	// Map iteration order must not leak into the encoding: the same
	// logical value always produces identical bytes.
	in := record{
		ID:     "sandbox-2",
		Labels: map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"},
	}

	first, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 16; i++ {
		again, err := Marshal(in)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding not deterministic: %x vs %x", first, again)
		}
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	data, err := Marshal(map[string]any{
		"id":           "sandbox-3",
		"future_field": "ignored",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out record
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal with unknown field: %v", err)
	}
	if out.ID != "sandbox-3" {
		t.Errorf("id = %q, want %q", out.ID, "sandbox-3")
	}
}

func TestStreamEncodeDecode(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := enc.Encode(record{ID: "first"}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Encode(record{ID: "second"}); err != nil {
		t.Fatalf("encode: %v", err)
	}

	dec := NewDecoder(&buf)
	var a, b record
	if err := dec.Decode(&a); err != nil {
		t.Fatalf("decode first: %v", err)
	}
	if err := dec.Decode(&b); err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if a.ID != "first" || b.ID != "second" {
		t.Errorf("decoded %q, %q; want first, second", a.ID, b.ID)
	}
}
