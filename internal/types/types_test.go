package types

import (
	"math"
	"testing"
)

func TestParseDomain(t *testing.T) {
	cases := []struct {
		in   string
		want Domain
	}{
		{"clear", DomainClear},
		{"Complicated", DomainComplicated},
		{"COMPLEX", DomainComplex},
		{" chaotic ", DomainChaotic},
		{"disorder", DomainDisorder},
		{"", DomainDisorder},
		{"quantum", DomainDisorder},
		{"obvious", DomainDisorder},
	}
	for _, tc := range cases {
		if got := ParseDomain(tc.in); got != tc.want {
			t.Errorf("ParseDomain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDomainValid(t *testing.T) {
	for _, d := range AllDomains() {
		if !d.Valid() {
			t.Errorf("expected %q to be valid", d)
		}
	}
	if Domain("simple").Valid() {
		t.Errorf("expected unknown domain to be invalid")
	}
}

func TestDomainTitle(t *testing.T) {
	if got := DomainComplex.Title(); got != "Complex" {
		t.Errorf("Title() = %q, want Complex", got)
	}
	if got := Domain("").Title(); got != "" {
		t.Errorf("Title() on empty domain = %q, want empty", got)
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.7, 1},
		{math.NaN(), 0},
	}
	for _, tc := range cases {
		if got := Clamp01(tc.in); got != tc.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNewChatMessage(t *testing.T) {
	msg := NewChatMessage(RoleUser, "hello")
	if msg.ID == "" {
		t.Fatal("expected generated message ID")
	}
	if msg.Role != RoleUser || msg.Content != "hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Confidence != -1 {
		t.Fatalf("expected no-badge confidence sentinel, got %v", msg.Confidence)
	}
}
