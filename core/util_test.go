package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanString(t *testing.T) {
	assert.Equal(t, "Hello", CleanString("  Hello \n"))
	assert.Equal(t, "hello", CleanString("  HeLLo ", true))
}

func TestContainsAnyFold(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		substrs []string
		want    bool
	}{
		{name: "no substrs", s: "anything"},
		{name: "empty substr ignored", s: "anything", substrs: []string{"", "  "}},
		{name: "case insensitive", s: "Request Created Successfully", substrs: []string{"request created successfully"}, want: true},
		{name: "second matches", s: "a request is already in progress", substrs: []string{"nope", "ALREADY IN PROGRESS"}, want: true},
		{name: "no match", s: "internal server error", substrs: []string{"profile"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsAnyFold(tt.s, tt.substrs...))
		})
	}
}
