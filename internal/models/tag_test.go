package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagValid(t *testing.T) {
	cases := []struct {
		tag   string
		valid bool
	}{
		{"04:D6:94:82:97:6A:80", true},
		{"04:A7:B3:C2", true},
		{"ab:cd:ef:01", true},
		{"BADGE-001", true},
		{"badge_42", true},
		{"04:A7:B3", false},
		{"", false},
		{"abc", false},
		{"this-code-is-far-too-long-to-be-a-badge", false},
		{"04:G6:94:82", false},
		{"has space", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.valid, Tag(tc.tag).Valid(), "tag=%q", tc.tag)
	}
}
