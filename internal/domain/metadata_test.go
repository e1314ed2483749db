package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var metadataShape = regexp.MustCompile(`^[a-z-]+, age ([1-9][0-9]?|100), (employed|unemployed), [a-z-]+-educated$`)

func TestRandomMetadata(t *testing.T) {
	for i := 0; i < 50; i++ {
		m := RandomMetadata()
		assert.Regexp(t, metadataShape, m)
	}
}

func TestListFilter_Matches(t *testing.T) {
	u := &User{Email: "a@example.com", FullName: "Ann", Metadata: "female, age 30"}

	tests := []struct {
		name   string
		filter ListFilter
		want   bool
	}{
		{"empty filter", ListFilter{}, true},
		{"email match", ListFilter{Email: ptr("a@example.com")}, true},
		{"email mismatch", ListFilter{Email: ptr("b@example.com")}, false},
		{"all fields match", ListFilter{Email: ptr("a@example.com"), FullName: ptr("Ann"), Metadata: ptr("female, age 30")}, true},
		{"one field mismatches", ListFilter{Email: ptr("a@example.com"), FullName: ptr("Bob")}, false},
		{"metadata is exact", ListFilter{Metadata: ptr("female")}, false},
		{"blank email matches nothing", ListFilter{Email: ptr("")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(u))
		})
	}
}

func TestListFilter_MatchesBlankValue(t *testing.T) {
	blank := &User{Email: "a@example.com"}
	named := &User{Email: "b@example.com", FullName: "Ann"}

	f := ListFilter{FullName: ptr("")}
	assert.True(t, f.Matches(blank))
	assert.False(t, f.Matches(named))
}

func ptr(s string) *string { return &s }

func TestUser_HasAccountKey(t *testing.T) {
	u := &User{}
	assert.False(t, u.HasAccountKey())
	empty := ""
	u.AccountKey = &empty
	assert.False(t, u.HasAccountKey())
	key := "ak"
	u.AccountKey = &key
	assert.True(t, u.HasAccountKey())
}
