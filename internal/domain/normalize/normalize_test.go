package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"lowercases", "Jun Han Wee", "junhanwee"},
		{"strips punctuation", "O'Brien, Conor", "obrienconor"},
		{"keeps hangul", "김 철수", "김철수"},
		{"mixed hangul latin", "Kim 철수 Jr.", "kim철수jr"},
		{"float artifact", "1029384756.0", "1029384756"},
		{"keeps digits", "BDC-1234567890", "bdc1234567890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.input))
		})
	}
}

func TestKeyIdempotent(t *testing.T) {
	inputs := []string{"Jun Han Wee", " JUN   HAN WEE ", "1234.0", "김철수", "a.b-c_d"}
	for _, in := range inputs {
		once := Key(in)
		assert.Equal(t, once, Key(once), "Key must be idempotent for %q", in)
	}
}

func TestKeyCaseAndWhitespaceInsensitive(t *testing.T) {
	assert.Equal(t, Key("Jun Han Wee"), Key(" JUN   HAN WEE "))
}

func TestKeyPrefix(t *testing.T) {
	assert.Equal(t, "1234567890", KeyPrefix("1234567890123", 10))
	assert.Equal(t, "abc", KeyPrefix("ABC", 10))
	assert.Equal(t, "김철수", KeyPrefix("김 철수!", 10))
	// Prefix length counts runes, not bytes
	assert.Equal(t, "가나", KeyPrefix("가나다", 2))
}
