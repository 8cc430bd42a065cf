package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCompanyName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sequoia Capital", "sequoia"},
		{"The Sequoia Capital, LLC", "sequoia"},
		{"Andreessen Horowitz", "andreessen horowitz"},
		{"Kleiner Perkins Caufield & Byers", "kleiner perkins caufield and byers"},
		{"Index Ventures Management Ltd.", "index"},
		{"Crédit Agricole Capital", "credit agricole"},
		{"Y.C. Group", "yc"},
		{"  First   Round   Capital  ", "first round"},
		{"Capital", "capital"},
		{"Capital Partners", "capital"},
		{"The", "the"},
		{"The Fund", "fund"},
		{"Gmbh & Co", "gmbh and"},
		{"", ""},
		{"O'Reilly AlphaTech Ventures", "oreilly alphatech"},
		{"a16z", "a16z"},
		{"Lux-Capital Inc", "lux"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCompanyName(tt.in))
		})
	}
}

func TestNormalizeCompanyName_Idempotent(t *testing.T) {
	for _, in := range []string{"Sequoia Capital", "Benchmark", "Accel Partners & Co", "Ålborg Invest Holdings"} {
		once := NormalizeCompanyName(in)
		assert.Equal(t, once, NormalizeCompanyName(once), in)
	}
}

func TestDomainFromURL(t *testing.T) {
	assert.Equal(t, "a16z.com", DomainFromURL("https://www.a16z.com/portfolio"))
	assert.Equal(t, "sequoiacap.com", DomainFromURL("sequoiacap.com"))
	assert.Equal(t, "accel.com", DomainFromURL("http://accel.com:8080?x=1"))
	assert.Equal(t, "", DomainFromURL("  "))
}
