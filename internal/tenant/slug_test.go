package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Acme Corp":        "acme_corp",
		"acme":             "acme",
		"  Acme  Corp  ":   "acme_corp",
		"Acme-Corp GmbH":   "acme_corp_gmbh",
		"ACME!!!Corp":      "acme_corp",
		"123 Go":           "123_go",
		"---":              "",
		"":                 "",
		"Trailing dots...": "trailing_dots",
	}

	for input, want := range cases {
		assert.Equal(t, want, Slugify(input), "Slugify(%q)", input)
	}
}
