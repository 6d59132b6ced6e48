package waitlist

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	valid := []string{
		"a@b.com",
		"first.last+tag@sub.example.co.uk",
		"  padded@example.org  ",
		"x@y.z",
		"a@b.c.",
		"a@.b.c",
		"a@b..c",
	}
	for _, email := range valid {
		assert.NoError(t, Validate(email), email)
	}

	invalid := []string{
		"",
		"   ",
		"\t\n",
		"not-an-email",
		"@b.com",
		"a@",
		"a@b",
		"a@.com",
		"a@b.",
		"a@.",
		"a@..",
		"a@.b.",
		"a@@b.com",
		"a@b@c.com",
		"a b@c.com",
		"a@b .com",
	}
	for _, email := range invalid {
		assert.ErrorIs(t, Validate(email), ErrInvalidEmail, "%q", email)
	}
}

func TestValidate_WithoutAtAlwaysFails(t *testing.T) {
	for _, s := range []string{"abc", "abc.def", "a.b.c", "example.com", "user(at)example.com"} {
		assert.ErrorIs(t, Validate(s), ErrInvalidEmail, s)
	}
}

func TestValidate_DomainWithoutDotAlwaysFails(t *testing.T) {
	for _, domain := range []string{"localhost", "b", "example-com", "x_y"} {
		email := "user@" + domain
		assert.ErrorIs(t, Validate(email), ErrInvalidEmail, email)
	}
}

func TestValidate_LocalDomainTLD(t *testing.T) {
	locals := []string{"a", "john.doe", "x_1", "ü"}
	domains := []string{"b", "mail-server", "sub.domain"}
	tlds := []string{"c", "com", "io", "museum"}

	for _, l := range locals {
		for _, d := range domains {
			for _, tld := range tlds {
				email := fmt.Sprintf("%s@%s.%s", l, d, tld)
				assert.NoError(t, Validate(email), email)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a@b.com", Normalize(" a@b.com\n"))
	assert.Equal(t, "", Normalize(strings.Repeat(" ", 4)))
}
