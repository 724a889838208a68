package checksum

import (
	"strings"
	"testing"
)

func TestSum(t *testing.T) {
	// sha256 of the empty input.
	if got := Sum(nil); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("Sum(nil) = %s", got)
	}
	got := Sum([]byte("cat\n"))
	if len(got) != 64 {
		t.Fatalf("len = %d, want 64", len(got))
	}
	if Sum([]byte("bat\n")) == got {
		t.Error("different inputs share a digest")
	}
}

func TestMatches(t *testing.T) {
	data := []byte("cat\nbat\n")
	sum := Sum(data)
	if !Matches(data, sum) {
		t.Error("Matches(own sum) = false")
	}
	if !Matches(data, strings.ToUpper(sum)) {
		t.Error("Matches should ignore hex case")
	}
	if Matches(data, Sum([]byte("cat\n"))) {
		t.Error("Matches(other sum) = true")
	}
}

func TestFromETag(t *testing.T) {
	sum := Sum([]byte("words"))
	cases := map[string]string{
		ETag(sum):        sum,
		"W/" + ETag(sum): sum,
		sum:              sum,
		" " + ETag(sum):  sum,
		"*":              "",
		"":               "",
	}
	for header, want := range cases {
		if got := FromETag(header); got != want {
			t.Errorf("FromETag(%q) = %q, want %q", header, got, want)
		}
	}
}
