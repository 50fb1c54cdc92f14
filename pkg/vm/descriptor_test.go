package vm

import (
	"reflect"
	"testing"
)

func TestParseMethodDescriptor(t *testing.T) {
	cases := []struct {
		descriptor string
		params     []string
		ret        string
	}{
		{"()V", nil, "V"},
		{"(I)I", []string{"I"}, "I"},
		{"(ILjava/lang/String;[I)V", []string{"I", "Ljava/lang/String;", "[I"}, "V"},
		{"([[Ljava/lang/Object;)[[I", []string{"[[Ljava/lang/Object;"}, "[[I"},
	}
	for _, c := range cases {
		params, ret, err := parseMethodDescriptor(c.descriptor)
		if err != nil {
			t.Fatalf("parseMethodDescriptor(%q): %v", c.descriptor, err)
		}
		if !reflect.DeepEqual(params, c.params) {
			t.Errorf("parseMethodDescriptor(%q) params = %v, want %v", c.descriptor, params, c.params)
		}
		if ret != c.ret {
			t.Errorf("parseMethodDescriptor(%q) ret = %q, want %q", c.descriptor, ret, c.ret)
		}
	}
}

func TestParseMethodDescriptorMalformed(t *testing.T) {
	cases := []string{"", "V", "(I", "(L;)V"}
	for _, d := range cases {
		if _, _, err := parseMethodDescriptor(d); err == nil {
			t.Errorf("parseMethodDescriptor(%q): expected error", d)
		}
	}
}

func TestFieldDescriptorLength(t *testing.T) {
	cases := []struct {
		s    string
		want int
	}{
		{"I", 1},
		{"Ljava/lang/String;", len("Ljava/lang/String;")},
		{"[I", 2},
		{"[[Ljava/lang/Object;rest", len("[[Ljava/lang/Object;")},
	}
	for _, c := range cases {
		n, err := fieldDescriptorLength(c.s)
		if err != nil {
			t.Fatalf("fieldDescriptorLength(%q): %v", c.s, err)
		}
		if n != c.want {
			t.Errorf("fieldDescriptorLength(%q) = %d, want %d", c.s, n, c.want)
		}
	}
}

func TestFieldDescriptorLengthInvalid(t *testing.T) {
	cases := []string{"", "L", "Lnoterm", "X", "["}
	for _, s := range cases {
		if _, err := fieldDescriptorLength(s); err == nil {
			t.Errorf("fieldDescriptorLength(%q): expected error", s)
		}
	}
}

func TestIsWideDescriptor(t *testing.T) {
	cases := map[string]bool{
		"J": true,
		"D": true,
		"I": false,
		"Ljava/lang/Object;": false,
		"[J": false,
	}
	for d, want := range cases {
		if got := isWideDescriptor(d); got != want {
			t.Errorf("isWideDescriptor(%q) = %v, want %v", d, got, want)
		}
	}
}
