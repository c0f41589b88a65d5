package tabular

import (
	"reflect"
	"testing"
)

func TestDetectDialect(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Dialect
	}{
		{"commas win", "a,b,c\nrest\tignored", DialectCSV},
		{"tabs win", "a\tb\tc", DialectTSV},
		{"tie goes to tsv", "a,b\tc,d\te", DialectTSV},
		{"empty input", "", DialectTSV},
		{"only first line counts", "a\tb\nc,d,e,f", DialectTSV},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectDialect(tc.in); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestParseCSV_QuotedFields(t *testing.T) {
	in := "a,\"b,1\",c\n\"multi\nline\",\"say \"\"hi\"\"\",z\n"
	got := ParseCSV(in)
	want := [][]string{
		{"a", "b,1", "c"},
		{"multi\nline", `say "hi"`, "z"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseCSV_TrailingUnterminatedRow(t *testing.T) {
	got := ParseCSV("a,b\n\"open,still going")
	want := [][]string{
		{"a", "b"},
		{"open,still going"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseCSV_DropsAllEmptyRows(t *testing.T) {
	got := ParseCSV("a,b\n,,\n \n c , d \n")
	want := [][]string{
		{"a", "b"},
		{"c", "d"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseCSV_CRLF(t *testing.T) {
	got := ParseCSV("a,b\r\nc,d\r\n")
	want := [][]string{
		{"a", "b"},
		{"c", "d"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseTSV_NaiveSplit(t *testing.T) {
	// No quote handling in TSV: quotes pass through as literal text.
	got := ParseTSV("a\t\"b\tc\"\n\t\t\nx\ty\tz")
	want := [][]string{
		{"a", "\"b", "c\""},
		{"x", "y", "z"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParse_AutoDetect(t *testing.T) {
	csv := Parse("h1,h2\nv1,v2\n")
	if len(csv) != 2 || csv[1][1] != "v2" {
		t.Fatalf("csv auto-detect failed: %v", csv)
	}
	tsv := Parse("h1\th2\nv1\tv2\n")
	if len(tsv) != 2 || tsv[1][1] != "v2" {
		t.Fatalf("tsv auto-detect failed: %v", tsv)
	}
}
