package sections

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegment(t *testing.T) {
	longLine := strings.TrimSpace(strings.Repeat("word ", 30))

	tests := []struct {
		name  string
		input string
		want  []Section
	}{
		{
			name:  "title precedence",
			input: "Deep Learning for X\n\nAbstract:\nWe show...\n",
			want: []Section{
				{Name: Title, Content: "Deep Learning for X"},
				{Name: Abstract, Content: "We show..."},
			},
		},
		{
			name:  "single line is title and body",
			input: "Just some plain text with no headers at all.",
			want: []Section{
				{Name: Title, Content: "Just some plain text with no headers at all."},
				{Name: Body, Content: "Just some plain text with no headers at all."},
			},
		},
		{
			name:  "materials and methods folds to methods",
			input: "Paper\nMaterials and Methods\nWe used mice.\nResults\nIt worked.",
			want: []Section{
				{Name: Title, Content: "Paper"},
				{Name: Methods, Content: "We used mice."},
				{Name: Results, Content: "It worked."},
			},
		},
		{
			name:  "singular material and upper case colon",
			input: "Paper\nMATERIAL AND METHODS:\nSetup.",
			want: []Section{
				{Name: Title, Content: "Paper"},
				{Name: Methods, Content: "Setup."},
			},
		},
		{
			name:  "canonical order regardless of source order",
			input: "T\nConclusion\nc text\nAbstract\na text\nResults\nr text",
			want: []Section{
				{Name: Title, Content: "T"},
				{Name: Abstract, Content: "a text"},
				{Name: Results, Content: "r text"},
				{Name: Conclusion, Content: "c text"},
			},
		},
		{
			name:  "repeated headers merge in discovery order",
			input: "T\nResults\nfirst\nDiscussion\nd\nResults\nsecond",
			want: []Section{
				{Name: Title, Content: "T"},
				{Name: Results, Content: "first\n\nsecond"},
				{Name: Discussion, Content: "d"},
			},
		},
		{
			name:  "empty header content is dropped",
			input: "T\nAbstract\n\nIntroduction\nintro",
			want: []Section{
				{Name: Title, Content: "T"},
				{Name: Introduction, Content: "intro"},
			},
		},
		{
			name:  "header on first line means no title",
			input: "Abstract\nfoo",
			want: []Section{
				{Name: Abstract, Content: "foo"},
			},
		},
		{
			name:  "long first line becomes preamble",
			input: longLine + "\nIntroduction\nstuff",
			want: []Section{
				{Name: Introduction, Content: "stuff"},
				{Name: Preamble, Content: longLine},
			},
		},
		{
			name:  "long first line without headers folds into body",
			input: longLine + "\nmore text",
			want: []Section{
				{Name: Body, Content: longLine + "\nmore text"},
			},
		},
		{
			name:  "title wins over preamble",
			input: "A Title\nJane Doe, Some University\nAbstract\nx",
			want: []Section{
				{Name: Title, Content: "A Title"},
				{Name: Abstract, Content: "x"},
			},
		},
		{
			name:  "keyword inside a sentence is not a header",
			input: "T\nThe results show\nstuff",
			want: []Section{
				{Name: Title, Content: "T"},
				{Name: Body, Content: "T\nThe results show\nstuff"},
			},
		},
		{
			name:  "indented header is not a header",
			input: "T\n  Results\nstuff",
			want: []Section{
				{Name: Title, Content: "T"},
				{Name: Body, Content: "T\n  Results\nstuff"},
			},
		},
		{
			name:  "trailing whitespace after header",
			input: "T\n\nReferences   \n[1] A. Author.",
			want: []Section{
				{Name: Title, Content: "T"},
				{Name: References, Content: "[1] A. Author."},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segment(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Segment mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSegment_Empty(t *testing.T) {
	assert.Empty(t, Segment(""))
	assert.Empty(t, Segment("  \n\t\n"))
}

func TestSegment_NeverEmptyForText(t *testing.T) {
	inputs := []string{
		"x",
		"Abstract",
		"Abstract\n",
		"Results:\nResults:\n",
		"\n\n\nsome text\n\n",
		strings.Repeat("long ", 100),
		"Introduction\n\nConclusion",
	}
	for _, in := range inputs {
		secs := Segment(in)
		require.NotEmpty(t, secs, "input %q", in)
		for _, s := range secs {
			assert.NotEmpty(t, s.Content, "input %q section %q", in, s.Name)
		}
	}
}

func TestSegment_NeverEmitsMaterialsAndMethods(t *testing.T) {
	for _, header := range []string{"Materials and Methods", "materials and methods", "MATERIALS  AND  METHODS:"} {
		secs := Segment("Paper\n" + header + "\nprotocol")
		var names []string
		for _, s := range secs {
			names = append(names, s.Name)
		}
		assert.Contains(t, names, Methods)
		assert.NotContains(t, names, "materials and methods")
	}
}

func TestSegment_KeepPreamble(t *testing.T) {
	input := "A Title\nJane Doe, Some University\nAbstract\nx"
	got := New(Policy{KeepPreamble: true}).Segment(input)
	want := []Section{
		{Name: Title, Content: "A Title"},
		{Name: Abstract, Content: "x"},
		{Name: Preamble, Content: "Jane Doe, Some University"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSegment_MaxTitleWords(t *testing.T) {
	got := New(Policy{MaxTitleWords: 2}).Segment("three word title\nbody text")
	want := []Section{{Name: Body, Content: "three word title\nbody text"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestHeaders(t *testing.T) {
	text := "T\nAbstract:\nabc\nmaterials and methods\ndef"
	got := Headers(text)
	require.Len(t, got, 2)

	assert.Equal(t, HeaderMatch{Keyword: "abstract", Start: 2, End: 11}, got[0])
	assert.Equal(t, "abstract:", strings.ToLower(text[got[0].Start:got[0].End]))
	assert.Equal(t, "materials and methods", got[1].Keyword)
	assert.Equal(t, "def", strings.TrimSpace(text[got[1].End:]))
}

func TestReconstruct_ResegmentKeepsNames(t *testing.T) {
	inputs := []string{
		"Deep Learning for X\n\nAbstract:\nWe show...\n",
		"Just some plain text with no headers at all.",
		"T\nConclusion\nc text\nAbstract\na text\nResults\nr text\nResults\nmore",
		strings.Repeat("word ", 30) + "\nIntroduction\nstuff\nReferences\n[1] x",
		"Paper\nMaterials and Methods\nWe used mice.\nDiscussion\nfine",
	}
	for _, in := range inputs {
		first := Segment(in)
		names := make(map[string]bool)
		for _, s := range first {
			names[s.Name] = true
		}
		for _, s := range Segment(Reconstruct(first)) {
			assert.True(t, names[s.Name], "input %q: unexpected section %q after re-segmentation", in, s.Name)
		}
	}
}

func TestSegmenter_ConcurrentUse(t *testing.T) {
	seg := New(DefaultPolicy())
	input := "Title\nAbstract\na\nMethods\nm\nResults\nr"
	want := seg.Segment(input)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if diff := cmp.Diff(want, seg.Segment(input)); diff != "" {
				t.Errorf("concurrent result differs:\n%s", diff)
			}
		}()
	}
	wg.Wait()
}
