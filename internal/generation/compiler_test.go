package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompile_WordCountTable(t *testing.T) {
	tests := []struct {
		ageRange string
		length   Length
		want     int
	}{
		{"3-5", LengthShort, 200},
		{"3-5", LengthMedium, 350},
		{"3-5", LengthLong, 500},
		{"6-8", LengthShort, 350},
		{"6-8", LengthMedium, 600},
		{"6-8", LengthLong, 900},
		{"9-12", LengthShort, 500},
		{"9-12", LengthMedium, 800},
		{"9-12", LengthLong, 1200},

		// Unknown length uses the medium column.
		{"3-5", "", 350},
		{"6-8", "epic", 600},

		// Unknown age range uses the 9-12 row.
		{"unknown", LengthMedium, 800},
		{"", LengthShort, 500},
		{"13-15", LengthLong, 1200},
	}

	for _, tt := range tests {
		t.Run(tt.ageRange+"/"+string(tt.length), func(t *testing.T) {
			got := Compile(Request{Title: "T", Topic: "x", AgeRange: tt.ageRange, Length: tt.length})
			assert.Equal(t, tt.want, got.TargetWordCount)
		})
	}
}

func TestCompile_LanguageRegister(t *testing.T) {
	young := Compile(Request{AgeRange: "3-5"}).Sections.Language
	middle := Compile(Request{AgeRange: "6-8"}).Sections.Language
	older := Compile(Request{AgeRange: "9-12"}).Sections.Language

	assert.Contains(t, young, "preschoolers")
	assert.Contains(t, middle, "clear language")
	assert.Contains(t, older, "rich vocabulary")
	assert.NotEqual(t, young, middle)
	assert.NotEqual(t, middle, older)

	// Fixed per band regardless of other parameters.
	other := Compile(Request{AgeRange: "6-8", Mood: "spooky", Length: LengthLong, MainCharacter: "a bat"})
	assert.Equal(t, middle, other.Sections.Language)

	assert.Equal(t, older, Compile(Request{AgeRange: "adult"}).Sections.Language)
}

func TestCompile_OptionalSentences(t *testing.T) {
	empty := Compile(Request{Title: "The Walk", AgeRange: "6-8", Topic: "friendship"})
	assert.Empty(t, empty.Sections.Character)
	assert.Empty(t, empty.Sections.Setting)
	assert.Empty(t, empty.Sections.Moral)
	assert.NotContains(t, empty.Prompt(), "main character")
	assert.NotContains(t, empty.Prompt(), "takes place")
	assert.NotContains(t, empty.Prompt(), "moral lesson")

	full := Compile(Request{
		Title:         "The Walk",
		AgeRange:      "6-8",
		Topic:         "friendship",
		MainCharacter: "a fox",
		Setting:       "a snowy forest",
		MoralLesson:   "sharing",
	})
	assert.Equal(t, "The main character is a fox.", full.Sections.Character)
	assert.Equal(t, "The story takes place in a snowy forest.", full.Sections.Setting)
	assert.Equal(t, "The story should teach a moral lesson about sharing.", full.Sections.Moral)
	assert.Equal(t, 1, strings.Count(full.Prompt(), "a fox"))
}

func TestCompile_MoodDefault(t *testing.T) {
	got := Compile(Request{AgeRange: "3-5"})
	assert.Equal(t, "The overall tone of the story should be happy.", got.Sections.Mood)

	got = Compile(Request{AgeRange: "3-5", Mood: "adventurous"})
	assert.Equal(t, "The overall tone of the story should be adventurous.", got.Sections.Mood)
}

func TestCompile_Deterministic(t *testing.T) {
	req := Request{Title: "A", AgeRange: "9-12", Topic: "space", Setting: "Mars", Length: LengthLong}
	assert.Equal(t, Compile(req), Compile(req))
	assert.Equal(t, Compile(req).Prompt(), Compile(req).Prompt())
}

func TestCompiled_Prompt(t *testing.T) {
	got := Compile(Request{
		Title:         "Moon Boat",
		AgeRange:      "3-5",
		Topic:         "bedtime",
		MainCharacter: "a sleepy owl",
		Length:        LengthShort,
	}).Prompt()

	want := "Write an original children's tale with the title \"Moon Boat\" about bedtime. The main character is a sleepy owl.\n\n" +
		"The story is for children aged 3-5 years. Use simple language, short sentences, and repetition. The story should be very easy to understand for preschoolers.\n\n" +
		"The overall tone of the story should be happy.\n\n" +
		"The story should be around 200 words long.\n\n" +
		"Please write a complete, engaging story with a clear beginning, middle, and end. Include dialogue and descriptive language appropriate for the age group."
	assert.Equal(t, want, got)
}
