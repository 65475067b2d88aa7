// Package generation compiles story parameters into generator instructions
// and submits them to the external text generator.
package generation

import (
	"fmt"
	"strings"

	"github.com/talesmith/talesmith-server/internal/domain"
)

// Length is the requested story length.
type Length string

// Supported lengths.
const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// DefaultMood is used when a request names no mood.
const DefaultMood = "happy"

// Request holds the caller-supplied story parameters. Optional fields are empty when absent.
type Request struct {
	Title         string
	AgeRange      string
	Topic         string
	MainCharacter string
	Setting       string
	Mood          string
	Length        Length
	MoralLesson   string
}

// Sections are the resolved instruction fragments. Empty means omitted.
type Sections struct {
	Character string `json:"character,omitempty"`
	Setting   string `json:"setting,omitempty"`
	Moral     string `json:"moral,omitempty"`
	Mood      string `json:"mood"`
	Language  string `json:"language"`
	Core      string `json:"core"`
}

// Compiled is the output of Compile.
type Compiled struct {
	AgeRange        string   `json:"ageRange"`
	TargetWordCount int      `json:"targetWordCount"`
	Sections        Sections `json:"sections"`
}

type wordCounts struct {
	short, medium, long int
}

func (w wordCounts) pick(l Length) int {
	switch l {
	case LengthShort:
		return w.short
	case LengthLong:
		return w.long
	}
	return w.medium
}

type band struct {
	words    wordCounts
	language string
}

var bands = map[domain.AgeRange]band{
	domain.AgeRange3to5: {
		words:    wordCounts{200, 350, 500},
		language: "Use simple language, short sentences, and repetition. The story should be very easy to understand for preschoolers.",
	},
	domain.AgeRange6to8: {
		words:    wordCounts{350, 600, 900},
		language: "Use clear language with some more advanced vocabulary. The story can have more complex plot elements while remaining easy to follow.",
	},
	domain.AgeRange9to12: {
		words:    wordCounts{500, 800, 1200},
		language: "Use rich vocabulary and more complex sentence structures. The story can include more nuanced themes and character development.",
	},
}

// fallbackBand applies to unrecognized age ranges.
var fallbackBand = bands[domain.AgeRange9to12]

// Compile resolves a request into a target word count and instruction sections.
// Unknown lengths use the medium column and unknown age ranges use the 9-12 row.
// It is pure and safe for concurrent use.
func Compile(req Request) Compiled {
	b, ok := bands[domain.AgeRange(req.AgeRange)]
	if !ok {
		b = fallbackBand
	}

	mood := req.Mood
	if mood == "" {
		mood = DefaultMood
	}

	return Compiled{
		AgeRange:        req.AgeRange,
		TargetWordCount: b.words.pick(req.Length),
		Sections: Sections{
			Character: sentence("The main character is %s.", req.MainCharacter),
			Setting:   sentence("The story takes place in %s.", req.Setting),
			Moral:     sentence("The story should teach a moral lesson about %s.", req.MoralLesson),
			Mood:      fmt.Sprintf("The overall tone of the story should be %s.", mood),
			Language:  b.language,
			Core:      fmt.Sprintf("Write an original children's tale with the title \"%s\" about %s.", req.Title, req.Topic),
		},
	}
}

func sentence(format, value string) string {
	if value == "" {
		return ""
	}
	return fmt.Sprintf(format, value)
}

// Prompt joins the sections into the instruction text sent to the generator.
func (c Compiled) Prompt() string {
	paragraphs := []string{
		joinNonEmpty(c.Sections.Core, c.Sections.Character, c.Sections.Setting),
		joinNonEmpty(fmt.Sprintf("The story is for children aged %s years.", c.AgeRange), c.Sections.Language),
		joinNonEmpty(c.Sections.Moral, c.Sections.Mood),
		fmt.Sprintf("The story should be around %d words long.", c.TargetWordCount),
		"Please write a complete, engaging story with a clear beginning, middle, and end. Include dialogue and descriptive language appropriate for the age group.",
	}
	return strings.Join(paragraphs, "\n\n")
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
