package db

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"pilex/internal/models"
)

const prefillCount = 5

var loremWords = strings.Fields(`lorem ipsum dolor sit amet consectetur adipiscing elit sed do
	eiusmod tempor incididunt ut labore et dolore magna aliqua enim ad minim veniam quis nostrud
	exercitation ullamco laboris nisi aliquip ex ea commodo consequat duis aute irure in
	reprehenderit voluptate velit esse cillum fugiat nulla pariatur excepteur sint occaecat
	cupidatat non proident sunt culpa qui officia deserunt mollit anim id est laborum`)

func loremWordsN(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = loremWords[rand.IntN(len(loremWords))]
	}
	return strings.Join(words, " ")
}

func loremSentence() string {
	s := loremWordsN(6 + rand.IntN(10))
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func loremParagraph() string {
	sentences := make([]string, 3+rand.IntN(4))
	for i := range sentences {
		sentences[i] = loremSentence()
	}
	return strings.Join(sentences, " ")
}

func loremValue(f models.Field) string {
	switch f.Type {
	case models.FieldText:
		s := loremWordsN(2 + rand.IntN(5))
		return strings.ToUpper(s[:1]) + s[1:]
	case models.FieldTextarea:
		return loremParagraph()
	case models.FieldHTML:
		paragraphs := make([]string, 2+rand.IntN(3))
		for i := range paragraphs {
			paragraphs[i] = "<p>" + loremParagraph() + "</p>"
		}
		return strings.Join(paragraphs, "\n")
	case models.FieldDate:
		return time.Now().AddDate(0, 0, -rand.IntN(365)).Format(time.DateOnly)
	default:
		return ""
	}
}

// PreFill adds generated sample records to every content type and returns
// one report line per content type.
func (db *DB) PreFill(ctx context.Context, username string) ([]string, error) {
	var report []string
	for _, ct := range db.contentTypes {
		for range prefillCount {
			c := models.Content{
				Username: username,
				Status:   models.StatusPublished,
				Values:   make(map[string]string, len(ct.Fields)),
			}
			for _, f := range ct.Fields {
				c.Values[f.Name] = loremValue(f)
			}
			if err := db.SaveContent(ctx, ct.Slug, &c); err != nil {
				return report, err
			}
		}
		report = append(report, fmt.Sprintf("Added %d records to `%s`.", prefillCount, ct.Slug))
	}
	return report, nil
}
