package main

import (
	"slices"
	"testing"
)

func TestLoadEmbeddedContent(t *testing.T) {
	content, err := loadContent(&Config{})
	if err != nil {
		t.Fatalf("loadContent: %v", err)
	}

	if content.QuestionCount() == 0 {
		t.Fatal("embedded question pool is empty")
	}
	if content.ChallengeCount() == 0 {
		t.Fatal("embedded challenge pool is empty")
	}
	if len(content.Categories()) == 0 {
		t.Fatal("embedded challenge pool has no categories")
	}
}

func TestPickQuestionExcludesUsed(t *testing.T) {
	content := testContent(t, 3)

	used := map[int]bool{1: true, 2: true}

	for i := 0; i < 20; i++ {
		q, ok := content.PickQuestion(used)
		if !ok {
			t.Fatal("PickQuestion exhausted with one question remaining")
		}
		if q.ID != 3 {
			t.Fatalf("PickQuestion returned used question %d", q.ID)
		}
	}
}

func TestPickQuestionExhausted(t *testing.T) {
	content := testContent(t, 2)

	used := map[int]bool{1: true, 2: true}

	if q, ok := content.PickQuestion(used); ok {
		t.Fatalf("PickQuestion = (%+v, true) on an exhausted pool, want false", q)
	}
}

func TestRandomChallengeCategoryMembership(t *testing.T) {
	content := testContent(t, 2)

	for i := 0; i < 20; i++ {
		challenge, ok := content.RandomChallenge()
		if !ok {
			t.Fatal("RandomChallenge returned nothing")
		}
		if !slices.Contains(content.Categories(), challenge.Category) {
			t.Fatalf("challenge category %q not in enumerated set %v",
				challenge.Category, content.Categories())
		}
		if challenge.Content == "" {
			t.Fatal("RandomChallenge returned an empty challenge")
		}
	}
}

func TestNewContentStoreValidation(t *testing.T) {
	question := Question{ID: 1, Prompt: "Question?", DiscussionPrompt: "Discuss."}
	challenge := Challenge{Category: "conversation", Content: "Talk."}

	tests := []struct {
		name       string
		questions  []Question
		challenges []Challenge
	}{
		{"empty questions", nil, []Challenge{challenge}},
		{"empty challenges", []Question{question}, nil},
		{"duplicate question ids", []Question{question, question}, []Challenge{challenge}},
		{"uncategorized challenge", []Question{question}, []Challenge{{Content: "Talk."}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := newContentStore(tc.questions, tc.challenges); err == nil {
				t.Fatal("newContentStore accepted invalid pools")
			}
		})
	}
}
