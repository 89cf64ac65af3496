package main

import (
	"crypto/rand"
	"embed"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"sort"
)

//go:embed content/questions.json content/challenges.json
var defaultContent embed.FS

// Question is one prompt both players answer. The discussion prompt is
// revealed only when their answers disagree.
type Question struct {
	ID               int    `json:"id"`
	Prompt           string `json:"prompt"`
	DiscussionPrompt string `json:"discussion"`
}

// Challenge is a post-reveal activity prompt, drawn from a categorized pool.
type Challenge struct {
	Category string `json:"category"`
	Content  string `json:"content"`
}

// ContentStore holds the question and challenge pools. Loaded once at
// startup and read-only afterwards, so lookups need no locking.
type ContentStore struct {
	questions  []Question
	challenges map[string][]Challenge
	categories []string
}

func newContentStore(questions []Question, challenges []Challenge) (*ContentStore, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("question pool is empty")
	}
	if len(challenges) == 0 {
		return nil, fmt.Errorf("challenge pool is empty")
	}

	seen := make(map[int]bool, len(questions))
	for _, q := range questions {
		if seen[q.ID] {
			return nil, fmt.Errorf("duplicate question id: %d", q.ID)
		}
		seen[q.ID] = true
	}

	byCategory := make(map[string][]Challenge)
	for _, c := range challenges {
		if c.Category == "" {
			return nil, fmt.Errorf("challenge %q has no category", c.Content)
		}
		byCategory[c.Category] = append(byCategory[c.Category], c)
	}

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	return &ContentStore{
		questions:  questions,
		challenges: byCategory,
		categories: categories,
	}, nil
}

// loadContent builds the store from the embedded pools, or from the files
// named by --questions/--challenges when provided.
func loadContent(cfg *Config) (*ContentStore, error) {
	questionData, err := readContentFile(cfg.questions, "content/questions.json")
	if err != nil {
		return nil, err
	}

	challengeData, err := readContentFile(cfg.challenges, "content/challenges.json")
	if err != nil {
		return nil, err
	}

	var questions []Question
	if err := json.Unmarshal(questionData, &questions); err != nil {
		return nil, fmt.Errorf("parsing question pool: %w", err)
	}

	var challenges []Challenge
	if err := json.Unmarshal(challengeData, &challenges); err != nil {
		return nil, fmt.Errorf("parsing challenge pool: %w", err)
	}

	return newContentStore(questions, challenges)
}

func readContentFile(override, embedded string) ([]byte, error) {
	if override != "" {
		return os.ReadFile(override)
	}
	return defaultContent.ReadFile(embedded)
}

// randIndex returns a uniform random index below n.
func randIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return int(v.Int64())
}

// PickQuestion draws a uniform-random question whose id is not in used.
// Returns false when the pool is exhausted.
func (cs *ContentStore) PickQuestion(used map[int]bool) (Question, bool) {
	eligible := make([]Question, 0, len(cs.questions))
	for _, q := range cs.questions {
		if !used[q.ID] {
			eligible = append(eligible, q)
		}
	}
	if len(eligible) == 0 {
		return Question{}, false
	}
	return eligible[randIndex(len(eligible))], true
}

// RandomChallenge draws a uniform-random category, then a uniform-random
// challenge within it.
func (cs *ContentStore) RandomChallenge() (Challenge, bool) {
	if len(cs.categories) == 0 {
		return Challenge{}, false
	}
	category := cs.categories[randIndex(len(cs.categories))]
	pool := cs.challenges[category]
	return pool[randIndex(len(pool))], true
}

func (cs *ContentStore) QuestionCount() int {
	return len(cs.questions)
}

func (cs *ContentStore) ChallengeCount() int {
	total := 0
	for _, pool := range cs.challenges {
		total += len(pool)
	}
	return total
}

func (cs *ContentStore) Categories() []string {
	return cs.categories
}
