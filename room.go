package main

import (
	"strings"
	"sync"
	"time"
)

// Room lifecycle states.
const (
	stateWaiting  = "waiting"
	statePlaying  = "playing"
	stateFinished = "finished"
)

const (
	roomCodeLength = 6
	maxPlayers     = 2
	matchReward    = 10
)

// Room is one isolated two-player session. All fields below the mutex are
// guarded by it; the answer barrier and disconnect handling serialize on it.
type Room struct {
	code string

	mu              sync.Mutex
	players         []Player
	state           string
	usedQuestionIDs map[int]bool
	currentQuestion *Question
	pending         map[ConnID]string
	revealed        bool
	score           int
	round           int

	// Pacing timer between reveal and challenge. Stopped when the room
	// is deleted so a dead room never broadcasts.
	challengeTimer *time.Timer
}

func newRoom(code string) *Room {
	return &Room{
		code:            code,
		state:           stateWaiting,
		usedQuestionIDs: make(map[int]bool),
		pending:         make(map[ConnID]string),
	}
}

// playerNamesLocked assumes room.mu is held.
func (room *Room) playerNamesLocked() []string {
	names := make([]string, 0, len(room.players))
	for _, p := range room.players {
		names = append(names, p.Name)
	}
	return names
}

// isMemberLocked assumes room.mu is held.
func (room *Room) isMemberLocked(connID ConnID) bool {
	for _, p := range room.players {
		if p.ConnID == connID {
			return true
		}
	}
	return false
}

// normalizeAnswer strips surrounding whitespace; matching additionally
// case-folds, so "Paris" and " paris " are judged equal.
func normalizeAnswer(s string) string {
	return strings.TrimSpace(s)
}

func answersMatch(a, b string) bool {
	return strings.EqualFold(normalizeAnswer(a), normalizeAnswer(b))
}

// StartGame moves a full waiting room into its first round. Missing rooms,
// short rooms, and rooms already past waiting are silently ignored; the
// client is expected to gate the start button.
func (reg *Registry) StartGame(code string) {
	room := reg.getRoom(code)
	if room == nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.state != stateWaiting || len(room.players) < maxPlayers {
		return
	}

	question, ok := reg.content.PickQuestion(room.usedQuestionIDs)
	if !ok {
		return
	}

	room.state = statePlaying
	room.round = 1
	room.usedQuestionIDs[question.ID] = true
	room.currentQuestion = &question
	room.pending = make(map[ConnID]string)
	room.revealed = false

	reg.broadcastLocked(room, GameStartedMessage{
		Type:     "game-started",
		Question: questionPayload(question),
		Round:    room.round,
	})

	logf(reg.cfg, "GAMES: Started game in room %s with question %d", room.code, question.ID)
}

// SubmitAnswer records one player's answer for the current round. The
// second distinct answer of a full room fires the reveal barrier exactly
// once; a re-submit before the barrier overwrites (last write wins), and
// submissions after the reveal are ignored until the next round.
func (reg *Registry) SubmitAnswer(code string, connID ConnID, answer string) {
	room := reg.getRoom(code)
	if room == nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.state != statePlaying || room.revealed || !room.isMemberLocked(connID) {
		return
	}

	room.pending[connID] = answer

	// The barrier never fires for a half-empty room; a lone answer is
	// retained until a second player arrives and answers.
	if len(room.pending) == maxPlayers && len(room.players) == maxPlayers {
		reg.revealLocked(room)
	}
}

// revealLocked resolves the round once both answers are in. Assumes
// room.mu is held.
func (reg *Registry) revealLocked(room *Room) {
	room.revealed = true

	first, second := room.players[0], room.players[1]
	firstAnswer := room.pending[first.ConnID]
	secondAnswer := room.pending[second.ConnID]

	match := answersMatch(firstAnswer, secondAnswer)
	if match {
		room.score += matchReward
	}

	msg := AnswersRevealedMessage{
		Type:  "answers-revealed",
		Match: match,
		Answers: []RevealedAnswer{
			{Name: first.Name, Answer: firstAnswer},
			{Name: second.Name, Answer: secondAnswer},
		},
		Score: room.score,
	}
	if !match && room.currentQuestion != nil {
		msg.DiscussionPrompt = room.currentQuestion.DiscussionPrompt
	}

	reg.broadcastLocked(room, msg)

	logf(reg.cfg, "GAMES: Round %d revealed in room %s (match: %t, score: %d)",
		room.round, room.code, match, room.score)

	// Pacing beat before the challenge. The callback re-resolves the room
	// through the registry, so deletion in the meantime makes it a no-op.
	code := room.code
	room.challengeTimer = time.AfterFunc(reg.cfg.revealDelay, func() {
		reg.deliverChallenge(code)
	})
}

// deliverChallenge fires after the reveal delay and broadcasts a random
// challenge to whoever is still in the room.
func (reg *Registry) deliverChallenge(code string) {
	room := reg.getRoom(code)
	if room == nil {
		return
	}

	challenge, ok := reg.content.RandomChallenge()
	if !ok {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	reg.broadcastLocked(room, ChallengeTimeMessage{
		Type:      "challenge-time",
		Challenge: challenge,
	})

	logf(reg.cfg, "GAMES: Sent %q challenge to room %s", challenge.Category, room.code)
}

// NextRound advances a playing room to a fresh question, or ends the game
// when the pool has no unused questions left.
func (reg *Registry) NextRound(code string) {
	room := reg.getRoom(code)
	if room == nil {
		return
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.state != statePlaying {
		return
	}

	room.round++

	question, ok := reg.content.PickQuestion(room.usedQuestionIDs)
	if !ok {
		// The attempted round never started, so it doesn't count.
		room.state = stateFinished
		room.currentQuestion = nil

		reg.broadcastLocked(room, GameOverMessage{
			Type:   "game-over",
			Score:  room.score,
			Rounds: room.round - 1,
		})

		logf(reg.cfg, "GAMES: Room %s finished after %d rounds (score: %d)",
			room.code, room.round-1, room.score)

		return
	}

	room.usedQuestionIDs[question.ID] = true
	room.currentQuestion = &question
	room.pending = make(map[ConnID]string)
	room.revealed = false

	reg.broadcastLocked(room, NextQuestionMessage{
		Type:     "next-question",
		Question: questionPayload(question),
		Round:    room.round,
	})
}
