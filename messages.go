package main

// Messages coming from clients
type ClientMessage struct {
	Type     string `json:"type"`                // "create-room", "join-room", "start-game", "submit-answer", "next-round"
	Name     string `json:"name,omitempty"`      // create-room / join-room
	RoomCode string `json:"room_code,omitempty"` // join-room / start-game / submit-answer / next-round
	Answer   string `json:"answer,omitempty"`    // submit-answer
}

// Sent to the creator once their room exists.
type RoomCreatedMessage struct {
	Type     string   `json:"type"` // "room-created"
	RoomCode string   `json:"room_code"`
	Players  []string `json:"players"`
}

// Broadcast to a room whenever its roster grows.
type PlayerJoinedMessage struct {
	Type     string   `json:"type"` // "player-joined"
	RoomCode string   `json:"room_code"`
	Players  []string `json:"players"`
}

// Broadcast to the remaining player when their peer disconnects.
type PlayerLeftMessage struct {
	Type     string   `json:"type"` // "player-left"
	RoomCode string   `json:"room_code"`
	Players  []string `json:"players"`
}

// Sent to a single client when a join or create request fails.
type ErrorMessage struct {
	Type    string `json:"type"`    // "error"
	Message string `json:"message"` // user-facing text
}

// QuestionPayload is the client-visible slice of a Question. The discussion
// prompt is withheld until a mismatched reveal.
type QuestionPayload struct {
	ID     int    `json:"id"`
	Prompt string `json:"prompt"`
}

type GameStartedMessage struct {
	Type     string          `json:"type"` // "game-started"
	Question QuestionPayload `json:"question"`
	Round    int             `json:"round"`
}

// RevealedAnswer pairs a player's name with their raw, un-normalized answer.
type RevealedAnswer struct {
	Name   string `json:"name"`
	Answer string `json:"answer"`
}

type AnswersRevealedMessage struct {
	Type             string           `json:"type"` // "answers-revealed"
	Match            bool             `json:"match"`
	Answers          []RevealedAnswer `json:"answers"`
	Score            int              `json:"score"`
	DiscussionPrompt string           `json:"discussion_prompt,omitempty"` // only on mismatch
}

type ChallengeTimeMessage struct {
	Type      string    `json:"type"` // "challenge-time"
	Challenge Challenge `json:"challenge"`
}

type NextQuestionMessage struct {
	Type     string          `json:"type"` // "next-question"
	Question QuestionPayload `json:"question"`
	Round    int             `json:"round"`
}

type GameOverMessage struct {
	Type   string `json:"type"` // "game-over"
	Score  int    `json:"score"`
	Rounds int    `json:"rounds"`
}

func questionPayload(q Question) QuestionPayload {
	return QuestionPayload{
		ID:     q.ID,
		Prompt: q.Prompt,
	}
}
