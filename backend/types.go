/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package backend

import "github.com/Seednode/pokenator/pointcloud"

type Answer string

const (
	AnswerYes     Answer = "YES"
	AnswerNo      Answer = "NO"
	AnswerUnknown Answer = "UNKNOWN"
)

func (a Answer) Valid() bool {
	switch a {
	case AnswerYes, AnswerNo, AnswerUnknown:
		return true
	}
	return false
}

// Question kinds are owned by the backend; only GUESS changes client behavior.
const QuestionKindGuess = "GUESS"

type Question struct {
	Text         string  `json:"text"`
	Kind         string  `json:"kind"`
	PredicateURI *string `json:"predicateUri,omitempty"`
	ObjectURI    *string `json:"objectUri,omitempty"`
}

type StartResponse struct {
	SessionID string   `json:"sessionId"`
	Question  Question `json:"question"`
}

type StepKind string

const (
	StepQuestion     StepKind = "QUESTION"
	StepGuess        StepKind = "GUESS"
	StepNoCandidates StepKind = "NO_CANDIDATES"
)

// StepResponse is the tagged result of answering a question. Which optional
// fields are set depends on Kind.
type StepResponse struct {
	Kind                StepKind  `json:"kind"`
	RemainingCandidates *int64    `json:"remainingCandidates,omitempty"`
	Question            *Question `json:"question,omitempty"`
	GuessURI            *string   `json:"guessUri,omitempty"`
	GuessLabel          *string   `json:"guessLabel,omitempty"`
}

type CandidatesResponse struct {
	Candidates []pointcloud.Candidate `json:"candidates"`
}

type answerRequest struct {
	Answer Answer `json:"answer"`
}
