/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import "fmt"

// Copy holds every user-facing string of the game screen, so language
// variants are configuration rather than separate screens.
type Copy struct {
	Lang string `json:"lang"`

	Loading      string `json:"loading"`
	NoCandidates string `json:"noCandidates"`
	UnknownGuess string `json:"unknownGuess"`
	StartFailed  string `json:"startFailed"`
	AnswerFailed string `json:"answerFailed"`
	LookupFailed string `json:"lookupFailed"`

	CorrectTitle     string `json:"correctTitle"`
	CorrectSubtitle  string `json:"correctSubtitle"`
	NoMoreTitle      string `json:"noMoreTitle"`
	NoMoreSubtitle   string `json:"noMoreSubtitle"`
	RepeatedTitle    string `json:"repeatedTitle"`
	RepeatedSubtitle string `json:"repeatedSubtitle"`

	Yes      string `json:"yes"`
	No       string `json:"no"`
	DontKnow string `json:"dontKnow"`
	Reset    string `json:"reset"`
	Correct  string `json:"correct"`
	Wrong    string `json:"wrong"`
	NewGame  string `json:"newGame"`
	Locked   string `json:"locked"`
	NoDetail string `json:"noDetail"`
	Fetching string `json:"fetching"`
	More     string `json:"more"`
	Hint     string `json:"hint"`
}

var English = Copy{
	Lang: "en",

	Loading:      "Loading...",
	NoCandidates: "No candidates left 😅",
	UnknownGuess: "Unknown",
	StartFailed:  "Failed to start game",
	AnswerFailed: "Failed to submit answer",
	LookupFailed: "Guess %q found, but PokeAPI lookup failed for %q.",

	CorrectTitle:     "I GOT IT! 🎉",
	CorrectSubtitle:  "Nice! You can start a new game now.",
	NoMoreTitle:      "OUT OF GUESSES 😅",
	NoMoreSubtitle:   "No candidates left. Click NEW GAME to restart.",
	RepeatedTitle:    "NO NEW GUESSES 😵",
	RepeatedSubtitle: "The backend repeated the same guess. Click NEW GAME to restart.",

	Yes:      "YES",
	No:       "NO",
	DontKnow: "I DON'T KNOW",
	Reset:    "RESET",
	Correct:  "CORRECT",
	Wrong:    "WRONG",
	NewGame:  "NEW GAME",
	Locked:   "Actions locked, only NEW GAME is available.",
	NoDetail: "PokeAPI not found",
	Fetching: "loading...",
	More:     "+%d more…",
	Hint:     "Wheel = zoom • Drag = pan • Scroll = navigate",
}

var Portuguese = Copy{
	Lang: "pt",

	Loading:      "Carregando...",
	NoCandidates: "Sem candidatos restantes 😅",
	UnknownGuess: "Desconhecido",
	StartFailed:  "Falha ao iniciar o jogo",
	AnswerFailed: "Falha ao enviar resposta",
	LookupFailed: "Palpite %q encontrado, mas a busca na PokeAPI falhou para %q.",

	CorrectTitle:     "ACERTEI! 🎉",
	CorrectSubtitle:  "Boa! Você já pode começar um novo jogo.",
	NoMoreTitle:      "SEM PALPITES 😅",
	NoMoreSubtitle:   "Sem candidatos restantes. Clique em NOVO JOGO para recomeçar.",
	RepeatedTitle:    "SEM NOVOS PALPITES 😵",
	RepeatedSubtitle: "O backend repetiu o mesmo palpite. Clique em NOVO JOGO para recomeçar.",

	Yes:      "SIM",
	No:       "NÃO",
	DontKnow: "NÃO SEI",
	Reset:    "REINICIAR",
	Correct:  "ACERTOU",
	Wrong:    "ERROU",
	NewGame:  "NOVO JOGO",
	Locked:   "Ações bloqueadas, apenas NOVO JOGO está disponível.",
	NoDetail: "Não encontrado na PokeAPI",
	Fetching: "carregando...",
	More:     "+%d mais…",
	Hint:     "Roda = zoom • Arrastar = mover • Rolar = navegar",
}

// CopyFor returns the copy for a language code.
func CopyFor(lang string) (Copy, error) {
	switch lang {
	case "", "en":
		return English, nil
	case "pt", "pt-br":
		return Portuguese, nil
	}

	return Copy{}, fmt.Errorf("unsupported language %q (supported: en, pt)", lang)
}
