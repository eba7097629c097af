// Package codec moves a match between the two instances as a URL query
// payload. Decoding expresses the match from the receiver's side.
package codec

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jbarratt/duel/game"
)

const (
	Scheme = "duel"
	Host   = "match"

	KeyCurrentPlayer  = "currentPlayer"
	KeyP1Move         = "p1Move"
	KeyP2Move         = "p2Move"
	KeyCurrentTexture = "currentTexture"
	KeyRound          = "round"
	KeyResult         = "result"
)

// Keys is the order fields are written in. Every key is required.
var Keys = []string{KeyCurrentPlayer, KeyP1Move, KeyP2Move, KeyCurrentTexture, KeyRound, KeyResult}

var (
	ErrMissingField     = errors.New("codec: missing field")
	ErrMalformedField   = errors.New("codec: malformed field")
	ErrMalformedPayload = errors.New("codec: malformed payload")
)

// MissingFieldError is returned when a required key is absent.
type MissingFieldError struct {
	Key string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("codec: missing field %q", e.Key)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// MalformedFieldError is returned when a value does not parse.
type MalformedFieldError struct {
	Key   string
	Value string
	Err   error
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("codec: malformed field %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *MalformedFieldError) Is(target error) bool {
	return target == ErrMalformedField
}

func (e *MalformedFieldError) Unwrap() error {
	return e.Err
}

// Encode writes m as a payload. currentPlayer carries the sender's slot
// as is; the receiver does the flip.
func Encode(m game.Match) string {
	values := []string{
		m.Current.String(),
		m.P1Move.String(),
		m.P2Move.String(),
		m.Texture.String(),
		strconv.Itoa(m.Round),
		m.Result.String(),
	}

	var b strings.Builder
	b.WriteString(Scheme + "://" + Host + "?")
	for i, key := range Keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(values[i]))
	}
	return b.String()
}

// Decode parses a payload written by the other instance. The slot is
// inverted and the result flipped so the match reads from the local
// side. The round is taken as sent.
func Decode(payload string) (game.Match, error) {
	var m game.Match

	u, err := url.Parse(payload)
	if err != nil {
		return m, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return m, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	fields := make(map[string]string, len(Keys))
	for _, key := range Keys {
		if _, ok := query[key]; !ok {
			return m, &MissingFieldError{Key: key}
		}
		fields[key] = query.Get(key)
	}

	slot, err := game.ParseSlot(fields[KeyCurrentPlayer])
	if err != nil {
		return m, malformed(KeyCurrentPlayer, fields, err)
	}
	if m.P1Move, err = game.ParseMove(fields[KeyP1Move]); err != nil {
		return m, malformed(KeyP1Move, fields, err)
	}
	if m.P2Move, err = game.ParseMove(fields[KeyP2Move]); err != nil {
		return m, malformed(KeyP2Move, fields, err)
	}
	if m.Texture, err = game.ParseMove(fields[KeyCurrentTexture]); err != nil {
		return m, malformed(KeyCurrentTexture, fields, err)
	}
	round, err := strconv.ParseUint(fields[KeyRound], 10, 31)
	if err != nil {
		return m, malformed(KeyRound, fields, err)
	}
	result, err := game.ParseOutcome(fields[KeyResult])
	if err != nil {
		return m, malformed(KeyResult, fields, err)
	}

	m.Current = slot.Other()
	m.Round = int(round)
	m.Result = result.Flip()
	return m, nil
}

func malformed(key string, fields map[string]string, err error) error {
	return &MalformedFieldError{Key: key, Value: fields[key], Err: err}
}

// Caption is the text shown alongside the outgoing message.
func Caption(summary game.RoundSummary) string {
	if !summary.Outcome.Terminal() {
		return "Let's Duel"
	}
	return fmt.Sprintf("Let's Duel - round %d: %s", summary.Round, summary.Text)
}
