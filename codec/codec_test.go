package codec

import (
	"errors"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/jbarratt/duel/game"
)

func TestEncodeOrder(t *testing.T) {
	m := game.Match{Current: game.Slot1, P1Move: game.MoveFire, Texture: game.MoveFire, Round: 1}
	got := Encode(m)
	want := "duel://match?currentPlayer=1&p1Move=fire&p2Move=none&currentTexture=fire&round=1&result=incomplete"
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestDecodeFlipsPerspective(t *testing.T) {
	sender, _, err := game.Submit(nil, game.Slot1, game.MoveFire)
	if err != nil {
		t.Fatalf("submit: %s", err)
	}
	got, err := Decode(Encode(*sender))
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if got.Current != game.Slot2 {
		t.Errorf("receiver should resolve as slot 2, got %s", got.Current)
	}
	if got.Result != game.Incomplete {
		t.Errorf("incomplete should survive the flip, got %s", got.Result)
	}
	if got.P1Move != game.MoveFire || got.P2Move != game.MoveNone {
		t.Errorf("moves should pass through unchanged: %+v", got)
	}
	if got.Round != 1 {
		t.Errorf("decode should not advance the round: %+v", got)
	}
}

func TestDecodeWinBecomesLoss(t *testing.T) {
	// slot 1 played fire, slot 2 answers with water
	receiver := game.NewMatch(game.Slot2)
	receiver.P1Move = game.MoveFire
	if _, err := receiver.Submit(game.MoveWater); err != nil {
		t.Fatalf("submit: %s", err)
	}
	if receiver.Result != game.Won {
		t.Fatalf("slot 2 should win locally, got %s", receiver.Result)
	}

	back, err := Decode(Encode(*receiver))
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if back.Current != game.Slot1 || back.Result != game.Lost {
		t.Errorf("slot 1 should see a loss: %+v", back)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		target  error
		key     string
	}{
		{
			name:    "missing round",
			payload: "duel://match?currentPlayer=1&p1Move=fire&p2Move=none&currentTexture=fire&result=incomplete",
			target:  ErrMissingField,
			key:     KeyRound,
		},
		{
			name:    "empty payload",
			payload: "",
			target:  ErrMissingField,
			key:     KeyCurrentPlayer,
		},
		{
			name:    "round not numeric",
			payload: "duel://match?currentPlayer=1&p1Move=fire&p2Move=none&currentTexture=fire&round=two&result=incomplete",
			target:  ErrMalformedField,
			key:     KeyRound,
		},
		{
			name:    "negative round",
			payload: "duel://match?currentPlayer=1&p1Move=fire&p2Move=none&currentTexture=fire&round=-1&result=incomplete",
			target:  ErrMalformedField,
			key:     KeyRound,
		},
		{
			name:    "unknown move",
			payload: "duel://match?currentPlayer=1&p1Move=rock&p2Move=none&currentTexture=fire&round=1&result=incomplete",
			target:  ErrMalformedField,
			key:     KeyP1Move,
		},
		{
			name:    "unknown slot",
			payload: "duel://match?currentPlayer=3&p1Move=fire&p2Move=none&currentTexture=fire&round=1&result=incomplete",
			target:  ErrMalformedField,
			key:     KeyCurrentPlayer,
		},
		{
			name:    "unknown result",
			payload: "duel://match?currentPlayer=1&p1Move=fire&p2Move=none&currentTexture=fire&round=1&result=maybe",
			target:  ErrMalformedField,
			key:     KeyResult,
		},
		{
			name:    "bad escape",
			payload: "duel://match?currentPlayer=%zz",
			target:  ErrMalformedPayload,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.payload)
			if !errors.Is(err, tt.target) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.target)
			}
			if tt.key == "" {
				return
			}
			var missing *MissingFieldError
			var bad *MalformedFieldError
			switch {
			case errors.As(err, &missing):
				if missing.Key != tt.key {
					t.Errorf("missing key = %q, want %q", missing.Key, tt.key)
				}
			case errors.As(err, &bad):
				if bad.Key != tt.key {
					t.Errorf("malformed key = %q, want %q", bad.Key, tt.key)
				}
			default:
				t.Errorf("unexpected error type %T", err)
			}
		})
	}
}

func TestDecodeIgnoresUnknownKeys(t *testing.T) {
	payload := "duel://match?theme=dark&currentPlayer=2&p1Move=ice&p2Move=water&currentTexture=water&round=7&result=draw&v=2"
	m, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if m.Current != game.Slot1 || m.Round != 7 || m.Result != game.Draw {
		t.Errorf("unexpected decode: %+v", m)
	}
}

func TestRoundTrip(t *testing.T) {
	all := append([]game.Move{game.MoveNone}, game.Moves...)
	outcomes := []game.Outcome{game.Incomplete, game.Won, game.Lost, game.Draw}

	rapid.Check(t, func(t *rapid.T) {
		s := game.Match{
			Current: rapid.SampledFrom([]game.Slot{game.Slot1, game.Slot2}).Draw(t, "slot"),
			P1Move:  rapid.SampledFrom(all).Draw(t, "p1"),
			P2Move:  rapid.SampledFrom(all).Draw(t, "p2"),
			Texture: rapid.SampledFrom(all).Draw(t, "texture"),
			Round:   rapid.IntRange(0, 1<<20).Draw(t, "round"),
			Result:  rapid.SampledFrom(outcomes).Draw(t, "result"),
		}
		payload := Encode(s)
		got, err := Decode(payload)
		if err != nil {
			t.Fatalf("decode %q: %s", payload, err)
		}
		if got.Round != s.Round || got.P1Move != s.P1Move || got.P2Move != s.P2Move || got.Texture != s.Texture {
			t.Fatalf("round trip changed fields: %+v -> %+v", s, got)
		}
		if got.Current != s.Current.Other() {
			t.Fatalf("slot not inverted: %s -> %s", s.Current, got.Current)
		}
		if got.Result != s.Result.Flip() {
			t.Fatalf("result not flipped: %s -> %s", s.Result, got.Result)
		}
		if !strings.HasPrefix(payload, "duel://match?currentPlayer=") {
			t.Fatalf("unexpected payload shape %q", payload)
		}
	})
}

func TestCaption(t *testing.T) {
	if got := Caption(game.RoundSummary{}); got != "Let's Duel" {
		t.Errorf("caption for an open round: %q", got)
	}
	got := Caption(game.RoundSummary{Round: 2, Outcome: game.Won, Text: "fire melts ice"})
	if got != "Let's Duel - round 2: fire melts ice" {
		t.Errorf("caption for a decided round: %q", got)
	}
}
