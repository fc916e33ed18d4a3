package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Key hashes model, conversation text, max tokens and user.
//
// Temperature, top_p and stop are not part of the chat fingerprint: two chats
// differing only in sampling share one cached generation.
func (r *ChatCompletionRequest) Key() Fingerprint {
	lines := make([]string, 0, len(r.Messages))
	for _, msg := range r.Messages {
		name := ""
		if msg.Name != nil {
			name = *msg.Name
		}
		lines = append(lines, msg.Role+name+": "+msg.Content)
	}

	tuple := []any{r.Model, strings.Join(lines, "\n"), r.MaxTokens, r.User}

	// Marshalling strings, ints and nil pointers cannot fail.
	encoded, _ := json.Marshal(tuple)
	sum := sha256.Sum256(encoded)

	return Fingerprint(string(CompletionTypeChat) + ":" + hex.EncodeToString(sum[:]))
}

// Key is the literal tuple of inputs and every coding parameter.
//
// A request without parameters is keyed apart from one that spells out the
// default values.
func (r *CodingRequest) Key() Fingerprint {
	var params any = ""
	if r.Parameters != nil {
		params = r.Parameters.key()
	}

	encoded, _ := json.Marshal([]any{r.Inputs, params})

	return Fingerprint(string(CompletionTypeCode) + ":" + string(encoded))
}

func (p *CodingParameters) key() []any {
	var stop any
	if p.Stop != nil {
		stop = p.Stop
	}
	return []any{p.MaxNewTokens, p.Temperature, p.DoSample, p.TopP, stop}
}
