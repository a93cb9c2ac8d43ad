package entities

// GenerationResponse is the provider-neutral shape of a generative reply.
type GenerationResponse struct {
	Candidates  []Candidate
	BlockReason string
}

type Candidate struct {
	FinishReason string
	Parts        []Part
}

type Part struct {
	MimeType string
	Data     []byte
	Text     string
}

// Finish reasons that do not disqualify a candidate.
var acceptedFinishReasons = map[string]bool{
	"":                          true,
	"STOP":                      true,
	"FINISH_REASON_UNSPECIFIED": true,
	"MAX_TOKENS":                true,
}

func (c Candidate) Blocked() bool {
	return !acceptedFinishReasons[c.FinishReason]
}

func (p Part) HasImage() bool {
	return len(p.Data) > 0 && p.MimeType != ""
}

// FirstImage returns the first inline image part of the first candidate that
// was not blocked.
func (r *GenerationResponse) FirstImage() (*Part, error) {
	if r == nil || len(r.Candidates) == 0 {
		if r != nil && r.BlockReason != "" {
			return nil, ErrContentBlocked
		}
		return nil, ErrNoCandidates
	}

	blocked := 0
	for _, candidate := range r.Candidates {
		if candidate.Blocked() {
			blocked++
			continue
		}
		for i := range candidate.Parts {
			if candidate.Parts[i].HasImage() {
				return &candidate.Parts[i], nil
			}
		}
	}

	if blocked == len(r.Candidates) {
		return nil, ErrContentBlocked
	}
	return nil, ErrNoImageData
}

// FinishReason reports the prompt block reason, else the first candidate's
// finish reason.
func (r *GenerationResponse) FinishReason() string {
	if r == nil {
		return ""
	}
	if r.BlockReason != "" {
		return r.BlockReason
	}
	if len(r.Candidates) > 0 {
		return r.Candidates[0].FinishReason
	}
	return ""
}

// Text joins any text parts the model returned alongside (or instead of) an image.
func (r *GenerationResponse) Text() string {
	if r == nil {
		return ""
	}
	var text string
	for _, candidate := range r.Candidates {
		for _, part := range candidate.Parts {
			text += part.Text
		}
	}
	return text
}
