package model

// Clause is a contiguous, non-empty text segment of a contract
type Clause struct {
	Index      int    `json:"index"`      // 0-based position in the document
	Text       string `json:"text"`       // Raw text, equal to source[Start:End]
	Normalized string `json:"normalized"` // Lowercased, whitespace-collapsed text used for matching
	Start      int    `json:"start"`      // Byte offset of the first byte in the source
	End        int    `json:"end"`        // Byte offset one past the last byte
}

// ClauseType labels what a clause does to the reader
type ClauseType string

const (
	ClauseTypeProhibition ClauseType = "prohibition" // "shall not", "must not"
	ClauseTypeObligation  ClauseType = "obligation"  // "shall", "must"
	ClauseTypeRight       ClauseType = "right"       // "may", "can"
	ClauseTypeNeutral     ClauseType = "neutral"
)

// Span is a matched region inside a clause's raw text
type Span struct {
	Start int    `json:"start"` // Byte offset relative to Clause.Text
	End   int    `json:"end"`
	Text  string `json:"text"` // Verbatim raw text
}
