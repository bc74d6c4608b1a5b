package domain

// Message is one outbound bot message, delivered once per emitted block.
type Message struct {
	Type    BlockType `json:"type"`
	Content string    `json:"content"`
	Params  Params    `json:"params"`
}

// Params carries the block-type specific presentation data.
//   - MC: Options holds the connector labels.
//   - List: Options holds the items, plus the two input flags.
//   - AutoComplete: Options holds the block options.
//   - Other types: empty.
type Params struct {
	Options     []string `json:"options,omitempty"`
	TextInput   *bool    `json:"text_input,omitempty"`
	NumberInput *bool    `json:"number_input,omitempty"`
}
