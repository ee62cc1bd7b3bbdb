package gemini

// promptData represents the data passed to the prompt template
type promptData struct {
	Word string
}

// ResponseSchema is the JSON document the model is asked to return.
type ResponseSchema struct {
	Definition string `json:"definition"`
}
