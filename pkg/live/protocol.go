package live

// Wire types for the BidiGenerateContent protocol. Field names follow
// the JSON casing the service emits.

type clientMessage struct {
	Setup         *setupPayload  `json:"setup,omitempty"`
	RealtimeInput *realtimeInput `json:"realtimeInput,omitempty"`
}

type setupPayload struct {
	Model                    string            `json:"model"`
	GenerationConfig         *generationConfig `json:"generationConfig,omitempty"`
	SystemInstruction        *content          `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *struct{}         `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}         `json:"outputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig *voiceConfig `json:"voiceConfig,omitempty"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig *prebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type realtimeInput struct {
	MediaChunks []inlineData `json:"mediaChunks,omitempty"`
	Text        string       `json:"text,omitempty"`
}

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete"`
	ServerContent *serverContent `json:"serverContent"`
}

type serverContent struct {
	ModelTurn           *content       `json:"modelTurn"`
	InputTranscription  *transcription `json:"inputTranscription"`
	OutputTranscription *transcription `json:"outputTranscription"`
	TurnComplete        bool           `json:"turnComplete"`
	Interrupted         bool           `json:"interrupted"`
}

type transcription struct {
	Text string `json:"text"`
}
